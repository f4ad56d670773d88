package alloc

import "math"

func isPowerOfTwo(n uint64) bool {
	return n != 0 && n&(n-1) == 0
}

// alignUp rounds n up to a multiple of align, which must be a power of two.
// ok is false when the result does not fit in a uint64.
func alignUp(n, align uint64) (uint64, bool) {
	rem := n & (align - 1)
	if rem == 0 {
		return n, true
	}
	pad := align - rem
	if n > math.MaxUint64-pad {
		return 0, false
	}
	return n + pad, true
}

// fits reports whether size bytes aligned to align can be placed in r, and
// where. The placement is the lowest aligned address at or above r.Base.
func fits(r Range, size, align uint64) (uint64, bool) {
	base, ok := alignUp(r.Base, align)
	if !ok {
		return 0, false
	}
	pad := base - r.Base
	if pad > r.Size || r.Size-pad < size {
		return 0, false
	}
	return base, true
}

// spanOK reports whether [base, base+size) is representable.
func spanOK(base, size uint64) bool {
	return size <= math.MaxUint64-base
}
