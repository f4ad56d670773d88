package alloc

import "fmt"

// ID is the caller-supplied identifier of an allocation.
type ID = uint64

// Range is a half-open span [Base, Base+Size) of address space.
type Range struct {
	Base uint64
	Size uint64
}

// End returns the first address past the range.
func (r Range) End() uint64 { return r.Base + r.Size }

// Contains reports whether o lies entirely inside r.
func (r Range) Contains(o Range) bool {
	return o.Base >= r.Base && o.End() <= r.End()
}

// Overlaps reports whether r and o share at least one address.
func (r Range) Overlaps(o Range) bool {
	return r.Base < o.End() && o.Base < r.End()
}

func (r Range) String() string {
	return fmt.Sprintf("[%#x, %#x)", r.Base, r.End())
}

// Region is a span of address space registered with the allocator.
type Region struct {
	Key  uint64 // base address at registration time
	Base uint64
	Size uint64
	Tag  string
}

// Range returns the span covered by the region.
func (r Region) Range() Range { return Range{Base: r.Base, Size: r.Size} }

// End returns the first address past the region.
func (r Region) End() uint64 { return r.Base + r.Size }

// Allocation is a span owned by a caller-supplied ID.
type Allocation struct {
	ID        ID
	Base      uint64
	Size      uint64 // bytes reserved, Requested rounded up to the granule
	Requested uint64 // bytes asked for
	Align     uint64
	Region    uint64 // key of the region containing Base
	Tag       string // tag of that region
}

// Range returns the span covered by the allocation.
func (a Allocation) Range() Range { return Range{Base: a.Base, Size: a.Size} }

// End returns the first address past the allocation.
func (a Allocation) End() uint64 { return a.Base + a.Size }

// Policy selects which free range satisfies an allocation.
type Policy uint8

const (
	// FirstFit takes the lowest-addressed free range that fits.
	FirstFit Policy = iota
	// BestFit takes the free range that leaves the fewest bytes over,
	// preferring the lower address on ties.
	BestFit
)

func (p Policy) String() string {
	switch p {
	case FirstFit:
		return "first-fit"
	case BestFit:
		return "best-fit"
	default:
		return fmt.Sprintf("Policy(%d)", uint8(p))
	}
}
