package alloc

import "github.com/google/btree"

// btreeDegree is the B-tree degree for the free-range and region indexes.
const btreeDegree = 16

// freeList keeps track of free ranges ordered by base address.
type freeList struct {
	tree  *btree.BTreeG[Range]
	bytes uint64 // sum of all free range sizes
}

func lessRange(a, b Range) bool { return a.Base < b.Base }

func newFreeList() *freeList {
	return &freeList{tree: btree.NewG(btreeDegree, lessRange)}
}

func (fl *freeList) Len() int { return fl.tree.Len() }

func (fl *freeList) insert(r Range) {
	fl.tree.ReplaceOrInsert(r)
	fl.bytes += r.Size
}

func (fl *freeList) remove(r Range) {
	if _, ok := fl.tree.Delete(r); ok {
		fl.bytes -= r.Size
	}
}

// floor returns the free range with the greatest base <= addr.
func (fl *freeList) floor(addr uint64) (Range, bool) {
	var out Range
	found := false
	fl.tree.DescendLessOrEqual(Range{Base: addr}, func(r Range) bool {
		out, found = r, true
		return false
	})
	return out, found
}

// ceil returns the free range with the smallest base >= addr.
func (fl *freeList) ceil(addr uint64) (Range, bool) {
	var out Range
	found := false
	fl.tree.AscendGreaterOrEqual(Range{Base: addr}, func(r Range) bool {
		out, found = r, true
		return false
	})
	return out, found
}

// containing returns the free range that holds all of r.
func (fl *freeList) containing(r Range) (Range, bool) {
	c, ok := fl.floor(r.Base)
	if !ok || !c.Contains(r) {
		return Range{}, false
	}
	return c, true
}

// release inserts r and merges it with the free ranges touching either end.
// r must not overlap any free range.
func (fl *freeList) release(r Range) (merged Range, left, right bool) {
	if prev, ok := fl.floor(r.Base); ok && prev.End() == r.Base {
		fl.remove(prev)
		r = Range{Base: prev.Base, Size: prev.Size + r.Size}
		left = true
	}
	if next, ok := fl.ceil(r.End()); ok && next.Base == r.End() {
		fl.remove(next)
		r.Size += next.Size
		right = true
	}
	fl.insert(r)
	return r, left, right
}

// carve removes sub from its enclosing free range c, putting back whatever
// is left before and after it.
func (fl *freeList) carve(c, sub Range) (splits int) {
	fl.remove(c)
	if sub.Base > c.Base {
		fl.insert(Range{Base: c.Base, Size: sub.Base - c.Base})
		splits++
	}
	if sub.End() < c.End() {
		fl.insert(Range{Base: sub.End(), Size: c.End() - sub.End()})
		splits++
	}
	return splits
}

func (fl *freeList) ascend(fn func(Range) bool) {
	fl.tree.Ascend(fn)
}

// largest returns the size of the biggest free range.
func (fl *freeList) largest() uint64 {
	var best uint64
	fl.tree.Ascend(func(r Range) bool {
		if r.Size > best {
			best = r.Size
		}
		return true
	})
	return best
}
