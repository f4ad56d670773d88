package alloc

// Verify walks the allocator state and checks its invariants:
//
//   - free ranges are non-empty, ordered, and never overlap or touch
//   - every free range and allocation lies inside registered space
//   - every allocation is aligned and overlaps no free range or allocation
//   - allocated bytes + free bytes == registered bytes
//
// It returns an *InvariantError describing the first violation.
func (a *Allocator) Verify() error {
	var regionBytes uint64
	var prevRegion Region
	first := true
	var err error
	a.regions.Ascend(func(r Region) bool {
		if r.Size == 0 {
			err = invariantf("region %#x is empty", r.Base)
			return false
		}
		if !first && prevRegion.End() > r.Base {
			err = invariantf("regions %v and %v overlap", prevRegion.Range(), r.Range())
			return false
		}
		regionBytes += r.Size
		prevRegion, first = r, false
		return true
	})
	if err != nil {
		return err
	}
	if regionBytes != a.total {
		return invariantf("region total %d != tracked total %d", regionBytes, a.total)
	}

	free := a.FreeRanges()
	var freeBytes uint64
	for i, r := range free {
		if r.Size == 0 {
			return invariantf("free range at %#x is empty", r.Base)
		}
		if i > 0 && free[i-1].End() >= r.Base {
			return invariantf("free ranges %v and %v are not merged", free[i-1], r)
		}
		if !a.covered(r) {
			return invariantf("free range %v lies outside registered regions", r)
		}
		freeBytes += r.Size
	}
	if freeBytes != a.free.bytes {
		return invariantf("free range total %d != tracked free bytes %d", freeBytes, a.free.bytes)
	}

	allocs := a.Allocations()
	var allocBytes uint64
	for i, al := range allocs {
		if al.Size == 0 {
			return invariantf("allocation %d is empty", al.ID)
		}
		if al.Align == 0 || al.Base%al.Align != 0 {
			return invariantf("allocation %d at %#x is not aligned to %d", al.ID, al.Base, al.Align)
		}
		if i > 0 && allocs[i-1].End() > al.Base {
			return invariantf("allocations %d and %d overlap", allocs[i-1].ID, al.ID)
		}
		if !a.covered(al.Range()) {
			return invariantf("allocation %d %v lies outside registered regions", al.ID, al.Range())
		}
		if c, ok := a.free.floor(al.End() - 1); ok && c.Overlaps(al.Range()) {
			return invariantf("allocation %d %v overlaps free range %v", al.ID, al.Range(), c)
		}
		allocBytes += al.Size
	}
	if allocBytes != a.allocated {
		return invariantf("allocation total %d != tracked allocated bytes %d", allocBytes, a.allocated)
	}

	if allocBytes+freeBytes != regionBytes {
		return invariantf("allocated %d + free %d != registered %d", allocBytes, freeBytes, regionBytes)
	}
	return nil
}

// covered reports whether r lies inside a run of contiguous regions.
func (a *Allocator) covered(r Range) bool {
	pos := r.Base
	for {
		reg, ok := a.regionFloor(pos)
		if !ok || reg.End() <= pos {
			return false
		}
		if reg.End() >= r.End() {
			return true
		}
		pos = reg.End()
	}
}
