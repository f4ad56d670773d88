// Package alloc provides a range allocator for physical address space.
//
// # Overview
//
// An Allocator owns a set of registered regions, each a contiguous span of
// addresses. Inside the union of those regions it tracks which sub-ranges are
// free and which are owned by a caller-supplied ID. Free ranges are kept in a
// B-tree ordered by base address and are merged eagerly, so at rest no two
// free ranges touch.
//
// # Operations
//
//   - AddRegion(base, size): register [base, base+size) as free space
//   - Allocate(id, size, align): carve an aligned span out of free space
//   - AllocateAt(id, base, size): claim an exact span
//   - Free(id): return a span and coalesce it with its neighbours
//
// Every operation is all-or-nothing. A failed call returns an *AllocError that
// unwraps to one of the sentinel errors (ErrInvalidRegion, ErrInvalidAlignment,
// ErrInvalidSize, ErrOutOfSpace, ErrDuplicateID, ErrUnknownID) and leaves the
// allocator exactly as it was.
//
// # Placement
//
// The default policy is first-fit in ascending base-address order. Within the
// chosen free range the allocation starts at the lowest address that is a
// multiple of the requested alignment:
//
//	a := alloc.New(nil)
//	if err := a.AddRegion(0, 8192); err != nil {
//	    return err
//	}
//	x, _ := a.Allocate(1, 4096, 4096) // x.Base == 0
//	y, _ := a.Allocate(2, 4096, 4096) // y.Base == 4096
//	_ = a.Free(1)
//	z, _ := a.Allocate(3, 4096, 4096) // z.Base == 0 again
//
// BestFitConfig selects the free range with the smallest leftover instead.
//
// # Adjacent Regions
//
// Regions that touch are treated as one span of free space: their free ranges
// merge, and an allocation may straddle the boundary. Allocation.Region
// reports the region that contains the allocation's base address.
//
// # Thread Safety
//
// Allocator instances are not thread-safe. Callers must serialize access.
package alloc
