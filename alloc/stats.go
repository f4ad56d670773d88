package alloc

import (
	"fmt"
	"io"
	"maps"
	"slices"
)

// Stats holds allocator counters for testing and instrumentation.
type Stats struct {
	AddCalls     int // AddRegion calls, including rejected ones
	AllocCalls   int // Allocate calls, including rejected ones
	AllocAtCalls int // AllocateAt calls, including rejected ones
	FreeCalls    int // Free calls, including rejected ones

	Splits           int // leftover free ranges created by allocations
	CoalesceForward  int // frees merged with the free range after them
	CoalesceBackward int // frees merged with the free range before them
	RegionMerges     int // new regions merged with an adjacent free range

	BytesAllocated uint64 // cumulative bytes handed out
	BytesFreed     uint64 // cumulative bytes returned
	PeakAllocated  uint64 // high-water mark of live bytes

	// Failures counts rejected calls by kind.
	Failures map[ErrorKind]int
}

func newStats() Stats {
	return Stats{Failures: make(map[ErrorKind]int)}
}

// Stats returns a copy of the allocator counters.
func (a *Allocator) Stats() Stats {
	s := a.stats
	s.Failures = maps.Clone(a.stats.Failures)
	return s
}

// TotalFailures sums Failures over every kind.
func (s Stats) TotalFailures() int {
	n := 0
	for _, c := range s.Failures {
		n += c
	}
	return n
}

// FreeBytes returns the number of bytes not currently allocated.
func (a *Allocator) FreeBytes() uint64 { return a.free.bytes }

// TotalBytes returns the number of bytes across all registered regions.
func (a *Allocator) TotalBytes() uint64 { return a.total }

// AllocatedBytes returns the number of bytes held by live allocations.
func (a *Allocator) AllocatedBytes() uint64 { return a.allocated }

// LargestFree returns the size of the biggest free range.
func (a *Allocator) LargestFree() uint64 { return a.free.largest() }

// NumFreeRanges returns the number of free ranges.
func (a *Allocator) NumFreeRanges() int { return a.free.Len() }

// NumAllocations returns the number of live allocations.
func (a *Allocator) NumAllocations() int { return len(a.live) }

// FreeRanges returns the free ranges in ascending address order.
func (a *Allocator) FreeRanges() []Range {
	out := make([]Range, 0, a.free.Len())
	a.free.ascend(func(r Range) bool {
		out = append(out, r)
		return true
	})
	return out
}

// Regions returns the registered regions in ascending address order.
func (a *Allocator) Regions() []Region {
	out := make([]Region, 0, a.regions.Len())
	a.regions.Ascend(func(r Region) bool {
		out = append(out, r)
		return true
	})
	return out
}

// Allocations returns the live allocations in ascending address order.
func (a *Allocator) Allocations() []Allocation {
	out := slices.Collect(maps.Values(a.live))
	slices.SortFunc(out, func(x, y Allocation) int {
		switch {
		case x.Base < y.Base:
			return -1
		case x.Base > y.Base:
			return 1
		}
		return 0
	})
	return out
}

// Lookup returns the live allocation owned by id.
func (a *Allocator) Lookup(id ID) (Allocation, bool) {
	al, ok := a.live[id]
	return al, ok
}

// RegionOf returns the region that contains addr.
func (a *Allocator) RegionOf(addr uint64) (Region, bool) {
	r, ok := a.regionFloor(addr)
	if !ok || addr >= r.End() {
		return Region{}, false
	}
	return r, true
}

// PrintStats writes allocator statistics to w.
func (a *Allocator) PrintStats(w io.Writer) {
	s := a.stats
	fmt.Fprintf(w, "\n=== ALLOCATOR STATISTICS (%s, %v) ===\n", a.cfg.Name, a.cfg.Policy)
	fmt.Fprintf(w, "Regions:            %d (%d bytes)\n", a.regions.Len(), a.total)
	fmt.Fprintf(w, "Free:               %d bytes in %d ranges (largest %d)\n",
		a.free.bytes, a.free.Len(), a.free.largest())
	fmt.Fprintf(w, "Allocated:          %d bytes in %d allocations (peak %d)\n",
		a.allocated, len(a.live), s.PeakAllocated)
	fmt.Fprintf(w, "Add calls:          %d\n", s.AddCalls)
	fmt.Fprintf(w, "Alloc calls:        %d (fixed: %d)\n", s.AllocCalls, s.AllocAtCalls)
	fmt.Fprintf(w, "Free calls:         %d\n", s.FreeCalls)
	fmt.Fprintf(w, "Range splits:       %d\n", s.Splits)
	fmt.Fprintf(w, "Coalesce fwd:       %d\n", s.CoalesceForward)
	fmt.Fprintf(w, "Coalesce back:      %d\n", s.CoalesceBackward)
	fmt.Fprintf(w, "Region merges:      %d\n", s.RegionMerges)

	if len(s.Failures) > 0 {
		fmt.Fprintf(w, "\nFailures:\n")
		kinds := slices.Sorted(maps.Keys(s.Failures))
		for _, k := range kinds {
			fmt.Fprintf(w, "  %-18s %d\n", string(k)+":", s.Failures[k])
		}
	}
	fmt.Fprintf(w, "====================================\n")
}
