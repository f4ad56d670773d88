package alloc

import (
	"io"
	"log/slog"
	"os"

	"github.com/google/btree"
)

// Runtime debug logging for allocator calls - controlled by RANGEKIT_LOG_ALLOC env var.
var logAlloc = os.Getenv("RANGEKIT_LOG_ALLOC") != ""

// Allocator hands out aligned spans of registered address space.
type Allocator struct {
	cfg Config
	log *slog.Logger

	// Registered regions ordered by base address
	regions *btree.BTreeG[Region]

	// Free ranges ordered by base address, maximally merged
	free *freeList

	// Live allocations by caller ID
	live map[ID]Allocation

	total     uint64 // bytes across all regions
	allocated uint64 // bytes across all live allocations

	stats Stats
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithLogger routes allocator debug logs to l.
func WithLogger(l *slog.Logger) Option {
	return func(a *Allocator) {
		if l != nil {
			a.log = l
		}
	}
}

func lessRegion(a, b Region) bool { return a.Base < b.Base }

// New creates an empty allocator.
//
// Parameters:
//   - cfg: placement configuration (use nil for DefaultConfig)
//   - opts: optional settings such as WithLogger
//
// New panics if cfg fails Validate; configurations are programmer input.
func New(cfg *Config, opts ...Option) *Allocator {
	if cfg == nil {
		cfg = &DefaultConfig
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	a := &Allocator{
		cfg:     *cfg,
		regions: btree.NewG(btreeDegree, lessRegion),
		free:    newFreeList(),
		live:    make(map[ID]Allocation),
		stats:   newStats(),
	}
	if logAlloc {
		a.log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	} else {
		a.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Config returns the configuration the allocator was built with.
func (a *Allocator) Config() Config { return a.cfg }

// AddRegion registers [base, base+size) as free space.
func (a *Allocator) AddRegion(base, size uint64) error {
	return a.AddRegionTagged(base, size, "")
}

// AddRegionTagged registers [base, base+size) and attaches tag to it.
// Allocations placed in the region report the tag.
func (a *Allocator) AddRegionTagged(base, size uint64, tag string) error {
	a.stats.AddCalls++

	if size == 0 || !spanOK(base, size) {
		return a.fail(&AllocError{Op: "add", Base: base, Size: size, Err: ErrInvalidRegion})
	}
	span := Range{Base: base, Size: size}
	if prev, ok := a.regionFloor(base); ok && prev.End() > base {
		return a.fail(&AllocError{Op: "add", Base: base, Size: size, Err: ErrInvalidRegion})
	}
	if next, ok := a.regionCeil(base); ok && span.Overlaps(next.Range()) {
		return a.fail(&AllocError{Op: "add", Base: base, Size: size, Err: ErrInvalidRegion})
	}

	a.regions.ReplaceOrInsert(Region{Key: base, Base: base, Size: size, Tag: tag})
	a.total += size

	merged, left, right := a.free.release(span)
	if left {
		a.stats.RegionMerges++
	}
	if right {
		a.stats.RegionMerges++
	}

	a.log.Debug("add region",
		"base", base, "size", size, "tag", tag,
		"free_range", merged.String(), "free_bytes", a.free.bytes)
	return nil
}

// Allocate reserves size bytes aligned to align under id.
//
// The request is rounded up to the configured granule. The span starts at
// the lowest multiple of align inside the free range chosen by the policy.
// On failure nothing changes.
func (a *Allocator) Allocate(id ID, size, align uint64) (Allocation, error) {
	a.stats.AllocCalls++

	if !isPowerOfTwo(align) || (a.cfg.MaxAlign != 0 && align > a.cfg.MaxAlign) {
		return Allocation{}, a.fail(&AllocError{Op: "alloc", ID: id, Size: size, Align: align, Err: ErrInvalidAlignment})
	}
	if size == 0 {
		return Allocation{}, a.fail(&AllocError{Op: "alloc", ID: id, Size: size, Align: align, Err: ErrInvalidSize})
	}
	if _, ok := a.live[id]; ok {
		return Allocation{}, a.fail(&AllocError{Op: "alloc", ID: id, Size: size, Align: align, Err: ErrDuplicateID})
	}

	need, ok := alignUp(size, a.cfg.granule())
	if !ok {
		return Allocation{}, a.fail(&AllocError{Op: "alloc", ID: id, Size: size, Align: align, Err: ErrOutOfSpace})
	}

	cand, base, found := a.pick(need, align)
	if !found {
		return Allocation{}, a.fail(&AllocError{
			Op:              "alloc",
			ID:              id,
			Size:            size,
			Align:           align,
			Overconstrained: need <= a.free.bytes,
			Err:             ErrOutOfSpace,
		})
	}

	return a.commit(id, cand, Range{Base: base, Size: need}, size, align), nil
}

// AllocateAt reserves exactly [base, base+size) under id. The span is rounded
// up to the granule and must lie inside a single free range.
func (a *Allocator) AllocateAt(id ID, base, size uint64) (Allocation, error) {
	a.stats.AllocAtCalls++

	g := a.cfg.granule()
	if base&(g-1) != 0 {
		return Allocation{}, a.fail(&AllocError{Op: "alloc-at", ID: id, Base: base, Size: size, Align: g, Err: ErrInvalidAlignment})
	}
	if size == 0 {
		return Allocation{}, a.fail(&AllocError{Op: "alloc-at", ID: id, Base: base, Size: size, Err: ErrInvalidSize})
	}
	if _, ok := a.live[id]; ok {
		return Allocation{}, a.fail(&AllocError{Op: "alloc-at", ID: id, Base: base, Size: size, Err: ErrDuplicateID})
	}

	need, ok := alignUp(size, g)
	if !ok || !spanOK(base, need) {
		return Allocation{}, a.fail(&AllocError{Op: "alloc-at", ID: id, Base: base, Size: size, Err: ErrOutOfSpace})
	}
	span := Range{Base: base, Size: need}
	cand, found := a.free.containing(span)
	if !found {
		return Allocation{}, a.fail(&AllocError{Op: "alloc-at", ID: id, Base: base, Size: size, Err: ErrOutOfSpace})
	}

	return a.commit(id, cand, span, size, g), nil
}

// Free releases the allocation owned by id and merges its span with any
// free neighbours.
func (a *Allocator) Free(id ID) error {
	a.stats.FreeCalls++

	al, ok := a.live[id]
	if !ok {
		return a.fail(&AllocError{Op: "free", ID: id, Err: ErrUnknownID})
	}
	delete(a.live, id)
	a.allocated -= al.Size

	merged, left, right := a.free.release(al.Range())
	if left {
		a.stats.CoalesceBackward++
	}
	if right {
		a.stats.CoalesceForward++
	}
	a.stats.BytesFreed += al.Size

	a.log.Debug("free",
		"id", id, "base", al.Base, "size", al.Size,
		"free_range", merged.String(), "free_bytes", a.free.bytes)
	return nil
}

// pick finds the free range and aligned base for a request of need bytes.
func (a *Allocator) pick(need, align uint64) (Range, uint64, bool) {
	var (
		cand     Range
		base     uint64
		found    bool
		leftover uint64
	)
	a.free.ascend(func(r Range) bool {
		if r.Size < need {
			return true
		}
		b, ok := fits(r, need, align)
		if !ok {
			return true
		}
		if a.cfg.Policy == FirstFit {
			cand, base, found = r, b, true
			return false
		}
		if over := r.Size - need; !found || over < leftover {
			cand, base, found, leftover = r, b, true, over
		}
		return true
	})
	return cand, base, found
}

// commit turns span, carved from the free range c, into a live allocation.
func (a *Allocator) commit(id ID, c, span Range, requested, align uint64) Allocation {
	a.stats.Splits += a.free.carve(c, span)

	al := Allocation{
		ID:        id,
		Base:      span.Base,
		Size:      span.Size,
		Requested: requested,
		Align:     align,
	}
	if reg, ok := a.RegionOf(span.Base); ok {
		al.Region = reg.Key
		al.Tag = reg.Tag
	}
	a.live[id] = al
	a.allocated += al.Size

	a.stats.BytesAllocated += al.Size
	if a.allocated > a.stats.PeakAllocated {
		a.stats.PeakAllocated = a.allocated
	}

	a.log.Debug("alloc",
		"id", id, "base", al.Base, "size", al.Size, "align", align,
		"from", c.String(), "free_bytes", a.free.bytes)
	return al
}

// fail records a rejected call and returns err unchanged.
func (a *Allocator) fail(err *AllocError) error {
	kind := KindOf(err)
	a.stats.Failures[kind]++
	a.log.Debug("rejected",
		"op", err.Op, "kind", string(kind), "id", err.ID,
		"size", err.Size, "align", err.Align, "free_bytes", a.free.bytes,
		"overconstrained", err.Overconstrained)
	return err
}

// regionFloor returns the region with the greatest base <= addr.
func (a *Allocator) regionFloor(addr uint64) (Region, bool) {
	var out Region
	found := false
	a.regions.DescendLessOrEqual(Region{Base: addr}, func(r Region) bool {
		out, found = r, true
		return false
	})
	return out, found
}

// regionCeil returns the region with the smallest base >= addr.
func (a *Allocator) regionCeil(addr uint64) (Region, bool) {
	var out Region
	found := false
	a.regions.AscendGreaterOrEqual(Region{Base: addr}, func(r Region) bool {
		out, found = r, true
		return false
	})
	return out, found
}
