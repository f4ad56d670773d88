// Package gen produces randomized allocator scripts from an explicit seed.
//
// Regions are laid out in ascending address order with random gaps, then
// shuffled before registration. Each following step either frees a random
// live allocation or requests a new one whose size may exceed what is free,
// in which case the line is marked "fail".
package gen

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/joshuapare/rangekit/alloc"
	"github.com/joshuapare/rangekit/internal/script"
)

// Oracle decides which alloc lines are expected to fail.
type Oracle uint8

const (
	// Aggregate marks a request as failing when it exceeds the total free
	// bytes. It ignores fragmentation and alignment padding.
	Aggregate Oracle = iota
	// Exact replays every step on a shadow allocator and marks a request as
	// failing exactly when the shadow rejects it.
	Exact
)

func (o Oracle) String() string {
	switch o {
	case Aggregate:
		return "aggregate"
	case Exact:
		return "exact"
	default:
		return fmt.Sprintf("Oracle(%d)", uint8(o))
	}
}

// ParseOracle maps "aggregate" or "exact" onto an Oracle.
func ParseOracle(name string) (Oracle, error) {
	switch name {
	case "aggregate":
		return Aggregate, nil
	case "exact":
		return Exact, nil
	}
	return 0, fmt.Errorf("unknown oracle %q (must be aggregate or exact)", name)
}

// Options configures a generated script.
type Options struct {
	Seed           int64
	Regions        int      // number of regions
	Ops            int      // number of alloc/free steps
	PageSize       uint64   // region bases, sizes and gaps are multiples of this
	MaxRegionPages int      // region size is 2..MaxRegionPages pages
	MaxGapPages    int      // gap after each region is 0..MaxGapPages pages
	Alignments     []uint64 // alignment of each request is picked from these
	FreeRatio      float64  // probability a step frees when something is live
	Oracle         Oracle

	// Config is the shadow allocator configuration for the Exact oracle.
	// nil means alloc.DefaultConfig.
	Config *alloc.Config
}

// DefaultOptions returns the settings of the reference generator, with the
// non power-of-two alignment replaced by 16384.
func DefaultOptions() Options {
	return Options{
		Seed:           201,
		Regions:        6,
		Ops:            200,
		PageSize:       alloc.BasePageSize,
		MaxRegionPages: 128,
		MaxGapPages:    128,
		Alignments:     []uint64{4096, 8192, 16384},
		FreeRatio:      0.5,
		Oracle:         Aggregate,
	}
}

// Validate checks the options for values the generator cannot honour.
func (o Options) Validate() error {
	switch {
	case o.Regions <= 0:
		return errors.New("gen: need at least one region")
	case o.Ops < 0:
		return errors.New("gen: negative op count")
	case o.PageSize == 0:
		return errors.New("gen: page size must be positive")
	case o.MaxRegionPages < 2:
		return errors.New("gen: max region pages must be at least 2")
	case o.MaxGapPages < 0:
		return errors.New("gen: negative max gap pages")
	case len(o.Alignments) == 0:
		return errors.New("gen: need at least one alignment")
	case o.FreeRatio < 0 || o.FreeRatio > 1:
		return errors.New("gen: free ratio must be within [0, 1]")
	case o.Oracle != Aggregate && o.Oracle != Exact:
		return fmt.Errorf("gen: unknown oracle %v", o.Oracle)
	}
	for _, a := range o.Alignments {
		if a == 0 || a&(a-1) != 0 {
			return fmt.Errorf("gen: alignment %d is not a power of two", a)
		}
	}
	return nil
}

// Generate builds a script from opts.
func Generate(opts Options) ([]script.Op, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	g := &generator{
		opts: opts,
		rng:  rand.New(rand.NewSource(opts.Seed)),
		live: make(map[uint64]uint64),
	}
	if opts.Oracle == Exact {
		g.shadow = alloc.New(opts.Config)
	}
	if err := g.addRegions(); err != nil {
		return nil, err
	}
	for range opts.Ops {
		if err := g.step(); err != nil {
			return nil, err
		}
	}
	return g.ops, nil
}

type generator struct {
	opts   Options
	rng    *rand.Rand
	shadow *alloc.Allocator

	ops       []script.Op
	free      uint64            // free bytes under the aggregate model
	live      map[uint64]uint64 // id -> size of allocations expected to succeed
	liveOrder []uint64          // ids in live, for deterministic picks
	nextID    uint64
}

// between returns a uniformly random integer in [lo, hi].
func (g *generator) between(lo, hi uint64) uint64 {
	return lo + uint64(g.rng.Int63n(int64(hi-lo+1)))
}

func (g *generator) addRegions() error {
	page := g.opts.PageSize
	base := g.between(2, 1<<20) * page

	regions := make([]alloc.Range, 0, g.opts.Regions)
	for range g.opts.Regions {
		size := g.between(2, uint64(g.opts.MaxRegionPages)) * page
		gap := g.between(0, uint64(g.opts.MaxGapPages)) * page
		regions = append(regions, alloc.Range{Base: base, Size: size})
		base += size + gap
	}
	g.rng.Shuffle(len(regions), func(i, j int) {
		regions[i], regions[j] = regions[j], regions[i]
	})

	for _, r := range regions {
		if g.shadow != nil {
			if err := g.shadow.AddRegion(r.Base, r.Size); err != nil {
				return fmt.Errorf("gen: shadow add: %w", err)
			}
		}
		g.ops = append(g.ops, script.OpAdd{Key: r.Base, Base: r.Base, Size: r.Size})
		g.free += r.Size
	}
	return nil
}

func (g *generator) step() error {
	if len(g.liveOrder) > 0 && g.rng.Float64() < g.opts.FreeRatio {
		return g.freeOne()
	}
	return g.allocOne()
}

func (g *generator) freeOne() error {
	i := g.rng.Intn(len(g.liveOrder))
	id := g.liveOrder[i]
	g.liveOrder[i] = g.liveOrder[len(g.liveOrder)-1]
	g.liveOrder = g.liveOrder[:len(g.liveOrder)-1]

	if g.shadow != nil {
		if err := g.shadow.Free(id); err != nil {
			return fmt.Errorf("gen: shadow free: %w", err)
		}
	}
	g.free += g.live[id]
	delete(g.live, id)
	g.ops = append(g.ops, script.OpFree{ID: id})
	return nil
}

func (g *generator) allocOne() error {
	g.nextID++
	id := g.nextID
	size := g.between(1, g.free+g.opts.PageSize)
	align := g.opts.Alignments[g.rng.Intn(len(g.opts.Alignments))]

	var fail bool
	if g.shadow != nil {
		_, err := g.shadow.Allocate(id, size, align)
		switch {
		case errors.Is(err, alloc.ErrOutOfSpace):
			fail = true
		case err != nil:
			return fmt.Errorf("gen: shadow alloc: %w", err)
		}
	} else {
		fail = size > g.free
	}

	if !fail {
		g.live[id] = size
		g.liveOrder = append(g.liveOrder, id)
		g.free -= g.allocated(id, size)
	}
	g.ops = append(g.ops, script.OpAlloc{ID: id, Size: size, Align: align, ExpectFail: fail})
	return nil
}

// allocated returns the bytes a successful request takes from free space.
func (g *generator) allocated(id, size uint64) uint64 {
	if g.shadow != nil {
		if al, ok := g.shadow.Lookup(id); ok {
			g.live[id] = al.Size
			return al.Size
		}
	}
	return size
}
