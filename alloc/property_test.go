package alloc

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestProperty_RandomAllocFree performs random alloc/free and validates
// invariants after every step.
func TestProperty_RandomAllocFree(t *testing.T) {
	for _, cfg := range Configs {
		t.Run(cfg.Name, func(t *testing.T) {
			runRandomAllocFree(t, cfg, 42, 2000)
		})
	}
}

func runRandomAllocFree(t *testing.T, cfg Config, seed int64, steps int) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed)) // Fixed seed for reproducibility

	a := New(&cfg)
	base := uint64(0x100000)
	for i := range 6 {
		size := uint64(2+rng.Intn(127)) * BasePageSize
		require.NoError(t, a.AddRegion(base, size))
		base += size
		if i%2 == 0 {
			// Every other region is followed by a gap.
			base += uint64(1+rng.Intn(128)) * BasePageSize
		}
	}
	requireVerified(t, a)

	var live []ID
	next := ID(1)
	for step := range steps {
		if len(live) > 0 && rng.Intn(2) == 0 {
			i := rng.Intn(len(live))
			require.NoError(t, a.Free(live[i]), "step %d", step)
			live[i] = live[len(live)-1]
			live = live[:len(live)-1]
		} else {
			size := uint64(1 + rng.Intn(64*BasePageSize))
			align := uint64(1) << rng.Intn(16)
			need, _ := alignUp(size, cfg.granule())
			freeBefore := a.FreeBytes()

			al, err := a.Allocate(next, size, align)
			if err != nil {
				require.ErrorIs(t, err, ErrOutOfSpace, "step %d", step)
				var ae *AllocError
				require.ErrorAs(t, err, &ae)
				require.Equal(t, need <= freeBefore, ae.Overconstrained, "step %d", step)
				require.Equal(t, freeBefore, a.FreeBytes(), "step %d: failed alloc changed state", step)
			} else {
				require.LessOrEqual(t, need, freeBefore, "step %d", step)
				require.Zero(t, al.Base%align, "step %d", step)
				require.Equal(t, need, al.Size, "step %d", step)
				live = append(live, next)
			}
			next++
		}

		require.NoError(t, a.Verify(), "step %d", step)
		require.Equal(t, a.TotalBytes(), a.FreeBytes()+a.AllocatedBytes(), "step %d", step)
	}

	for _, id := range live {
		require.NoError(t, a.Free(id))
	}
	requireVerified(t, a)
	require.Equal(t, a.TotalBytes(), a.FreeBytes())
	require.Zero(t, a.NumAllocations())
}

// TestProperty_Determinism checks that two allocators fed the same sequence
// place every allocation at the same address.
func TestProperty_Determinism(t *testing.T) {
	run := func() []uint64 {
		rng := rand.New(rand.NewSource(7))
		a := newTestAllocator(t, nil, Range{Base: 0x200000, Size: 1 << 22})
		var bases []uint64
		for id := ID(1); id <= 200; id++ {
			if id%3 == 0 {
				_ = a.Free(id - 1)
				continue
			}
			al, err := a.Allocate(id, uint64(1+rng.Intn(1<<14)), uint64(1)<<rng.Intn(13))
			if err == nil {
				bases = append(bases, al.Base)
			}
		}
		return bases
	}
	require.Equal(t, run(), run())
}
