package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestAllocator creates an allocator with the given regions registered.
// Pass nil cfg for DefaultConfig.
func newTestAllocator(t testing.TB, cfg *Config, regions ...Range) *Allocator {
	t.Helper()
	a := New(cfg)
	for _, r := range regions {
		require.NoError(t, a.AddRegion(r.Base, r.Size))
	}
	return a
}

// mustAlloc allocates and fails the test on error.
func mustAlloc(t testing.TB, a *Allocator, id ID, size, align uint64) Allocation {
	t.Helper()
	al, err := a.Allocate(id, size, align)
	require.NoError(t, err, "alloc id=%d size=%d align=%d", id, size, align)
	return al
}

// requireVerified fails the test if any allocator invariant is broken.
func requireVerified(t testing.TB, a *Allocator) {
	t.Helper()
	require.NoError(t, a.Verify())
}

// snapshot captures the externally visible allocator state.
type snapshot struct {
	free   []Range
	allocs []Allocation
	bytes  uint64
}

func takeSnapshot(a *Allocator) snapshot {
	return snapshot{free: a.FreeRanges(), allocs: a.Allocations(), bytes: a.FreeBytes()}
}
