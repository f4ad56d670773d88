package harness

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/rangekit/alloc"
	"github.com/joshuapare/rangekit/internal/gen"
	"github.com/joshuapare/rangekit/internal/script"
)

func parse(t *testing.T, text string) []script.Op {
	t.Helper()
	ops, err := script.Parse(strings.NewReader(text))
	require.NoError(t, err)
	return ops
}

func TestRun_AllMatch(t *testing.T) {
	ops := parse(t, `add 0 0 8192
alloc 1 4096 4096
alloc 2 4096 4096
alloc 3 1 4096 fail
free 1
alloc 4 4096 4096
`)
	a := alloc.New(nil)
	rep, err := Run(context.Background(), a, ops, Options{VerifyEach: true})
	require.NoError(t, err)

	assert.True(t, rep.OK(), "mismatches: %v", rep.Mismatches)
	assert.Equal(t, 6, rep.Executed)
	assert.Equal(t, 5, rep.Succeeded)
	assert.Equal(t, 1, rep.Failed)
	assert.Equal(t, uint64(8192), rep.TotalBytes)
	assert.Zero(t, rep.FreeBytes)
	assert.Equal(t, 2, rep.LiveAllocations)

	al, ok := a.Lookup(4)
	require.True(t, ok)
	assert.Equal(t, uint64(0), al.Base)
}

func TestRun_Mismatches(t *testing.T) {
	ops := parse(t, `add 4096 4096 8192
alloc 1 4096 4096 fail
alloc 2 100000 4096
alloc 3 4096 12288
free 9
`)
	rep, err := Run(context.Background(), alloc.New(nil), ops, Options{})
	require.NoError(t, err)
	require.False(t, rep.OK())
	require.Len(t, rep.Mismatches, 4)

	want := []struct {
		line     int
		expected alloc.ErrorKind
		got      alloc.ErrorKind
	}{
		{2, alloc.KindOutOfSpace, alloc.KindNone},
		{3, alloc.KindNone, alloc.KindOutOfSpace},
		{4, alloc.KindNone, alloc.KindInvalidAlignment},
		{5, alloc.KindNone, alloc.KindUnknownID},
	}
	for i, w := range want {
		m := rep.Mismatches[i]
		assert.Equal(t, w.line, m.Line)
		assert.Equal(t, w.expected, m.Expected)
		assert.Equal(t, w.got, m.Got)
	}
	assert.Empty(t, rep.Mismatches[0].Err)
	assert.Contains(t, rep.Mismatches[3].Err, "unknown id")
	assert.Equal(t, `line 5: "free 9" expected ok, got UnknownIdError`, rep.Mismatches[3].String())
}

func TestRun_StopOnMismatch(t *testing.T) {
	ops := parse(t, `add 0 0 4096
alloc 1 8192 4096
alloc 2 4096 4096
`)
	rep, err := Run(context.Background(), alloc.New(nil), ops, Options{StopOnMismatch: true})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Executed)
	assert.Len(t, rep.Mismatches, 1)
	assert.Equal(t, uint64(4096), rep.FreeBytes)
}

func TestRun_RegionKeyBecomesTag(t *testing.T) {
	ops := parse(t, "add 7 4096 4096\nalloc 1 16 16\n")
	a := alloc.New(nil)
	_, err := Run(context.Background(), a, ops, Options{})
	require.NoError(t, err)

	al, ok := a.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, "key=7", al.Tag)
}

func TestRun_ContextCancelled(t *testing.T) {
	ops := parse(t, "add 0 0 4096\nalloc 1 16 16\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := Run(ctx, alloc.New(nil), ops, Options{})
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, rep)
	assert.Zero(t, rep.Executed)
}

// TestRun_ExactOracleScripts replays generated scripts whose expectations
// come from a shadow allocator with the same configuration.
func TestRun_ExactOracleScripts(t *testing.T) {
	for _, cfg := range alloc.Configs {
		for seed := int64(1); seed <= 10; seed++ {
			opts := gen.DefaultOptions()
			opts.Seed = seed
			opts.Ops = 400
			opts.Oracle = gen.Exact
			opts.Config = &cfg

			ops, err := gen.Generate(opts)
			require.NoError(t, err)

			rep, err := Run(context.Background(), alloc.New(&cfg), ops, Options{VerifyEach: true})
			require.NoError(t, err)
			assert.True(t, rep.OK(), "config=%s seed=%d mismatches=%v", cfg.Name, seed, rep.Mismatches)
		}
	}
}

// TestRun_AggregateOracleScripts replays reference-style scripts. Failures
// the aggregate oracle predicts must always happen. Fragmentation can make a
// request the oracle expects to succeed fail; after that the script's
// bookkeeping no longer matches the allocator, so the run stops there.
func TestRun_AggregateOracleScripts(t *testing.T) {
	for seed := int64(1); seed <= 10; seed++ {
		opts := gen.DefaultOptions()
		opts.Seed = seed

		ops, err := gen.Generate(opts)
		require.NoError(t, err)

		rep, err := Run(context.Background(), alloc.New(nil), ops, Options{VerifyEach: true, StopOnMismatch: true})
		require.NoError(t, err)
		if rep.OK() {
			assert.Equal(t, len(ops), rep.Executed)
			continue
		}
		m := rep.Mismatches[0]
		assert.Equal(t, alloc.KindNone, m.Expected, "seed=%d %v", seed, m)
		assert.Equal(t, alloc.KindOutOfSpace, m.Got, "seed=%d %v", seed, m)
	}
}
