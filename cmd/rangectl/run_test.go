package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const matchingScript = `# two pages, one region
add 0 0 8192
alloc 1 4096 4096
alloc 2 4096 4096
alloc 3 1 4096 fail
free 1
alloc 4 4096 4096
`

const mismatchScript = `add 0 0 4096
alloc 1 8192 4096
free 9
`

func TestRunCommand(t *testing.T) {
	tests := []struct {
		name           string
		script         string
		config         string
		stop           bool
		wantJSON       bool
		wantErr        bool
		wantContain    []string
		wantNotContain []string
	}{
		{
			name:        "all outcomes match",
			script:      matchingScript,
			wantContain: []string{"Executed:      6 (5 succeeded, 1 failed)", "all outcomes match"},
		},
		{
			name:    "mismatches reported",
			script:  mismatchScript,
			wantErr: true,
			wantContain: []string{
				`line 2: "alloc 1 8192 4096" expected ok, got OutOfSpace`,
				`line 3: "free 9" expected ok, got UnknownIdError`,
				"MISMATCH",
			},
		},
		{
			name:           "stop at first mismatch",
			script:         mismatchScript,
			stop:           true,
			wantErr:        true,
			wantContain:    []string{"Mismatches (1)", "alloc 1 8192 4096"},
			wantNotContain: []string{"free 9"},
		},
		{
			name:        "page config rounds sizes",
			script:      "add 0 0 8192\nalloc 1 100 4096\nalloc 2 4096 4096\nalloc 3 1 4096 fail\n",
			config:      "page",
			wantContain: []string{"all outcomes match", "Allocated:     8192 bytes in 2 allocations"},
		},
		{
			name:        "json report",
			script:      mismatchScript,
			wantJSON:    true,
			wantErr:     true,
			wantContain: []string{`"ok": false`, `"got": "UnknownIdError"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			jsonOut = tt.wantJSON
			runStop = tt.stop
			if tt.config != "" {
				configName = tt.config
			}
			path := writeScript(t, tt.script)

			output, err := captureOutput(t, func() error {
				return runRun(context.Background(), []string{path})
			})

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			if tt.wantJSON {
				assertJSON(t, output)
			}
			assertContains(t, output, tt.wantContain)
			assertNotContains(t, output, tt.wantNotContain)
		})
	}
}

func TestRunCommand_BadInput(t *testing.T) {
	resetFlags()

	_, err := captureOutput(t, func() error {
		return runRun(context.Background(), []string{writeScript(t, "alloc 1 2\n")})
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")

	_, err = captureOutput(t, func() error {
		return runRun(context.Background(), []string{"/nonexistent/ops.txt"})
	})
	require.Error(t, err)

	configName = "huge"
	_, err = captureOutput(t, func() error {
		return runRun(context.Background(), []string{writeScript(t, matchingScript)})
	})
	require.Error(t, err)
}

func TestCheckCommand(t *testing.T) {
	resetFlags()
	path := writeScript(t, mismatchScript)

	output, err := captureOutput(t, func() error {
		return runCheck(context.Background(), []string{path})
	})
	require.NoError(t, err)
	assertContains(t, output, []string{"MISMATCH", "Invariant check: ✓ held after each of 3 ops"})
}

func TestStatsCommand(t *testing.T) {
	resetFlags()
	path := writeScript(t, matchingScript)

	t.Run("text", func(t *testing.T) {
		resetFlags()
		statsRanges = true
		output, err := captureOutput(t, func() error {
			return runStats(context.Background(), []string{path})
		})
		require.NoError(t, err)
		assertContains(t, output, []string{
			"=== ALLOCATOR STATISTICS (default, first-fit) ===",
			"Alloc calls:        4 (fixed: 0)",
			"OutOfSpace:",
			"Mismatches:         0",
			"id=2",
			"id=4",
		})
	})

	t.Run("json", func(t *testing.T) {
		resetFlags()
		jsonOut = true
		output, err := captureOutput(t, func() error {
			return runStats(context.Background(), []string{path})
		})
		require.NoError(t, err)
		got := assertJSON(t, output)
		assert.Equal(t, "default", got["config"])
		assert.Equal(t, float64(0), got["largest_free"])
		assert.NotContains(t, got, "free_ranges")
	})
}
