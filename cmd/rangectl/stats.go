package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/rangekit/alloc"
	"github.com/joshuapare/rangekit/internal/harness"
)

var statsRanges bool

func init() {
	cmd := newStatsCmd()
	cmd.Flags().BoolVar(&statsRanges, "ranges", false, "List free ranges and live allocations")
	rootCmd.AddCommand(cmd)
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <script>",
		Short: "Show allocator statistics after replaying a script",
		Long: `The stats command replays a script and prints the allocator's
counters: calls, range splits, coalesces and failures by kind.

Example:
  rangectl stats ops.txt
  rangectl stats ops.txt --ranges
  rangectl stats ops.txt --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context(), args)
		},
	}
	return cmd
}

type statsOutput struct {
	Script      string             `json:"script"`
	Config      string             `json:"config"`
	Stats       alloc.Stats        `json:"stats"`
	Regions     []alloc.Region     `json:"regions"`
	FreeRanges  []alloc.Range      `json:"free_ranges,omitempty"`
	Allocations []alloc.Allocation `json:"allocations,omitempty"`
	LargestFree uint64             `json:"largest_free"`
	Mismatches  int                `json:"mismatches"`
}

func runStats(ctx context.Context, args []string) error {
	a, rep, err := replay(ctx, args[0], harness.Options{})
	if err != nil {
		return err
	}

	if jsonOut {
		out := statsOutput{
			Script:      args[0],
			Config:      configName,
			Stats:       a.Stats(),
			Regions:     a.Regions(),
			LargestFree: a.LargestFree(),
			Mismatches:  len(rep.Mismatches),
		}
		if statsRanges {
			out.FreeRanges = a.FreeRanges()
			out.Allocations = a.Allocations()
		}
		return printJSON(out)
	}

	if !quiet {
		a.PrintStats(os.Stdout)
	}
	printInfo("Mismatches:         %d\n", len(rep.Mismatches))

	if statsRanges {
		printInfo("\nRegions:\n")
		for _, r := range a.Regions() {
			printInfo("  %v %d bytes %s\n", r.Range(), r.Size, r.Tag)
		}
		printInfo("\nFree ranges:\n")
		for _, r := range a.FreeRanges() {
			printInfo("  %v %d bytes\n", r, r.Size)
		}
		printInfo("\nAllocations:\n")
		for _, al := range a.Allocations() {
			printInfo("  id=%-6d %v %d bytes align=%d\n", al.ID, al.Range(), al.Size, al.Align)
		}
	}
	return nil
}
