package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/rangekit/alloc"
	"github.com/joshuapare/rangekit/internal/harness"
	"github.com/joshuapare/rangekit/internal/logger"
	"github.com/joshuapare/rangekit/internal/script"
)

var (
	runStop     bool
	runEncoding string
	runMaxShown int
)

func init() {
	cmd := newRunCmd()
	cmd.Flags().BoolVar(&runStop, "stop", false, "Stop at the first mismatch")
	cmd.Flags().StringVar(&runEncoding, "encoding", "", "Script encoding when no BOM is present (UTF-8, UTF-16LE, UTF-16BE)")
	cmd.Flags().IntVar(&runMaxShown, "max-shown", 20, "Maximum mismatches to list (0 for all)")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Replay a script and compare outcomes",
		Long: `The run command replays every line of a script against a fresh
allocator and reports each op whose outcome differs from the script's
expectation. It exits non-zero when any mismatch is found.

Example:
  rangectl run ops.txt
  rangectl run ops.txt --config page --stop
  rangectl run ops.txt --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context(), args)
		},
	}
	return cmd
}

func runRun(ctx context.Context, args []string) error {
	_, rep, err := replay(ctx, args[0], harness.Options{StopOnMismatch: runStop})
	if err != nil {
		return err
	}
	if err := printReport(args[0], rep); err != nil {
		return err
	}
	if !rep.OK() {
		return fmt.Errorf("%d of %d ops did not match the script", len(rep.Mismatches), rep.Executed)
	}
	return nil
}

// replay parses the script at path and runs it on a fresh allocator built
// from the --config preset.
func replay(ctx context.Context, path string, opts harness.Options) (*alloc.Allocator, *harness.Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := allocatorConfig()
	if err != nil {
		return nil, nil, err
	}

	printVerbose("Parsing script: %s\n", path)
	ops, err := script.ParseFile(path, script.Options{InputEncoding: runEncoding})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse script: %w", err)
	}
	printVerbose("Replaying %d ops with config %q\n", len(ops), cfg.Name)

	opts.Logger = logger.L
	a := alloc.New(&cfg, alloc.WithLogger(logger.L))
	rep, err := harness.Run(ctx, a, ops, opts)
	if err != nil {
		return a, rep, err
	}
	logger.Info("replay finished",
		"script", path, "ops", rep.Executed, "mismatches", len(rep.Mismatches))
	return a, rep, nil
}

func printReport(path string, rep *harness.Report) error {
	if jsonOut {
		return printJSON(struct {
			Script string `json:"script"`
			Config string `json:"config"`
			OK     bool   `json:"ok"`
			*harness.Report
		}{Script: path, Config: configName, OK: rep.OK(), Report: rep})
	}

	printInfo("\nReplaying %s (config %s)\n\n", path, configName)
	printInfo("Ops:           %d (add %d, alloc %d [%d marked fail], free %d)\n",
		rep.Ops, rep.Counts.Add, rep.Counts.Alloc, rep.Counts.AllocFail, rep.Counts.Free)
	printInfo("Executed:      %d (%d succeeded, %d failed)\n", rep.Executed, rep.Succeeded, rep.Failed)
	printInfo("Registered:    %d bytes\n", rep.TotalBytes)
	printInfo("Free:          %d bytes in %d ranges\n", rep.FreeBytes, rep.FreeRanges)
	printInfo("Allocated:     %d bytes in %d allocations\n", rep.AllocatedBytes, rep.LiveAllocations)

	if rep.OK() {
		printInfo("\nResult: ✓ all outcomes match\n")
		return nil
	}

	printInfo("\nMismatches (%d):\n", len(rep.Mismatches))
	for i, m := range rep.Mismatches {
		if runMaxShown > 0 && i >= runMaxShown {
			printInfo("  ... %d more\n", len(rep.Mismatches)-i)
			break
		}
		printInfo("  ✗ %s\n", m)
		if m.Err != "" {
			printVerbose("      %s\n", m.Err)
		}
	}
	printInfo("\nResult: ✗ MISMATCH\n")
	return nil
}
