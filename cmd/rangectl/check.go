package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/joshuapare/rangekit/internal/harness"
)

func init() {
	rootCmd.AddCommand(newCheckCmd())
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <script>",
		Short: "Replay a script and verify allocator invariants after every op",
		Long: `The check command replays a script like run, and after every op walks
the allocator state to confirm that:

  - free ranges never overlap or touch
  - allocations are aligned and overlap nothing
  - allocated + free bytes equal registered bytes

Outcome mismatches are reported but only an invariant violation fails the
command.

Example:
  rangectl check ops.txt
  rangectl check ops.txt --config bestfit --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), args)
		},
	}
	return cmd
}

func runCheck(ctx context.Context, args []string) error {
	_, rep, err := replay(ctx, args[0], harness.Options{VerifyEach: true})
	if errors.Is(err, harness.ErrInvariant) {
		printInfo("\nInvariant check: ✗ FAILED after %d ops\n", rep.Executed)
		return err
	}
	if err != nil {
		return err
	}
	if err := printReport(args[0], rep); err != nil {
		return err
	}
	printInfo("Invariant check: ✓ held after each of %d ops\n", rep.Executed)
	return nil
}
