package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/rangekit/internal/gen"
	"github.com/joshuapare/rangekit/internal/script"
)

var (
	genSeed       int64
	genRegions    int
	genOps        int
	genOracle     string
	genAlign      string
	genFreeRatio  float64
	genMaxRegion  int
	genMaxGap     int
	genOutput     string
	genWithHeader bool
)

func init() {
	def := gen.DefaultOptions()
	cmd := newGenCmd()
	cmd.Flags().Int64Var(&genSeed, "seed", def.Seed, "Random seed")
	cmd.Flags().IntVar(&genRegions, "regions", def.Regions, "Number of regions to register")
	cmd.Flags().IntVar(&genOps, "ops", def.Ops, "Number of alloc/free steps")
	cmd.Flags().StringVar(&genOracle, "oracle", def.Oracle.String(), "Failure oracle (aggregate, exact)")
	cmd.Flags().StringVar(&genAlign, "align", joinAlignments(def.Alignments), "Comma-separated alignments to draw from")
	cmd.Flags().Float64Var(&genFreeRatio, "free-ratio", def.FreeRatio, "Probability a step frees a live allocation")
	cmd.Flags().IntVar(&genMaxRegion, "max-region-pages", def.MaxRegionPages, "Largest region size in pages")
	cmd.Flags().IntVar(&genMaxGap, "max-gap-pages", def.MaxGapPages, "Largest gap between regions in pages")
	cmd.Flags().StringVarP(&genOutput, "output", "o", "", "Write the script to this file instead of stdout")
	cmd.Flags().BoolVar(&genWithHeader, "header", false, "Prefix the script with a comment naming the generator settings")
	rootCmd.AddCommand(cmd)
}

func newGenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a random allocator script",
		Long: `The gen command writes a seeded random script. The same seed and flags
always produce the same script.

With --oracle aggregate an alloc line is marked "fail" when its size
exceeds the total free bytes. With --oracle exact the script is replayed
on a shadow allocator (using --config) and a line is marked "fail" exactly
when that allocator rejects it.

Example:
  rangectl gen --seed 7 --ops 500 > ops.txt
  rangectl gen --oracle exact --config page -o ops.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen()
		},
	}
	return cmd
}

func runGen() error {
	oracle, err := gen.ParseOracle(genOracle)
	if err != nil {
		return err
	}
	aligns, err := parseAlignments(genAlign)
	if err != nil {
		return err
	}
	cfg, err := allocatorConfig()
	if err != nil {
		return err
	}

	opts := gen.Options{
		Seed:           genSeed,
		Regions:        genRegions,
		Ops:            genOps,
		PageSize:       gen.DefaultOptions().PageSize,
		MaxRegionPages: genMaxRegion,
		MaxGapPages:    genMaxGap,
		Alignments:     aligns,
		FreeRatio:      genFreeRatio,
		Oracle:         oracle,
		Config:         &cfg,
	}
	ops, err := gen.Generate(opts)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if genOutput != "" {
		f, err := os.Create(genOutput)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	if genWithHeader {
		fmt.Fprintf(w, "%s seed=%d regions=%d ops=%d oracle=%s config=%s align=%s\n",
			script.CommentPrefix, genSeed, genRegions, genOps, oracle, cfg.Name, joinAlignments(aligns))
	}
	if err := script.Emit(w, ops); err != nil {
		return fmt.Errorf("failed to write script: %w", err)
	}

	if genOutput != "" {
		c := script.Count(ops)
		printVerbose("Wrote %d ops to %s (add %d, alloc %d [%d marked fail], free %d)\n",
			len(ops), genOutput, c.Add, c.Alloc, c.AllocFail, c.Free)
	}
	return nil
}

func parseAlignments(s string) ([]uint64, error) {
	var out []uint64
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.ParseUint(field, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid alignment %q: %w", field, err)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no alignments given")
	}
	return out, nil
}

func joinAlignments(aligns []uint64) string {
	parts := make([]string, len(aligns))
	for i, a := range aligns {
		parts[i] = strconv.FormatUint(a, 10)
	}
	return strings.Join(parts, ",")
}
