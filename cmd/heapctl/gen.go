package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/trace"
)

var (
	genOps     int
	genSeed    int64
	genMaxSize uint64
	genMaxLive int
	genOutput  string
)

func init() {
	cmd := newGenCmd()
	cmd.Flags().IntVarP(&genOps, "ops", "n", 10000, "Operations before the final release sweep")
	cmd.Flags().Int64Var(&genSeed, "seed", 1, "Random seed")
	cmd.Flags().Uint64Var(&genMaxSize, "max-size", 16<<10, "Largest single request in bytes")
	cmd.Flags().IntVar(&genMaxLive, "max-live", 512, "Most ids live at once")
	cmd.Flags().StringVarP(&genOutput, "output", "o", "", "Output file (default stdout)")
	rootCmd.AddCommand(cmd)
}

func newGenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a random allocation trace",
		Long: `The gen command writes a random trace mixing mini, small, and large
requests with resizes and zero-allocations. Every id is released at the end.

Example:
  heapctl gen --ops 50000 --seed 7 -o random.rep`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen()
		},
	}
	return cmd
}

func runGen() error {
	t := trace.Generate(trace.GenOptions{
		Ops:     genOps,
		Seed:    genSeed,
		MaxSize: genMaxSize,
		MaxLive: genMaxLive,
	})
	if genOutput == "" {
		return trace.Write(out, t)
	}
	if err := trace.WriteFile(genOutput, t); err != nil {
		return err
	}
	printVerbose("Wrote %d operations to %s\n", len(t.Ops), genOutput)
	return nil
}
