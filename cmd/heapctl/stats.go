package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/alloc"
	"github.com/joshuapare/heapkit/internal/format"
	"github.com/joshuapare/heapkit/trace"
)

var statsStopAt int

func init() {
	cmd := newStatsCmd()
	cmd.Flags().IntVar(&statsStopAt, "stop-at", 0, "Replay only the first N operations")
	addArenaFlags(cmd)
	rootCmd.AddCommand(cmd)
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <trace>",
		Short: "Show heap layout statistics after a replay",
		Long: `The stats command replays a trace (optionally only a prefix of it) and
reports the resulting heap: free-list lengths per size class, block counts,
and the largest free block.

Example:
  heapctl stats short1.rep
  heapctl stats --stop-at 500 --json random.rep`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyReplayFlags(cmd)
			return runStats(cmd, args[0])
		},
	}
	return cmd
}

// walkSummary aggregates an implicit-list walk.
type walkSummary struct {
	Blocks       int `json:"blocks"`
	Allocated    int `json:"allocated"`
	Free         int `json:"free"`
	FreeBytes    int `json:"free_bytes"`
	LargestFree  int `json:"largest_free"`
	MiniBlocks   int `json:"mini_blocks"`
	AllocatedMax int `json:"allocated_max"`
}

func summarizeBlocks(a *alloc.Allocator) *walkSummary {
	s := &walkSummary{}
	a.Walk(func(b alloc.BlockInfo) bool {
		s.Blocks++
		if b.Size == format.MiniBlockSize {
			s.MiniBlocks++
		}
		if b.Allocated {
			s.Allocated++
			s.AllocatedMax = max(s.AllocatedMax, b.Size)
		} else {
			s.Free++
			s.FreeBytes += b.Size
			s.LargestFree = max(s.LargestFree, b.Size)
		}
		return true
	})
	return s
}

func runStats(cmd *cobra.Command, path string) error {
	runs, err := replayAll(cmd.Context(), []string{path}, replayJob{
		opts:      trace.Options{Verify: cfg.Replay.Verify},
		truncate:  statsStopAt,
		wantShape: true,
	})
	if err != nil {
		return err
	}
	r := runs[0]
	if r.Err != nil {
		return r.Err
	}
	if jsonOut {
		return printJSON(r)
	}

	printInfo("%s\n", path)
	printInfo("%s", printer.Sprintf("  heap size:     %d bytes\n", r.Result.HeapSize))
	printInfo("%s", printer.Sprintf("  blocks:        %d (%d allocated, %d free, %d mini)\n",
		r.Blocks.Blocks, r.Blocks.Allocated, r.Blocks.Free, r.Blocks.MiniBlocks))
	printInfo("%s", printer.Sprintf("  free bytes:    %d (largest %d)\n", r.Blocks.FreeBytes, r.Blocks.LargestFree))
	printInfo("\n  Free lists:\n")
	printInfo("%s", printer.Sprintf("    %-14s %d\n", "mini (16)", r.Mini))
	lo := format.MinBlockSize
	for i, n := range r.Buckets {
		var label string
		if i == len(r.Buckets)-1 {
			label = printer.Sprintf(">= %d", lo)
		} else {
			hi := format.MinBlockSize << i
			label = printer.Sprintf("%d-%d", lo, hi)
			lo = hi + format.Alignment
		}
		if n > 0 || verbose {
			printInfo("%s", printer.Sprintf("    %-14s %d\n", label, n))
		}
	}
	return nil
}
