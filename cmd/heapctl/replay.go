package main

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joshuapare/heapkit/alloc"
	"github.com/joshuapare/heapkit/metrics"
	"github.com/joshuapare/heapkit/trace"
)

var (
	replayWorkers   int
	replayVerify    bool
	replayCheck     bool
	replayMetrics   bool
	replayProvider  string
	replayMaxHeap   int
	replayChunkSize int
)

func init() {
	cmd := newReplayCmd()
	cmd.Flags().IntVarP(&replayWorkers, "workers", "w", 0, "Traces replayed concurrently (default from config)")
	cmd.Flags().BoolVar(&replayVerify, "verify", true, "Verify payloads, alignment, and overlap")
	cmd.Flags().BoolVar(&replayCheck, "check", false, "Run the heap consistency checker after every operation")
	cmd.Flags().BoolVar(&replayMetrics, "metrics", false, "Print Prometheus metrics for each trace")
	addArenaFlags(cmd)
	rootCmd.AddCommand(cmd)
}

// addArenaFlags registers the allocator and arena overrides shared by
// every replaying command.
func addArenaFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&replayProvider, "provider", "", "Arena provider: slice or mmap")
	cmd.Flags().IntVar(&replayMaxHeap, "max-heap", 0, "Arena growth limit in bytes")
	cmd.Flags().IntVar(&replayChunkSize, "chunk-size", 0, "Minimum arena extension in bytes")
}

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <trace>...",
		Short: "Replay allocation traces",
		Long: `The replay command runs each trace against a fresh allocator and
reports operation counts, peak live payload, final heap size, utilization,
and time. Traces run concurrently on a worker pool.

Example:
  heapctl replay traces/*.rep
  heapctl replay --workers 8 --json traces/*.rep
  heapctl replay --check --provider mmap short1.rep`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyReplayFlags(cmd)
			return runReplay(cmd.Context(), args, trace.Options{
				Verify: cfg.Replay.Verify,
				Check:  replayCheck || cfg.Allocator.Check,
			})
		},
	}
	return cmd
}

// applyReplayFlags folds explicitly set flags over the loaded config.
func applyReplayFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	if f.Changed("workers") {
		cfg.Replay.Workers = replayWorkers
	}
	if f.Changed("verify") {
		cfg.Replay.Verify = replayVerify
	}
	if f.Changed("provider") {
		cfg.Arena.Provider = replayProvider
	}
	if f.Changed("max-heap") {
		cfg.Arena.MaxHeap = replayMaxHeap
	}
	if f.Changed("chunk-size") {
		cfg.Allocator.ChunkSize = replayChunkSize
	}
}

// traceRun is the outcome of one trace.
type traceRun struct {
	Path    string       `json:"path"`
	Result  trace.Result `json:"result"`
	Metrics string       `json:"metrics,omitempty"`
	Err     error        `json:"-"`
	Error   string       `json:"error,omitempty"`

	// Free-list shape after the run, filled when requested.
	Buckets []int        `json:"buckets,omitempty"`
	Mini    int          `json:"mini,omitempty"`
	Blocks  *walkSummary `json:"blocks,omitempty"`
}

type replayJob struct {
	opts      trace.Options
	truncate  int
	wantShape bool
}

// replayAll runs every path on an ants pool and returns the runs in
// argument order.
func replayAll(ctx context.Context, paths []string, job replayJob) ([]traceRun, error) {
	workers := max(cfg.Replay.Workers, 1)
	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(v any) {
		logger.Error("replay worker panicked", zap.Any("panic", v))
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to start worker pool: %w", err)
	}
	defer pool.Release()

	runs := make([]traceRun, len(paths))
	var wg sync.WaitGroup
	for i, path := range paths {
		runs[i].Path = path
		wg.Add(1)
		run := &runs[i]
		submitErr := pool.Submit(func() {
			defer wg.Done()
			defer func() {
				// Surface worker panics as errors for this trace only.
				if v := recover(); v != nil {
					if ce, ok := v.(*alloc.ConsistencyError); ok {
						run.Err = fmt.Errorf("%w: %w", trace.ErrInconsistent, ce)
						return
					}
					logger.Error("replay worker panicked", zap.String("trace", run.Path), zap.Any("panic", v))
					run.Err = fmt.Errorf("replay panicked: %v", v)
				}
			}()
			replayTrace(ctx, run, job)
		})
		if submitErr != nil {
			wg.Done()
			runs[i].Err = submitErr
		}
	}
	wg.Wait()

	for i := range runs {
		if runs[i].Err != nil {
			runs[i].Error = runs[i].Err.Error()
		}
	}
	return runs, nil
}

// replayTrace replays one trace inside a pool worker.
var replayTrace = replayOne

func replayOne(ctx context.Context, run *traceRun, job replayJob) {
	t, err := trace.ParseFile(run.Path)
	if err != nil {
		run.Err = err
		return
	}
	if job.truncate > 0 && job.truncate < len(t.Ops) {
		t.Ops = t.Ops[:job.truncate]
	}

	p, err := cfg.newProvider()
	if err != nil {
		run.Err = err
		return
	}
	defer p.Close()

	a, err := alloc.New(p, cfg.allocOptions())
	if err != nil {
		run.Err = err
		return
	}

	opts := job.opts
	opts.Logger = logger.Named("replay")
	res, err := trace.NewReplayer(a, opts).Run(ctx, t)
	run.Result = res
	if err != nil {
		run.Err = err
		return
	}
	logger.Info("trace replayed",
		zap.String("trace", t.Name),
		zap.Int("ops", res.Ops),
		zap.Float64("utilization", res.Utilization),
		zap.Duration("elapsed", res.Elapsed))

	if job.wantShape {
		run.Buckets, run.Mini = a.FreeListLengths()
		run.Blocks = summarizeBlocks(a)
	}
	if replayMetrics {
		text, err := exportMetrics(a, t.Name)
		if err != nil {
			run.Err = err
			return
		}
		run.Metrics = text
	}
}

// exportMetrics renders a's counters in the Prometheus text format.
func exportMetrics(a *alloc.Allocator, name string) (string, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(metrics.NewCollector(a, name)); err != nil {
		return "", err
	}
	families, err := reg.Gather()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func runReplay(ctx context.Context, paths []string, opts trace.Options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	printVerbose("Replaying %d trace(s) with %d worker(s)\n", len(paths), max(cfg.Replay.Workers, 1))

	runs, err := replayAll(ctx, paths, replayJob{opts: opts})
	if err != nil {
		return err
	}
	if jsonOut {
		if err := printJSON(runs); err != nil {
			return err
		}
	} else {
		printRuns(runs)
	}
	return firstError(runs)
}

// firstError summarizes failed runs as one error.
func firstError(runs []traceRun) error {
	failed := 0
	var first error
	for _, r := range runs {
		if r.Err != nil {
			failed++
			if first == nil {
				first = fmt.Errorf("%s: %w", r.Path, r.Err)
			}
		}
	}
	if failed == 0 {
		return nil
	}
	if failed == 1 {
		return first
	}
	return fmt.Errorf("%d traces failed; first: %w", failed, first)
}
