package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/trace"
)

func init() {
	cmd := newCheckCmd()
	addArenaFlags(cmd)
	rootCmd.AddCommand(cmd)
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <trace>",
		Short: "Replay a trace with heap consistency checks after every operation",
		Long: `The check command replays a trace with payload verification and runs
the heap consistency checker after every operation. It exits non-zero at the
first violation and names the invariant, block offset, and trace line.

Example:
  heapctl check short1.rep`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyReplayFlags(cmd)
			return runCheck(cmd, args[0])
		},
	}
	return cmd
}

func runCheck(cmd *cobra.Command, path string) error {
	runs, err := replayAll(cmd.Context(), []string{path}, replayJob{
		opts: trace.Options{Verify: true, Check: true},
	})
	if err != nil {
		return err
	}
	r := runs[0]
	if jsonOut {
		if err := printJSON(r); err != nil {
			return err
		}
		return r.Err
	}
	if r.Err != nil {
		return r.Err
	}
	printInfo("%s: OK (%s)\n", path, printer.Sprintf("%d ops", r.Result.Ops))
	return nil
}
