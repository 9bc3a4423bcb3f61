package main

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer groups digits in counts and byte sizes.
var printer = message.NewPrinter(language.English)

func printRuns(runs []traceRun) {
	for _, r := range runs {
		if r.Err != nil {
			printInfo("%s: FAILED: %v\n", r.Path, r.Err)
			continue
		}
		res := r.Result
		printInfo("%s\n", r.Path)
		printInfo("%s", printer.Sprintf("  ops:          %d (alloc %d, resize %d, zero %d, free %d)\n",
			res.Ops, res.Allocs, res.Resizes, res.ZeroAllocs, res.Frees))
		printInfo("%s", printer.Sprintf("  peak live:    %d bytes\n", res.PeakLive))
		printInfo("%s", printer.Sprintf("  heap size:    %d bytes\n", res.HeapSize))
		printInfo("  utilization:  %.1f%%\n", res.Utilization*100)
		printInfo("  elapsed:      %s\n", res.Elapsed)
		printVerbose("%s", printer.Sprintf("  grows:        %d (%d bytes)\n", res.Stats.GrowCalls, res.Stats.GrowBytes))
		printVerbose("%s", printer.Sprintf("  splits:       %d\n", res.Stats.SplitCount))
		printVerbose("%s", printer.Sprintf("  coalesce:     none %d, next %d, prev %d, both %d\n",
			res.Stats.CoalesceNone, res.Stats.CoalesceNext, res.Stats.CoalescePrev, res.Stats.CoalesceBoth))
		printVerbose("%s", printer.Sprintf("  mini hits:    %d\n", res.Stats.MiniFastPath))
		if r.Metrics != "" {
			printInfo("%s", r.Metrics)
		}
	}
}
