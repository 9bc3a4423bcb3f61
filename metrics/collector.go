// Package metrics exports allocator statistics to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/joshuapare/heapkit/alloc"
)

const namespace = "heapkit"

// StatsSource is anything that can report allocator counters.
type StatsSource interface {
	Stats() alloc.Stats
}

type statsCollector struct {
	src StatsSource

	calls      *prometheus.Desc
	failed     *prometheus.Desc
	grows      *prometheus.Desc
	growBytes  *prometheus.Desc
	splits     *prometheus.Desc
	miniHits   *prometheus.Desc
	coalesces  *prometheus.Desc
	liveBytes  *prometheus.Desc
	peakBytes  *prometheus.Desc
	freeBlocks *prometheus.Desc
	heapBytes  *prometheus.Desc
}

// NewCollector returns a collector that reads src on every scrape. The
// heap label tells several allocators apart in one registry.
//
// The source is read without locking, so scrape it only while the
// allocator is quiescent or owned by the scraping goroutine.
func NewCollector(src StatsSource, heap string) prometheus.Collector {
	labels := prometheus.Labels{"heap": heap}
	desc := func(name, help string, variable ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "alloc", name), help, variable, labels)
	}
	return &statsCollector{
		src:        src,
		calls:      desc("calls_total", "Public allocator calls by operation.", "op"),
		failed:     desc("failed_calls_total", "Calls that returned an error."),
		grows:      desc("grow_total", "Arena extensions."),
		growBytes:  desc("grow_bytes_total", "Bytes added to the arena by extensions."),
		splits:     desc("splits_total", "Free blocks split during placement."),
		miniHits:   desc("mini_fast_path_total", "Allocations served from the mini-block list."),
		coalesces:  desc("coalesce_total", "Releases by neighbor merge case.", "case"),
		liveBytes:  desc("live_bytes", "Bytes in allocated blocks, headers included."),
		peakBytes:  desc("peak_live_bytes", "High-water mark of live bytes."),
		freeBlocks: desc("free_blocks", "Blocks on free lists."),
		heapBytes:  desc("heap_bytes", "Current arena size."),
	}
}

func (c *statsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.calls
	ch <- c.failed
	ch <- c.grows
	ch <- c.growBytes
	ch <- c.splits
	ch <- c.miniHits
	ch <- c.coalesces
	ch <- c.liveBytes
	ch <- c.peakBytes
	ch <- c.freeBlocks
	ch <- c.heapBytes
}

func (c *statsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Stats()
	counter := func(d *prometheus.Desc, v uint64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}
	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v)
	}

	counter(c.calls, s.AllocCalls, "allocate")
	counter(c.calls, s.FreeCalls, "release")
	counter(c.calls, s.ResizeCalls, "resize")
	counter(c.calls, s.ZeroAllocCalls, "zero_allocate")
	counter(c.failed, s.FailedCalls)
	counter(c.grows, s.GrowCalls)
	counter(c.growBytes, s.GrowBytes)
	counter(c.splits, s.SplitCount)
	counter(c.miniHits, s.MiniFastPath)
	counter(c.coalesces, s.CoalesceNone, "none")
	counter(c.coalesces, s.CoalesceNext, "next")
	counter(c.coalesces, s.CoalescePrev, "prev")
	counter(c.coalesces, s.CoalesceBoth, "both")
	gauge(c.liveBytes, float64(s.LiveBytes))
	gauge(c.peakBytes, float64(s.PeakLiveBytes))
	gauge(c.freeBlocks, float64(s.FreeBlocks))
	gauge(c.heapBytes, float64(s.HeapSize))
}

var _ prometheus.Collector = new(statsCollector)
