package alloc

// Stats is a snapshot of allocator counters. Calls count public entry
// points; block-level counters (splits, coalesces) include work done on
// behalf of Resize and ZeroAllocate.
type Stats struct {
	AllocCalls     uint64
	FreeCalls      uint64
	ResizeCalls    uint64
	ZeroAllocCalls uint64
	FailedCalls    uint64

	InitCalls uint64
	GrowCalls uint64
	GrowBytes uint64

	SplitCount   uint64
	MiniFastPath uint64

	CoalesceNone uint64
	CoalesceNext uint64
	CoalescePrev uint64
	CoalesceBoth uint64

	// LiveBytes is the total size of allocated blocks, headers included.
	LiveBytes     uint64
	PeakLiveBytes uint64

	FreeBlocks int
	HeapSize   int
}

// Stats returns the current counters.
func (a *Allocator) Stats() Stats {
	return a.stats
}

func (a *Allocator) addLive(n int) {
	a.stats.LiveBytes += uint64(n)
	a.stats.PeakLiveBytes = max(a.stats.PeakLiveBytes, a.stats.LiveBytes)
}

func (a *Allocator) subLive(n int) {
	a.stats.LiveBytes -= uint64(n)
}
