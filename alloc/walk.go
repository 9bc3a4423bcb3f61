package alloc

import "github.com/joshuapare/heapkit/internal/format"

// BlockInfo describes one block seen by Walk.
type BlockInfo struct {
	Offset    int // header offset
	Payload   Ptr
	Size      int
	Allocated bool
	Prev      format.PrevKind
}

// Walk visits every block from the first to the last in address order
// and stops early when fn returns false. It does not mutate the heap and
// assumes it is consistent; run Verify first on a heap you do not trust.
func (a *Allocator) Walk(fn func(BlockInfo) bool) {
	if !a.initialized {
		return
	}
	end := a.epilogue()
	for b := a.heapStart; b != end; b = a.next(b) {
		w := a.header(b)
		info := BlockInfo{
			Offset:    int(b),
			Payload:   payloadOf(b),
			Size:      int(format.ExtractSize(w)),
			Allocated: format.ExtractAlloc(w),
			Prev:      format.Lookback(w),
		}
		if !fn(info) {
			return
		}
	}
}

// FreeListLengths returns the number of blocks on each bucket list and on
// the mini list.
func (a *Allocator) FreeListLengths() (buckets []int, mini int) {
	buckets = make([]int, len(a.roots))
	for i, head := range a.roots {
		for b := head; b != none; b = a.freeNext(b) {
			buckets[i]++
		}
	}
	for b := a.miniRoot; b != none; b = a.freeNext(b) {
		mini++
	}
	return buckets, mini
}

// BucketLimit returns the largest block size bucket i holds, or -1 for
// the last, unbounded bucket.
func (a *Allocator) BucketLimit(i int) int {
	if i >= len(a.roots)-1 {
		return -1
	}
	return bucketLimit(i)
}
