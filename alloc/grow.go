package alloc

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/joshuapare/heapkit/internal/format"
)

// extendHeap asks the provider for size more bytes (rounded up to 16) and
// turns them into a free block that replaces the old epilogue. The new
// block is merged with a free predecessor and inserted into its list.
//
// On provider failure nothing in the arena or the free lists changes.
func (a *Allocator) extendHeap(size int) (block, error) {
	size = int(format.Align16(uint64(size)))

	old := a.epilogue()
	pm, pa := a.prevMini(old), a.prevAllocated(old)

	base, err := a.p.Grow(size)
	if err != nil {
		a.log.Warn("heap extension refused",
			zap.Int("extend", size),
			zap.Int("heap_size", a.p.Size()),
			zap.Error(err))
		return none, fmt.Errorf("%w: extend by %d bytes: %w", ErrNoSpace, size, err)
	}
	a.mem = a.p.Bytes()

	// The old epilogue header becomes the new block's header.
	b := block(base - format.WordSize)
	a.writeBlock(b, size, pm, pa, false)
	a.writeEpilogue(a.next(b), size == format.MiniBlockSize, false)

	a.stats.GrowCalls++
	a.stats.GrowBytes += uint64(size)
	a.stats.HeapSize = a.p.Size()

	if ce := a.log.Check(zap.DebugLevel, "heap extended"); ce != nil {
		ce.Write(
			zap.Int("extend", size),
			zap.Int("block", int(b)),
			zap.Int("heap_size", a.stats.HeapSize))
	}

	b = a.coalesce(b)
	a.insertFree(b)
	return b, nil
}
