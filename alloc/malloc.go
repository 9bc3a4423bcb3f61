package alloc

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
)

// Allocate returns a 16-byte aligned payload of at least size bytes.
//
// A zero size yields (Null, nil). When no free block fits, the arena grows
// by max(block size, ChunkSize); if the provider refuses, Allocate returns
// (Null, err) with err wrapping ErrNoSpace and the heap is left as it was.
// The payload contents are unspecified.
func (a *Allocator) Allocate(size uint64) (Ptr, error) {
	if a.checking() {
		a.mustCheck("allocate:enter")
		defer a.mustCheck("allocate:exit")
	}
	a.stats.AllocCalls++
	p, err := a.allocate(size)
	if err != nil {
		a.stats.FailedCalls++
	}
	return p, err
}

// Release returns p's block to the allocator and merges it with free
// neighbors. Release(Null) is a no-op.
//
// Releasing a pointer that is not a live allocation from a is undefined.
// With consistency checks enabled it panics with a *ConsistencyError.
func (a *Allocator) Release(p Ptr) {
	if p == Null {
		return
	}
	if a.checking() {
		a.mustCheck("release:enter")
		if err := a.validPtr(p); err != nil {
			a.fail("release", err)
		}
		defer a.mustCheck("release:exit")
	}
	a.stats.FreeCalls++
	a.release(p)
}

// Resize moves p's contents into a new allocation of size bytes and
// releases p. The first min(size, UsableSize(p)) bytes are preserved.
//
// Resize(p, 0) releases p and returns (Null, nil). Resize(Null, n) is
// Allocate(n). If the new allocation fails, p is untouched and still live.
func (a *Allocator) Resize(p Ptr, size uint64) (Ptr, error) {
	if a.checking() {
		a.mustCheck("resize:enter")
		if p != Null {
			if err := a.validPtr(p); err != nil {
				a.fail("resize", err)
			}
		}
		defer a.mustCheck("resize:exit")
	}
	a.stats.ResizeCalls++

	if size == 0 {
		if p != Null {
			a.release(p)
		}
		return Null, nil
	}
	if p == Null {
		np, err := a.allocate(size)
		if err != nil {
			a.stats.FailedCalls++
		}
		return np, err
	}

	np, err := a.allocate(size)
	if err != nil {
		a.stats.FailedCalls++
		return Null, err
	}
	n := int(min(size, uint64(a.usable(blockOf(p)))))
	copy(a.mem[int(np):int(np)+n], a.mem[int(p):int(p)+n])
	a.release(p)
	return np, nil
}

// ZeroAllocate returns a zero-filled payload of count*elemSize bytes.
//
// A zero count yields (Null, nil). If the product overflows 64 bits it
// returns (Null, ErrOverflow) without touching the arena.
func (a *Allocator) ZeroAllocate(count, elemSize uint64) (Ptr, error) {
	if a.checking() {
		a.mustCheck("zero-allocate:enter")
		defer a.mustCheck("zero-allocate:exit")
	}
	a.stats.ZeroAllocCalls++

	if count == 0 {
		return Null, nil
	}
	total, ok := buf.MulOverflow(count, elemSize)
	if !ok {
		a.stats.FailedCalls++
		return Null, fmt.Errorf("%w: %d * %d", ErrOverflow, count, elemSize)
	}
	p, err := a.allocate(total)
	if err != nil || p == Null {
		if err != nil {
			a.stats.FailedCalls++
		}
		return p, err
	}
	clear(a.mem[int(p) : int(p)+int(total)])
	return p, nil
}

// Payload returns the usable bytes of the live allocation at p, or nil if
// p does not address one. The slice aliases the arena and is invalidated
// by the next call that grows it.
func (a *Allocator) Payload(p Ptr) []byte {
	if p == Null || a.validPtr(p) != nil {
		return nil
	}
	b, ok := buf.Slice(a.mem, int(p), a.usable(blockOf(p)))
	if !ok {
		return nil
	}
	return b
}

// UsableSize returns how many payload bytes p can hold: the block size
// minus the header. It returns 0 for Null or an invalid pointer.
func (a *Allocator) UsableSize(p Ptr) int {
	if p == Null || a.validPtr(p) != nil {
		return 0
	}
	return a.usable(blockOf(p))
}

func (a *Allocator) usable(b block) int {
	return a.size(b) - format.WordSize
}

// validPtr reports whether p plausibly addresses a live payload: inside
// the heap, aligned, with an allocated header of sane size.
func (a *Allocator) validPtr(p Ptr) error {
	if !a.initialized {
		return fmt.Errorf("%w: 0x%X: heap not initialized", ErrBadPointer, uint64(p))
	}
	if uint64(p)&format.AlignmentMask != 0 {
		return fmt.Errorf("%w: 0x%X: not %d-byte aligned", ErrBadPointer, uint64(p), format.Alignment)
	}
	b := blockOf(p)
	if b < a.heapStart || b >= a.epilogue() {
		return fmt.Errorf("%w: 0x%X: outside heap [0x%X, 0x%X)", ErrBadPointer, uint64(p), int(a.heapStart), int(a.epilogue()))
	}
	if !a.allocated(b) {
		return fmt.Errorf("%w: 0x%X: block is free", ErrBadPointer, uint64(p))
	}
	sz := a.size(b)
	if sz < format.MiniBlockSize || int(b)+sz > int(a.epilogue()) {
		return fmt.Errorf("%w: 0x%X: corrupt block size %d", ErrBadPointer, uint64(p), sz)
	}
	return nil
}

func (a *Allocator) allocate(size uint64) (Ptr, error) {
	if size == 0 {
		return Null, nil
	}
	asize64, ok := format.AdjustedSize(size)
	if !ok {
		return Null, fmt.Errorf("%w: %d bytes", ErrTooLarge, size)
	}
	asize := int(asize64)

	if !a.initialized {
		if err := a.initHeap(); err != nil {
			return Null, fmt.Errorf("%w: init: %w", ErrNoSpace, err)
		}
	}

	b := none
	if asize == format.MiniBlockSize {
		if mb, ok := a.popMini(); ok {
			a.stats.MiniFastPath++
			b = mb
		}
	}
	if b == none {
		fb, ok := a.findFit(asize)
		if !ok {
			var err error
			fb, err = a.extendHeap(max(asize, a.opts.ChunkSize))
			if err != nil {
				return Null, err
			}
		}
		a.removeFree(fb)
		b = fb
	}

	a.place(b, asize)
	a.addLive(a.size(b))

	if ce := a.log.Check(zap.DebugLevel, "allocate"); ce != nil {
		ce.Write(zap.Uint64("size", size), zap.Int("block", int(b)), zap.Int("block_size", a.size(b)))
	}
	return payloadOf(b), nil
}

// place marks the unlinked free block b allocated for asize bytes. If the
// leftover is at least a mini block it is split off and reinserted;
// otherwise the slack stays with the allocation.
func (a *Allocator) place(b block, asize int) {
	bsize := a.size(b)
	pm, pa := a.prevMini(b), a.prevAllocated(b)

	if bsize-asize < format.MiniBlockSize {
		a.writeBlock(b, bsize, pm, pa, true)
		return
	}

	a.writeBlock(b, asize, pm, pa, true)
	r := a.next(b)
	a.writeBlock(r, bsize-asize, asize == format.MiniBlockSize, true, false)
	a.insertFree(r)
	a.stats.SplitCount++
}

func (a *Allocator) release(p Ptr) {
	b := blockOf(p)
	size := a.size(b)
	a.subLive(size)

	a.writeBlock(b, size, a.prevMini(b), a.prevAllocated(b), false)
	b = a.coalesce(b)
	a.insertFree(b)

	if ce := a.log.Check(zap.DebugLevel, "release"); ce != nil {
		ce.Write(zap.Int("block", int(b)), zap.Int("block_size", a.size(b)))
	}
}
