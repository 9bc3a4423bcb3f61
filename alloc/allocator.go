package alloc

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/joshuapare/heapkit/arena"
	"github.com/joshuapare/heapkit/internal/format"
)

// Ptr is the arena offset of a payload. Null is never a valid payload
// because offset zero holds the prologue.
type Ptr uint64

// Null is the "no allocation" pointer.
const Null Ptr = 0

// block is the arena offset of a block header.
type block int

// none is the "no block" sentinel used by links and lookups.
const none block = 0

// Allocator is a segregated-fit, boundary-tag allocator over one arena.
//
// Layout of the arena:
//
//	[prologue footer][block][block]...[block][epilogue header]
//	 0               8                          Size()-8
//
// Every block starts with a header word. Free blocks larger than a mini
// block also end with a footer word and keep next/prev links in their
// payload. Free mini blocks keep only a next link.
type Allocator struct {
	p    arena.Provider
	mem  []byte // cached p.Bytes(); refreshed after every Grow
	opts Options
	log  *zap.Logger

	initialized bool
	heapStart   block

	// roots[i] heads the doubly linked list for bucket i.
	roots []block
	// miniRoot heads the singly linked list of free mini blocks.
	miniRoot block

	stats Stats
}

// New creates an allocator over p. The arena is initialized lazily on the
// first allocation, so New never touches p.
func New(p arena.Provider, opts Options) (*Allocator, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil provider", ErrBadOptions)
	}
	o, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	return &Allocator{
		p:     p,
		opts:  o,
		log:   o.Logger,
		roots: make([]block, o.Buckets),
	}, nil
}

// Options returns the effective configuration.
func (a *Allocator) Options() Options { return a.opts }

// Provider returns the arena provider backing a.
func (a *Allocator) Provider() arena.Provider { return a.p }

// Reset discards every allocation and returns the arena to empty. All
// previously returned pointers become invalid.
func (a *Allocator) Reset() {
	a.p.Reset()
	a.mem = nil
	a.initialized = false
	a.heapStart = none
	clear(a.roots)
	a.miniRoot = none
	a.stats = Stats{}
}

// checking reports whether the consistency checker wraps every operation.
func (a *Allocator) checking() bool {
	return debugChecks || a.opts.CheckEveryOp
}

// initHeap writes the prologue and epilogue sentinels with one small arena
// request. The heap has no blocks until the first extension.
func (a *Allocator) initHeap() error {
	clear(a.roots)
	a.miniRoot = none

	base, err := a.p.Grow(format.SentinelSize)
	if err != nil {
		a.log.Warn("heap init failed", zap.Error(err))
		return err
	}
	a.mem = a.p.Bytes()

	sentinel := format.Pack(0, false, true, true)
	format.PutWord(a.mem, base+format.PrologueOffset, sentinel)
	format.PutWord(a.mem, base+format.WordSize, sentinel)

	a.heapStart = block(base + format.FirstBlockOffset)
	a.initialized = true
	a.stats.InitCalls++
	a.stats.HeapSize = a.p.Size()

	a.log.Debug("heap initialized", zap.Int("heap_start", int(a.heapStart)))
	return nil
}

// epilogue returns the epilogue header's offset.
func (a *Allocator) epilogue() block {
	return block(len(a.mem) - format.WordSize)
}
