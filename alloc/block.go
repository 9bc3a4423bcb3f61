package alloc

import "github.com/joshuapare/heapkit/internal/format"

// Block accessors. Every read and write goes through a.mem, so a corrupt
// offset panics with an index error instead of touching foreign memory.

func (a *Allocator) header(b block) format.Word {
	return format.ReadWord(a.mem, int(b))
}

func (a *Allocator) setHeader(b block, w format.Word) {
	format.PutWord(a.mem, int(b), w)
}

func (a *Allocator) size(b block) int {
	return int(format.ExtractSize(a.header(b)))
}

func (a *Allocator) allocated(b block) bool {
	return format.ExtractAlloc(a.header(b))
}

func (a *Allocator) prevAllocated(b block) bool {
	return format.ExtractPrevAlloc(a.header(b))
}

func (a *Allocator) prevMini(b block) bool {
	return format.ExtractPrevMini(a.header(b))
}

// footerOf returns the offset of b's footer. Only free, non-mini blocks
// have one.
func (a *Allocator) footerOf(b block) int {
	return int(b) + a.size(b) - format.WordSize
}

func payloadOf(b block) Ptr {
	return Ptr(int(b) + format.WordSize)
}

func blockOf(p Ptr) block {
	return block(int(p) - format.WordSize)
}

// next returns the physically following block. b must not be the epilogue.
func (a *Allocator) next(b block) block {
	return b + block(a.size(b))
}

// prev returns the physically preceding block when it is free, or none.
//
// The lookup depends on what b's header says about its predecessor: an
// allocated predecessor has no footer and nothing to merge with; a free
// mini predecessor sits exactly one mini block back; any other free
// predecessor ends with a footer in the word before b.
func (a *Allocator) prev(b block) block {
	w := a.header(b)
	switch format.Lookback(w) {
	case format.PrevAllocated:
		return none
	case format.PrevFreeMini:
		p := b - format.MiniBlockSize
		if p < a.heapStart {
			return none
		}
		return p
	case format.PrevFree:
		footer := format.ReadWord(a.mem, int(b)-format.WordSize)
		sz := block(format.ExtractSize(footer))
		if sz == 0 {
			// Prologue footer: b is the first block.
			return none
		}
		return b - sz
	default:
		panic("alloc: unreachable lookback kind")
	}
}

// writeBlock stamps b's header (and footer, for free non-mini blocks) and
// propagates b's allocation and mini status into the successor's header.
//
// Only the successor's header is touched. A free successor's footer goes
// stale when b is released, which is fine: the coalescer merges the two
// and rewrites the survivor's tags before anyone reads them.
func (a *Allocator) writeBlock(b block, size int, prevMini, prevAlloc, alloc bool) {
	w := format.Pack(uint64(size), prevMini, prevAlloc, alloc)
	a.setHeader(b, w)
	if !alloc && size != format.MiniBlockSize {
		format.PutWord(a.mem, int(b)+size-format.WordSize, w)
	}

	n := b + block(size)
	nw := a.header(n)
	nw = format.WithPrevAlloc(nw, alloc)
	nw = format.WithPrevMini(nw, size == format.MiniBlockSize)
	a.setHeader(n, nw)
}

// writeEpilogue stamps the epilogue header at b.
func (a *Allocator) writeEpilogue(b block, prevMini, prevAlloc bool) {
	a.setHeader(b, format.Pack(0, prevMini, prevAlloc, true))
}
