package alloc

import "github.com/joshuapare/heapkit/internal/format"

// Free-list links live inside the free block's payload:
//
//	normal free block: [header][next][prev] ... [footer]
//	mini free block:   [header][next]
//
// Links are header offsets; zero (the prologue) means end of list.
const (
	nextLinkOff = format.WordSize
	prevLinkOff = 2 * format.WordSize
)

func (a *Allocator) freeNext(b block) block {
	return block(format.ReadLink(a.mem, int(b)+nextLinkOff))
}

func (a *Allocator) freePrev(b block) block {
	return block(format.ReadLink(a.mem, int(b)+prevLinkOff))
}

func (a *Allocator) setFreeNext(b, n block) {
	format.PutLink(a.mem, int(b)+nextLinkOff, int(n))
}

func (a *Allocator) setFreePrev(b, p block) {
	format.PutLink(a.mem, int(b)+prevLinkOff, int(p))
}

// bucketLimit returns the largest block size bucket i is meant for. The
// last bucket is unbounded.
func bucketLimit(i int) int {
	return format.MinBlockSize << i
}

// bucketFor maps a block size to its bucket by doubling a threshold from
// the minimum block size until it covers size.
func (a *Allocator) bucketFor(size int) int {
	size = max(size, format.MinBlockSize)
	idx, limit := 0, format.MinBlockSize
	for idx < len(a.roots)-1 && size > limit {
		idx++
		limit <<= 1
	}
	return idx
}

// insertFree pushes b onto the front of its list (LIFO).
func (a *Allocator) insertFree(b block) {
	a.stats.FreeBlocks++
	sz := a.size(b)
	if sz == format.MiniBlockSize {
		a.setFreeNext(b, a.miniRoot)
		a.miniRoot = b
		return
	}

	i := a.bucketFor(sz)
	head := a.roots[i]
	a.setFreeNext(b, head)
	a.setFreePrev(b, none)
	if head != none {
		a.setFreePrev(head, b)
	}
	a.roots[i] = b
}

// removeFree unlinks b from whichever list holds it. Bucketed blocks unlink
// in O(1); mini blocks need a scan because they have no back link.
func (a *Allocator) removeFree(b block) {
	if a.size(b) == format.MiniBlockSize {
		a.removeMini(b)
		return
	}

	n, p := a.freeNext(b), a.freePrev(b)
	if p != none {
		a.setFreeNext(p, n)
	} else {
		a.roots[a.bucketFor(a.size(b))] = n
	}
	if n != none {
		a.setFreePrev(n, p)
	}
	a.setFreeNext(b, none)
	a.setFreePrev(b, none)
	a.stats.FreeBlocks--
}

func (a *Allocator) removeMini(b block) {
	var prev block
	cur := a.miniRoot
	for cur != none && cur != b {
		prev = cur
		cur = a.freeNext(cur)
	}
	if cur == none {
		return
	}
	if prev != none {
		a.setFreeNext(prev, a.freeNext(cur))
	} else {
		a.miniRoot = a.freeNext(cur)
	}
	a.setFreeNext(cur, none)
	a.stats.FreeBlocks--
}

// popMini takes the most recently freed mini block, if any.
func (a *Allocator) popMini() (block, bool) {
	b := a.miniRoot
	if b == none {
		return none, false
	}
	a.miniRoot = a.freeNext(b)
	a.setFreeNext(b, none)
	a.stats.FreeBlocks--
	return b, true
}

// findFit returns the first block of at least asize bytes, scanning the
// bucket for asize and then every larger bucket. Within a bucket the first
// match wins; there is no global best-fit search.
func (a *Allocator) findFit(asize int) (block, bool) {
	for i := a.bucketFor(asize); i < len(a.roots); i++ {
		for b := a.roots[i]; b != none; b = a.freeNext(b) {
			if a.size(b) >= asize {
				return b, true
			}
		}
	}
	return none, false
}
