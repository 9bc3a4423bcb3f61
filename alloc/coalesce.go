package alloc

// coalesce merges the freshly freed block b with any free physical
// neighbor and returns the surviving block. The survivor's tags are
// rewritten once; it is not inserted into a free list.
//
// Four cases, decided by adjacency alone:
//
//	prev alloc, next alloc  -> b unchanged
//	prev alloc, next free   -> b absorbs next
//	prev free,  next alloc  -> prev absorbs b
//	prev free,  next free   -> prev absorbs b and next
func (a *Allocator) coalesce(b block) block {
	size := a.size(b)
	n := a.next(b)
	nextFree := !a.allocated(n)
	p := a.prev(b)
	prevFree := p != none

	switch {
	case !prevFree && !nextFree:
		a.stats.CoalesceNone++
		return b

	case !prevFree && nextFree:
		a.stats.CoalesceNext++
		a.removeFree(n)
		size += a.size(n)
		a.writeBlock(b, size, a.prevMini(b), a.prevAllocated(b), false)
		return b

	case prevFree && !nextFree:
		a.stats.CoalescePrev++
		a.removeFree(p)
		size += a.size(p)
		a.writeBlock(p, size, a.prevMini(p), a.prevAllocated(p), false)
		return p

	default:
		a.stats.CoalesceBoth++
		a.removeFree(p)
		a.removeFree(n)
		size += a.size(p) + a.size(n)
		a.writeBlock(p, size, a.prevMini(p), a.prevAllocated(p), false)
		return p
	}
}
