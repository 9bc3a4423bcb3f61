package alloc

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/roaring64"
	"go.uber.org/zap"

	"github.com/joshuapare/heapkit/internal/format"
)

// Invariant names reported in ConsistencyError.Invariant.
const (
	InvariantPrologue     = "prologue"
	InvariantEpilogue     = "epilogue"
	InvariantBounds       = "bounds"
	InvariantAlignment    = "alignment"
	InvariantBlockSize    = "block-size"
	InvariantPrevFlags    = "prev-flags"
	InvariantAdjacentFree = "adjacent-free"
	InvariantFooter       = "footer"
	InvariantListLinks    = "list-links"
	InvariantListBucket   = "list-bucket"
	InvariantListMember   = "list-membership"
	InvariantFreeCount    = "free-count"
	InvariantLivePointer  = "live-pointer"
)

// ConsistencyError describes the first invariant violation found in a heap.
type ConsistencyError struct {
	Invariant string
	Message   string
	Offset    int
	Site      string
	Details   map[string]any
}

func (e *ConsistencyError) Error() string {
	if e.Site != "" {
		return fmt.Sprintf("alloc: %s violated at offset 0x%X (%s): %s", e.Invariant, e.Offset, e.Site, e.Message)
	}
	return fmt.Sprintf("alloc: %s violated at offset 0x%X: %s", e.Invariant, e.Offset, e.Message)
}

func violation(inv string, off int, msg string, args ...any) *ConsistencyError {
	return &ConsistencyError{
		Invariant: inv,
		Message:   fmt.Sprintf(msg, args...),
		Offset:    off,
	}
}

// Verify walks the whole heap and every free list and returns the first
// violation as a *ConsistencyError, or nil. It never modifies the heap.
//
// Checked:
//   - prologue and epilogue sentinels, including the epilogue's view of
//     the last block
//   - every block is in bounds, aligned, at least a mini block, and a
//     multiple of 16
//   - every header's prev-allocated and prev-mini bits match the block
//     before it
//   - no two adjacent blocks are free
//   - free non-mini blocks have a footer equal to their header
//   - every list entry is a free block of the right size class, linked
//     both ways, and no list cycles
//   - every free block is on exactly one list
func (a *Allocator) Verify() error {
	if !a.initialized {
		return nil
	}
	if len(a.mem) != a.p.Size() {
		return violation(InvariantBounds, 0, "cached arena length %d != provider size %d", len(a.mem), a.p.Size())
	}

	free := roaring64.New()
	freeCount, err := a.verifyBlocks(free)
	if err != nil {
		return err
	}
	listed, err := a.verifyLists(free)
	if err != nil {
		return err
	}
	if listed != freeCount {
		return violation(InvariantFreeCount, int(a.heapStart),
			"%d free blocks in heap, %d on free lists", freeCount, listed)
	}
	if !free.IsEmpty() {
		off := int(free.Minimum()) << 4
		return violation(InvariantListMember, off-format.WordSize,
			"%d free blocks not on any list", free.GetCardinality())
	}
	if freeCount != a.stats.FreeBlocks {
		return violation(InvariantFreeCount, int(a.heapStart),
			"%d free blocks in heap, counter says %d", freeCount, a.stats.FreeBlocks)
	}
	return nil
}

// verifyBlocks runs the implicit walk and records every free block in
// free, keyed by payload offset / 16.
func (a *Allocator) verifyBlocks(free *roaring64.Bitmap) (int, error) {
	pro := int(a.heapStart) - format.WordSize
	if w := format.ReadWord(a.mem, pro); format.ExtractSize(w) != 0 || !format.ExtractAlloc(w) {
		return 0, violation(InvariantPrologue, pro, "prologue footer is %+v", format.Decode(w))
	}

	end := a.epilogue()
	count := 0
	prevAlloc, prevMini, prevOff := true, false, pro
	steps := len(a.mem)/format.MiniBlockSize + 1
	b := a.heapStart
	for ; b != end; b = a.next(b) {
		if steps--; steps < 0 {
			return 0, violation(InvariantBlockSize, int(b), "implicit walk does not terminate")
		}
		if b < a.heapStart || b > end {
			return 0, violation(InvariantBounds, int(b), "block outside heap [0x%X, 0x%X]", int(a.heapStart), int(end))
		}
		if int(payloadOf(b))%format.Alignment != 0 {
			return 0, violation(InvariantAlignment, int(b), "payload 0x%X not %d-byte aligned", int(payloadOf(b)), format.Alignment)
		}

		h := format.Decode(a.header(b))
		size := int(h.Size)
		if size < format.MiniBlockSize || size%format.Alignment != 0 {
			return 0, violation(InvariantBlockSize, int(b), "bad block size %d", size)
		}
		if int(b)+size > int(end) {
			return 0, violation(InvariantBounds, int(b), "block of %d bytes runs past epilogue at 0x%X", size, int(end))
		}
		if h.PrevAlloc != prevAlloc || h.PrevMini != prevMini {
			return 0, &ConsistencyError{
				Invariant: InvariantPrevFlags,
				Offset:    int(b),
				Message:   "header flags disagree with previous block",
				Details: map[string]any{
					"prev_offset":     prevOff,
					"want_prev_alloc": prevAlloc,
					"want_prev_mini":  prevMini,
					"header":          h,
				},
			}
		}

		if !h.Allocated {
			if !prevAlloc {
				return 0, violation(InvariantAdjacentFree, int(b), "free block follows free block at 0x%X", prevOff)
			}
			if size != format.MiniBlockSize {
				if f := format.ReadWord(a.mem, a.footerOf(b)); f != a.header(b) {
					return 0, &ConsistencyError{
						Invariant: InvariantFooter,
						Offset:    int(b),
						Message:   "footer does not match header",
						Details: map[string]any{
							"header": h,
							"footer": format.Decode(f),
						},
					}
				}
			}
			free.Add(uint64(payloadOf(b)) >> 4)
			count++
		}

		prevAlloc, prevMini, prevOff = h.Allocated, size == format.MiniBlockSize, int(b)
	}

	h := format.Decode(a.header(end))
	if h.Size != 0 || !h.Allocated {
		return 0, violation(InvariantEpilogue, int(end), "epilogue header is %+v", h)
	}
	if h.PrevAlloc != prevAlloc || h.PrevMini != prevMini {
		return 0, violation(InvariantEpilogue, int(end),
			"epilogue flags (alloc=%t mini=%t) disagree with last block at 0x%X (alloc=%t mini=%t)",
			h.PrevAlloc, h.PrevMini, prevOff, prevAlloc, prevMini)
	}
	return count, nil
}

// verifyLists walks every bucket and the mini list, removing each entry
// from free. An entry missing from free is either not a free block or
// listed twice.
func (a *Allocator) verifyLists(free *roaring64.Bitmap) (int, error) {
	limit := int(free.GetCardinality()) + 1
	listed := 0

	claim := func(b block, list string) error {
		if b < a.heapStart || b >= a.epilogue() || int(payloadOf(b))%format.Alignment != 0 {
			return violation(InvariantBounds, int(b), "%s entry outside heap or misaligned", list)
		}
		key := uint64(payloadOf(b)) >> 4
		if !free.Contains(key) {
			return violation(InvariantListMember, int(b), "%s entry is not a free block or is listed twice", list)
		}
		free.Remove(key)
		listed++
		return nil
	}

	for i, head := range a.roots {
		list := fmt.Sprintf("bucket %d", i)
		prev := none
		steps := 0
		for b := head; b != none; b = a.freeNext(b) {
			if steps++; steps > limit {
				return 0, violation(InvariantListLinks, int(head), "%s has a cycle", list)
			}
			if err := claim(b, list); err != nil {
				return 0, err
			}
			size := a.size(b)
			if size == format.MiniBlockSize {
				return 0, violation(InvariantListBucket, int(b), "mini block on %s", list)
			}
			if got := a.bucketFor(size); got != i {
				return 0, violation(InvariantListBucket, int(b), "block of %d bytes belongs in bucket %d, found in %s", size, got, list)
			}
			if p := a.freePrev(b); p != prev {
				return 0, violation(InvariantListLinks, int(b), "prev link 0x%X, want 0x%X", int(p), int(prev))
			}
			prev = b
		}
	}

	steps := 0
	for b := a.miniRoot; b != none; b = a.freeNext(b) {
		if steps++; steps > limit {
			return 0, violation(InvariantListLinks, int(a.miniRoot), "mini list has a cycle")
		}
		if err := claim(b, "mini list"); err != nil {
			return 0, err
		}
		if size := a.size(b); size != format.MiniBlockSize {
			return 0, violation(InvariantListBucket, int(b), "block of %d bytes on mini list", size)
		}
	}
	return listed, nil
}

// CheckConsistency runs Verify and logs any violation against site. It
// reports whether the heap is consistent.
func (a *Allocator) CheckConsistency(site string) bool {
	return a.verifyAt(site) == nil
}

func (a *Allocator) verifyAt(site string) *ConsistencyError {
	err := a.Verify()
	if err == nil {
		return nil
	}
	ce := err.(*ConsistencyError)
	ce.Site = site
	a.log.Error("heap consistency violation",
		zap.String("invariant", ce.Invariant),
		zap.Int("offset", ce.Offset),
		zap.String("site", site),
		zap.String("detail", ce.Message),
		zap.Any("details", ce.Details))
	return ce
}

// mustCheck panics on the first violation. Continuing past a corrupt heap
// would only spread the damage.
func (a *Allocator) mustCheck(site string) {
	if ce := a.verifyAt(site); ce != nil {
		panic(ce)
	}
}

// fail panics with a live-pointer violation for op.
func (a *Allocator) fail(op string, err error) {
	ce := &ConsistencyError{
		Invariant: InvariantLivePointer,
		Message:   err.Error(),
		Site:      op,
	}
	a.log.Error("invalid pointer", zap.String("site", op), zap.Error(err))
	panic(ce)
}
