package format

// Word is one header or footer word.
//
// Layout (little-endian, 64 bits):
//
//	bits 63..4  block size in bytes (always a multiple of 16, so the low
//	            four bits of the size are implicitly zero)
//	bit  3      reserved
//	bit  2      previous block is a mini block
//	bit  1      previous block is allocated
//	bit  0      this block is allocated
type Word uint64

// Pack encodes size and the three flags into a single word. The caller
// guarantees that size is a multiple of Alignment.
func Pack(size uint64, prevMini, prevAlloc, alloc bool) Word {
	w := Word(size) & SizeMask
	if alloc {
		w |= AllocBit
	}
	if prevAlloc {
		w |= PrevAllocBit
	}
	if prevMini {
		w |= PrevMiniBit
	}
	return w
}

// ExtractSize returns the block size encoded in w.
func ExtractSize(w Word) uint64 {
	return uint64(w & SizeMask)
}

// ExtractAlloc reports whether w marks its block allocated.
func ExtractAlloc(w Word) bool {
	return w&AllocBit != 0
}

// ExtractPrevAlloc reports whether the physically previous block is allocated.
func ExtractPrevAlloc(w Word) bool {
	return w&PrevAllocBit != 0
}

// ExtractPrevMini reports whether the physically previous block is a mini block.
func ExtractPrevMini(w Word) bool {
	return w&PrevMiniBit != 0
}

// WithPrevAlloc returns w with the previous-allocated bit set to v.
func WithPrevAlloc(w Word, v bool) Word {
	if v {
		return w | PrevAllocBit
	}
	return w &^ PrevAllocBit
}

// WithPrevMini returns w with the previous-is-mini bit set to v.
func WithPrevMini(w Word, v bool) Word {
	if v {
		return w | PrevMiniBit
	}
	return w &^ PrevMiniBit
}

// PrevKind says how the physically previous block can be located.
type PrevKind uint8

const (
	// PrevAllocated means the predecessor is in use. It carries no footer,
	// and there is nothing to coalesce with.
	PrevAllocated PrevKind = iota
	// PrevFreeMini means the predecessor is a free mini block exactly
	// MiniBlockSize bytes back.
	PrevFreeMini
	// PrevFree means the predecessor is a free block with a footer in the
	// word right before this header.
	PrevFree
)

func (k PrevKind) String() string {
	switch k {
	case PrevAllocated:
		return "allocated"
	case PrevFreeMini:
		return "free-mini"
	case PrevFree:
		return "free"
	default:
		return "unknown"
	}
}

// Lookback classifies w's predecessor.
func Lookback(w Word) PrevKind {
	switch {
	case ExtractPrevAlloc(w):
		return PrevAllocated
	case ExtractPrevMini(w):
		return PrevFreeMini
	default:
		return PrevFree
	}
}

// Header is the decoded form of a Word, used for diagnostics.
type Header struct {
	Size      uint64
	Allocated bool
	PrevAlloc bool
	PrevMini  bool
}

// Decode unpacks every field of w.
func Decode(w Word) Header {
	return Header{
		Size:      ExtractSize(w),
		Allocated: ExtractAlloc(w),
		PrevAlloc: ExtractPrevAlloc(w),
		PrevMini:  ExtractPrevMini(w),
	}
}

// Word re-encodes h.
func (h Header) Word() Word {
	return Pack(h.Size, h.PrevMini, h.PrevAlloc, h.Allocated)
}
