// Package format holds the on-arena layout of allocator blocks: the word
// size, alignment, and the bit layout shared by headers and footers. Higher
// level packages never touch raw words directly; they go through the codec
// helpers in this package.
package format

const (
	// WordSize is the size of a header, footer, or free-list link.
	WordSize = 8

	// Alignment is the payload alignment guaranteed to callers. Every block
	// size is a multiple of it.
	Alignment = 2 * WordSize

	// AlignmentMask is Alignment-1, used by the rounding helpers.
	AlignmentMask = Alignment - 1

	// MiniBlockSize is the smallest legal block: one header word plus one
	// payload word. A free mini block has room for a single "next" link and
	// nothing else, so it carries no footer.
	MiniBlockSize = 2 * WordSize

	// MinBlockSize is the smallest block that can hold a header, a footer,
	// and a doubly linked pair of free-list links.
	MinBlockSize = 4 * WordSize

	// DefaultChunkSize is the default arena growth increment.
	DefaultChunkSize = 1 << 12

	// DefaultBuckets is the default number of segregated free lists.
	DefaultBuckets = 14

	// PrologueOffset is the arena offset of the prologue footer.
	PrologueOffset = 0

	// FirstBlockOffset is the header offset of the first real block, right
	// after the prologue footer. Payloads start at FirstBlockOffset+WordSize,
	// which keeps them Alignment-aligned.
	FirstBlockOffset = WordSize

	// SentinelSize is the number of bytes the arena needs before any block
	// exists: the prologue footer and the epilogue header.
	SentinelSize = 2 * WordSize
)

// Flag bits stored in the low nibble of every header and footer word.
const (
	AllocBit     Word = 0x1
	PrevAllocBit Word = 0x2
	PrevMiniBit  Word = 0x4

	// SizeMask clears the flag nibble.
	SizeMask = ^Word(0xF)
)
