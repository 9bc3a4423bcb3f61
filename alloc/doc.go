// Package alloc implements a segregated-fit, boundary-tag allocator over a
// single growable arena.
//
// # Overview
//
// An Allocator hands out 16-byte aligned payloads carved from an arena
// obtained through an arena.Provider. Free blocks are kept on size-class
// lists and merged with free neighbors as soon as they are released, so
// the heap never holds two adjacent free blocks.
//
// # Operations
//
//   - Allocate(size): first fit within ascending size classes, splitting
//     off any leftover of at least 16 bytes
//   - Release(p): free, coalesce, reinsert (LIFO)
//   - Resize(p, size): allocate, copy, release (never in place)
//   - ZeroAllocate(count, elemSize): overflow-checked, zero-filled Allocate
//
// Pointers are arena offsets (Ptr), not Go pointers. Use Payload to get a
// byte view of a live allocation.
//
// # Block Layout
//
// Every block starts with one 8-byte header word:
//
//	bits 63..4  block size (multiple of 16, headers included)
//	bit  2      previous block is a 16-byte mini block
//	bit  1      previous block is allocated
//	bit  0      this block is allocated
//
// Allocated blocks carry only the header. Free blocks of 32 bytes or more
// also carry next and prev links and a footer copy of the header, which
// lets the following block find them. Free mini blocks (exactly 16 bytes)
// have room for a next link only; they live on their own singly linked
// list and are found through the prev-mini bit instead of a footer.
//
//	allocated:  [hdr][payload ...............]
//	free:       [hdr][next][prev] ...... [ftr]
//	free mini:  [hdr][next]
//
// The arena is bracketed by a zero-size allocated prologue footer at
// offset 0 and a zero-size allocated epilogue header at the end, so
// neighbor lookups never run off either side.
//
// # Size Classes
//
// With the default 14 buckets:
//
//	Bucket 0:       ..   32 bytes
//	Bucket 1:   33 ..   64 bytes
//	Bucket 2:   65 ..  128 bytes
//	...
//	Bucket 12: 65537 .. 131072 bytes
//	Bucket 13: larger
//
// Mini blocks bypass the buckets entirely.
//
// # Growth
//
// The arena is created on the first allocation with a single 16-byte
// request for the two sentinels. When no free block fits, the heap grows
// by max(block size, Options.ChunkSize) bytes; the new space replaces the
// old epilogue and merges with a free last block.
//
// # Consistency Checking
//
// Verify walks the whole heap and every free list and reports the first
// broken invariant as a *ConsistencyError. Setting Options.CheckEveryOp,
// or building with -tags heapdebug, runs it before and after every
// mutating call and panics on failure.
//
// # Debug Logging
//
// Set HEAPKIT_LOG_ALLOC=1 to log allocator events to stderr when no
// Options.Logger is given.
//
// # Thread Safety
//
// An Allocator is not safe for concurrent use. Use one per goroutine or
// guard it externally.
package alloc
