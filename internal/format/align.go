package format

import "math"

// Align16 returns n rounded up to the next multiple of Alignment.
//
// Example:
//
//	Align16(1)  = 16
//	Align16(16) = 16
//	Align16(17) = 32
func Align16(n uint64) uint64 {
	return (n + AlignmentMask) &^ AlignmentMask
}

// AdjustedSize converts a payload request into a block size: one header
// word of overhead, rounded to Alignment, never smaller than a mini block.
// ok is false when the request is too large to represent.
func AdjustedSize(payload uint64) (uint64, bool) {
	if payload > MaxRequest {
		return 0, false
	}
	return max(Align16(payload+WordSize), MiniBlockSize), true
}

// MaxBlockSize is the largest block size, aligned and representable as a
// non-negative int on every GOARCH.
const MaxBlockSize = min(1<<62, math.MaxInt) &^ AlignmentMask

// MaxRequest is the largest payload AdjustedSize accepts.
const MaxRequest = MaxBlockSize - WordSize
