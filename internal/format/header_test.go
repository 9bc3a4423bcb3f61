package format

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPack_Extract(t *testing.T) {
	tests := []struct {
		name      string
		size      uint64
		prevMini  bool
		prevAlloc bool
		alloc     bool
		want      Word
	}{
		{"epilogue", 0, false, true, true, 0x3},
		{"free mini after mini", 16, true, false, false, 0x14},
		{"allocated 4KB", 4096, false, true, true, 0x1003},
		{"all flags", 48, true, true, true, 0x37},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Pack(tt.size, tt.prevMini, tt.prevAlloc, tt.alloc)
			require.Equal(t, tt.want, w)
			assert.Equal(t, tt.size, ExtractSize(w))
			assert.Equal(t, tt.alloc, ExtractAlloc(w))
			assert.Equal(t, tt.prevAlloc, ExtractPrevAlloc(w))
			assert.Equal(t, tt.prevMini, ExtractPrevMini(w))
		})
	}
}

func TestPack_IgnoresLowSizeBits(t *testing.T) {
	// Sizes are always aligned; stray low bits must never leak into flags.
	w := Pack(0x1F, false, false, false)
	assert.Equal(t, uint64(0x10), ExtractSize(w))
	assert.False(t, ExtractAlloc(w))
	assert.False(t, ExtractPrevAlloc(w))
	assert.False(t, ExtractPrevMini(w))
}

func TestWithFlags(t *testing.T) {
	w := Pack(64, false, false, true)

	w = WithPrevAlloc(w, true)
	require.True(t, ExtractPrevAlloc(w))
	w = WithPrevMini(w, true)
	require.True(t, ExtractPrevMini(w))

	w = WithPrevAlloc(w, false)
	w = WithPrevMini(w, false)
	require.Equal(t, Pack(64, false, false, true), w)
}

func TestLookback(t *testing.T) {
	assert.Equal(t, PrevAllocated, Lookback(Pack(32, true, true, false)))
	assert.Equal(t, PrevAllocated, Lookback(Pack(32, false, true, false)))
	assert.Equal(t, PrevFreeMini, Lookback(Pack(32, true, false, false)))
	assert.Equal(t, PrevFree, Lookback(Pack(32, false, false, true)))

	assert.Equal(t, "free-mini", PrevFreeMini.String())
	assert.Equal(t, "unknown", PrevKind(9).String())
}

func TestDecode_RoundTrip(t *testing.T) {
	h := Header{Size: 256, Allocated: true, PrevMini: true}
	assert.Equal(t, h, Decode(h.Word()))
}

func TestWordEncoding(t *testing.T) {
	b := make([]byte, 24)
	PutWord(b, 8, Pack(32, false, true, false))
	assert.Equal(t, byte(0x22), b[8], "little-endian low byte first")
	assert.Equal(t, Pack(32, false, true, false), ReadWord(b, 8))

	PutLink(b, 16, 0x1008)
	assert.Equal(t, 0x1008, ReadLink(b, 16))

	require.Panics(t, func() { ReadWord(b, 20) }, "reads past the arena must not be silent")
}

func TestAlign16(t *testing.T) {
	assert.Equal(t, uint64(0), Align16(0))
	assert.Equal(t, uint64(16), Align16(1))
	assert.Equal(t, uint64(16), Align16(16))
	assert.Equal(t, uint64(32), Align16(17))
}

func TestAdjustedSize(t *testing.T) {
	tests := []struct {
		payload uint64
		want    uint64
	}{
		{1, MiniBlockSize},
		{8, MiniBlockSize},
		{9, 32},
		{24, 32},
		{25, 48},
		{4096 + 100, 4208},
	}
	for _, tt := range tests {
		got, ok := AdjustedSize(tt.payload)
		require.True(t, ok)
		assert.Equal(t, tt.want, got, "payload %d", tt.payload)
	}

	_, ok := AdjustedSize(MaxRequest + 1)
	assert.False(t, ok)
}

func TestAdjustedSize_LargestFitsInt(t *testing.T) {
	got, ok := AdjustedSize(MaxRequest)
	require.True(t, ok)
	assert.Equal(t, uint64(MaxBlockSize), got)
	assert.Zero(t, got%Alignment)
	assert.LessOrEqual(t, got, uint64(math.MaxInt))
	assert.Positive(t, int(got), "conversion to int must not wrap")
}
