package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceProvider_GrowReturnsOldBreak(t *testing.T) {
	p := NewSliceProvider(1 << 20)
	require.Equal(t, -1, p.High())

	base, err := p.Grow(16)
	require.NoError(t, err)
	assert.Equal(t, 0, base)

	base, err = p.Grow(4096)
	require.NoError(t, err)
	assert.Equal(t, 16, base)

	assert.Equal(t, 0, p.Low())
	assert.Equal(t, 16+4096-1, p.High())
	assert.Equal(t, 16+4096, p.Size())
	assert.Len(t, p.Bytes(), 16+4096)
}

func TestSliceProvider_PreservesContentsAcrossReallocation(t *testing.T) {
	p := NewSliceProvider(1 << 24)

	_, err := p.Grow(64)
	require.NoError(t, err)
	copy(p.Bytes(), "payload survives growth")

	// Force the backing store past its first capacity.
	_, err = p.Grow(minCapacity * 2)
	require.NoError(t, err)

	assert.Equal(t, "payload survives growth", string(p.Bytes()[:23]))
}

func TestSliceProvider_Exhaustion(t *testing.T) {
	p := NewSliceProvider(4096)

	_, err := p.Grow(4000)
	require.NoError(t, err)

	_, err = p.Grow(200)
	require.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 4000, p.Size(), "failed growth must not move the break")

	_, err = p.Grow(96)
	require.NoError(t, err, "growth up to the limit is allowed")
	assert.Equal(t, 4096, p.Size())
}

func TestSliceProvider_RejectsShrink(t *testing.T) {
	p := NewSliceProvider(0)
	assert.Equal(t, DefaultMaxHeap, p.MaxHeap())

	_, err := p.Grow(-8)
	require.ErrorIs(t, err, ErrNegativeGrow)
}

func TestSliceProvider_ResetAndClose(t *testing.T) {
	p := NewSliceProvider(1 << 20)
	_, err := p.Grow(1024)
	require.NoError(t, err)

	p.Reset()
	assert.Zero(t, p.Size())
	base, err := p.Grow(32)
	require.NoError(t, err)
	assert.Zero(t, base)

	require.NoError(t, p.Close())
	_, err = p.Grow(32)
	require.ErrorIs(t, err, ErrClosed)
}

func TestNew(t *testing.T) {
	p, err := New(KindSlice, 0)
	require.NoError(t, err)
	assert.IsType(t, &SliceProvider{}, p)

	p, err = New("", 8192)
	require.NoError(t, err)
	assert.Equal(t, 8192, p.(*SliceProvider).MaxHeap())

	_, err = New("brk", 0)
	require.ErrorIs(t, err, ErrUnknownKind)
}
