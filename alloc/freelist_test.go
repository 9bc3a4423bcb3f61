package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_FreeList_BucketFor(t *testing.T) {
	a, _ := newTestAllocator(t, DefaultOptions())

	tests := []struct {
		size int
		want int
	}{
		{16, 0},
		{32, 0},
		{48, 1},
		{64, 1},
		{80, 2},
		{128, 2},
		{4096, 7},
		{4112, 8},
		{65536, 11},
		{131072, 12},
		{131088, 13},
		{1 << 30, 13},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.want, a.bucketFor(tt.size), "bucketFor(%d)", tt.size)
	}

	for i := range 13 {
		assert.Equal(t, 32<<i, a.BucketLimit(i))
	}
	assert.Equal(t, -1, a.BucketLimit(13))
}

func Test_FreeList_LIFOWithinBucket(t *testing.T) {
	a, _ := newTestAllocator(t, Options{CheckEveryOp: true})

	var ptrs []Ptr
	for range 4 {
		ptrs = append(ptrs, mustAlloc(t, a, 100))
		mustAlloc(t, a, 8) // separator
	}
	for _, p := range ptrs {
		a.Release(p)
	}

	buckets, _ := a.FreeListLengths()
	require.Equal(t, 4, buckets[2])

	// Reused newest first.
	for i := len(ptrs) - 1; i >= 0; i-- {
		assert.Equal(t, ptrs[i], mustAlloc(t, a, 100))
	}
}

func Test_FreeList_RemoveFromMiddle(t *testing.T) {
	a, _ := newTestAllocator(t, Options{CheckEveryOp: true})

	var ptrs []Ptr
	for range 3 {
		ptrs = append(ptrs, mustAlloc(t, a, 100))
		mustAlloc(t, a, 8)
	}
	for _, p := range ptrs {
		a.Release(p)
	}

	// List is ptrs[2] -> ptrs[1] -> ptrs[0]; unlink the middle entry.
	a.removeFree(blockOf(ptrs[1]))
	a.insertFree(blockOf(ptrs[1]))
	require.NoError(t, a.Verify())

	assert.Equal(t, ptrs[1], mustAlloc(t, a, 100))
}

func Test_FreeList_FirstFitAcrossBuckets(t *testing.T) {
	a, _ := newTestAllocator(t, Options{CheckEveryOp: true})

	small := mustAlloc(t, a, 40) // 48, bucket 1
	mustAlloc(t, a, 8)
	big := mustAlloc(t, a, 1000) // 1008, bucket 5
	mustAlloc(t, a, 8)
	a.Release(small)
	a.Release(big)

	// 200 bytes needs bucket 3; the first non-empty larger bucket wins.
	p := mustAlloc(t, a, 200)
	assert.Equal(t, big, p)
}
