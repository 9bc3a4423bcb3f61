package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/arena"
)

// recordingProvider wraps a SliceProvider, remembers every growth request,
// and can be told to refuse further growth.
type recordingProvider struct {
	*arena.SliceProvider
	grows  []int
	refuse bool
}

func (p *recordingProvider) Grow(delta int) (int, error) {
	if p.refuse {
		return 0, arena.ErrExhausted
	}
	base, err := p.SliceProvider.Grow(delta)
	if err == nil {
		p.grows = append(p.grows, delta)
	}
	return base, err
}

func newTestAllocator(t *testing.T, opts Options) (*Allocator, *recordingProvider) {
	t.Helper()
	return newTestAllocatorMax(t, arena.DefaultMaxHeap, opts)
}

func newTestAllocatorMax(t *testing.T, maxHeap int, opts Options) (*Allocator, *recordingProvider) {
	t.Helper()
	p := &recordingProvider{SliceProvider: arena.NewSliceProvider(maxHeap)}
	a, err := New(p, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return a, p
}

func mustAlloc(t *testing.T, a *Allocator, size uint64) Ptr {
	t.Helper()
	p, err := a.Allocate(size)
	require.NoError(t, err)
	require.NotEqual(t, Null, p)
	return p
}

func fill(t *testing.T, a *Allocator, p Ptr, n int, v byte) {
	t.Helper()
	b := a.Payload(p)
	require.GreaterOrEqual(t, len(b), n)
	for i := range n {
		b[i] = v
	}
}

func requireFilled(t *testing.T, a *Allocator, p Ptr, n int, v byte) {
	t.Helper()
	b := a.Payload(p)
	require.GreaterOrEqual(t, len(b), n)
	for i := range n {
		if b[i] != v {
			require.Failf(t, "payload changed", "ptr 0x%X byte %d = 0x%02X, want 0x%02X", uint64(p), i, b[i], v)
		}
	}
}

func blocks(a *Allocator) []BlockInfo {
	var out []BlockInfo
	a.Walk(func(bi BlockInfo) bool {
		out = append(out, bi)
		return true
	})
	return out
}

func totalFree(a *Allocator) int {
	buckets, mini := a.FreeListLengths()
	n := mini
	for _, c := range buckets {
		n += c
	}
	return n
}

// recoverConsistency runs fn and returns the *ConsistencyError it panicked
// with, or nil if it returned normally.
func recoverConsistency(t *testing.T, fn func()) (ce *ConsistencyError) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			var ok bool
			ce, ok = r.(*ConsistencyError)
			require.Truef(t, ok, "panic value %T is not *ConsistencyError: %v", r, r)
		}
	}()
	fn()
	return nil
}
