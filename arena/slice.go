package arena

import (
	"fmt"

	"github.com/bytedance/gopkg/lang/dirtmake"
)

// minCapacity is the first backing allocation made by a SliceProvider.
const minCapacity = 64 << 10

// SliceProvider is a Provider backed by ordinary Go memory.
//
// Growth never zeroes the new bytes, matching the contract of a real break
// pointer: fresh arena memory has unspecified contents.
type SliceProvider struct {
	data    []byte
	brk     int
	maxHeap int
	closed  bool
}

var _ Provider = (*SliceProvider)(nil)

// NewSliceProvider returns an empty provider that refuses to grow past maxHeap bytes.
func NewSliceProvider(maxHeap int) *SliceProvider {
	if maxHeap <= 0 {
		maxHeap = DefaultMaxHeap
	}
	return &SliceProvider{maxHeap: maxHeap}
}

// Grow implements Provider.
func (p *SliceProvider) Grow(delta int) (int, error) {
	if p.closed {
		return 0, ErrClosed
	}
	if delta < 0 {
		return 0, ErrNegativeGrow
	}
	if delta > p.maxHeap-p.brk {
		return 0, fmt.Errorf("%w: break %d + %d exceeds max heap %d",
			ErrExhausted, p.brk, delta, p.maxHeap)
	}

	old := p.brk
	need := old + delta
	if need > cap(p.data) {
		newCap := max(2*cap(p.data), need, minCapacity)
		newCap = min(newCap, p.maxHeap)
		nb := dirtmake.Bytes(need, newCap)
		copy(nb, p.data[:old])
		p.data = nb
	} else {
		p.data = p.data[:need]
	}
	p.brk = need
	return old, nil
}

// Low implements Provider.
func (p *SliceProvider) Low() int { return 0 }

// High implements Provider.
func (p *SliceProvider) High() int { return p.brk - 1 }

// Size implements Provider.
func (p *SliceProvider) Size() int { return p.brk }

// Bytes implements Provider.
func (p *SliceProvider) Bytes() []byte { return p.data[:p.brk] }

// MaxHeap returns the growth limit.
func (p *SliceProvider) MaxHeap() int { return p.maxHeap }

// Reset implements Provider. The backing store is kept for reuse.
func (p *SliceProvider) Reset() {
	p.brk = 0
	p.data = p.data[:0]
}

// Close implements Provider.
func (p *SliceProvider) Close() error {
	p.data = nil
	p.brk = 0
	p.closed = true
	return nil
}
