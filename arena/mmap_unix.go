//go:build linux || darwin

package arena

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// MmapProvider reserves its whole growth limit up front with an anonymous
// private mapping and moves a break inside it. The kernel backs pages
// lazily, so the reservation costs address space rather than memory.
type MmapProvider struct {
	data []byte
	brk  int
}

var _ Provider = (*MmapProvider)(nil)

// NewMmapProvider maps maxHeap bytes of anonymous memory.
func NewMmapProvider(maxHeap int) (*MmapProvider, error) {
	if maxHeap <= 0 {
		maxHeap = DefaultMaxHeap
	}
	data, err := unix.Mmap(
		-1,
		0,
		maxHeap,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON,
	)
	if err != nil {
		return nil, fmt.Errorf("arena: mmap %d bytes: %w", maxHeap, err)
	}
	return &MmapProvider{data: data}, nil
}

// Grow implements Provider.
func (p *MmapProvider) Grow(delta int) (int, error) {
	if p.data == nil {
		return 0, ErrClosed
	}
	if delta < 0 {
		return 0, ErrNegativeGrow
	}
	if delta > len(p.data)-p.brk {
		return 0, fmt.Errorf("%w: break %d + %d exceeds reservation %d",
			ErrExhausted, p.brk, delta, len(p.data))
	}
	old := p.brk
	p.brk += delta
	return old, nil
}

// Low implements Provider.
func (p *MmapProvider) Low() int { return 0 }

// High implements Provider.
func (p *MmapProvider) High() int { return p.brk - 1 }

// Size implements Provider.
func (p *MmapProvider) Size() int { return p.brk }

// Bytes implements Provider.
func (p *MmapProvider) Bytes() []byte { return p.data[:p.brk] }

// MaxHeap returns the size of the reservation.
func (p *MmapProvider) MaxHeap() int { return len(p.data) }

// Reset implements Provider. Touched pages are handed back to the kernel;
// the reservation itself stays mapped.
func (p *MmapProvider) Reset() {
	if p.data == nil || p.brk == 0 {
		p.brk = 0
		return
	}
	// Best effort: a failed advise only means the pages stay resident.
	_ = unix.Madvise(p.data[:p.brk], unix.MADV_DONTNEED)
	p.brk = 0
}

// Close implements Provider.
func (p *MmapProvider) Close() error {
	if p.data == nil {
		return nil
	}
	err := unix.Munmap(p.data)
	p.data = nil
	p.brk = 0
	if err != nil {
		return fmt.Errorf("arena: munmap: %w", err)
	}
	return nil
}
