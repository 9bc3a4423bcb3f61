package arena

import "fmt"

// DefaultMaxHeap is the default growth limit, 100 MiB.
const DefaultMaxHeap = 100 << 20

// Provider is the arena growth primitive consumed by the allocator.
type Provider interface {
	// Grow extends the arena by delta bytes and returns the previous break,
	// which is the offset of the first new byte. On failure nothing changes.
	Grow(delta int) (int, error)

	// Low returns the offset of the first arena byte (always 0).
	Low() int

	// High returns the offset of the last valid arena byte, or -1 while the
	// arena is empty.
	High() int

	// Size returns the number of bytes currently in the arena.
	Size() int

	// Bytes returns a view of [Low, High]. The view is invalidated by Grow.
	Bytes() []byte

	// Reset shrinks the arena back to empty so it can be reused.
	Reset()

	// Close releases the backing memory.
	Close() error
}

// Kind names a Provider implementation for configuration files and flags.
type Kind string

const (
	KindSlice Kind = "slice"
	KindMmap  Kind = "mmap"
)

// New constructs the provider named by kind with the given growth limit.
// A non-positive maxHeap selects DefaultMaxHeap.
func New(kind Kind, maxHeap int) (Provider, error) {
	if maxHeap <= 0 {
		maxHeap = DefaultMaxHeap
	}
	switch kind {
	case KindSlice, "":
		return NewSliceProvider(maxHeap), nil
	case KindMmap:
		p, err := NewMmapProvider(maxHeap)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
