package alloc

import "errors"

var (
	// ErrNoSpace indicates that no free block fits and the arena refused to grow.
	ErrNoSpace = errors.New("alloc: out of memory")

	// ErrOverflow indicates count * elemSize does not fit in a size.
	ErrOverflow = errors.New("alloc: size overflow")

	// ErrTooLarge indicates a request larger than any block can represent.
	ErrTooLarge = errors.New("alloc: request too large")

	// ErrBadOptions indicates an invalid Options value.
	ErrBadOptions = errors.New("alloc: invalid options")

	// ErrBadPointer indicates a pointer that does not address a live payload.
	ErrBadPointer = errors.New("alloc: bad pointer")
)
