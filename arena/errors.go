package arena

import "errors"

var (
	// ErrExhausted indicates the provider refused to grow any further.
	ErrExhausted = errors.New("arena: out of memory")

	// ErrNegativeGrow indicates a shrink request. Arenas only grow.
	ErrNegativeGrow = errors.New("arena: grow delta must not be negative")

	// ErrClosed indicates use of a provider after Close.
	ErrClosed = errors.New("arena: provider closed")

	// ErrUnsupported indicates the provider kind is not available on this platform.
	ErrUnsupported = errors.New("arena: provider not supported on this platform")

	// ErrUnknownKind indicates an unrecognised provider name.
	ErrUnknownKind = errors.New("arena: unknown provider kind")
)
