package trace

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax indicates a malformed trace line.
	ErrSyntax = errors.New("trace: syntax error")

	// ErrUnknownID indicates an operation on an id that is not live.
	ErrUnknownID = errors.New("trace: unknown id")

	// ErrDuplicateID indicates an allocation into an id that is still live.
	ErrDuplicateID = errors.New("trace: id already live")

	// ErrCorrupted indicates the allocator broke a payload guarantee:
	// misalignment, overlap, lost bytes, or a non-zero zero-allocation.
	ErrCorrupted = errors.New("trace: allocator corrupted payload")

	// ErrInconsistent indicates the heap failed its consistency check.
	ErrInconsistent = errors.New("trace: heap inconsistent")
)

// SyntaxError reports a malformed line.
type SyntaxError struct {
	Name string
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("trace: %s:%d: %s", e.Name, e.Line, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }

// OpError reports a replay failure at one operation.
type OpError struct {
	Trace string
	Index int
	Op    Op
	Err   error
}

func (e *OpError) Error() string {
	if e.Op.Line > 0 {
		return fmt.Sprintf("trace: %s:%d: %s: %v", e.Trace, e.Op.Line, e.Op, e.Err)
	}
	return fmt.Sprintf("trace: %s op %d: %s: %v", e.Trace, e.Index, e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }
