// Package trace reads, writes, generates, and replays allocation traces.
//
// A trace is plain text with one operation per line:
//
//	a <id> <size>            allocate size bytes as id
//	r <id> <size>            resize id to size bytes
//	c <id> <count> <size>    zero-allocate count*size bytes as id
//	f <id>                   release id
//
// Blank lines and lines starting with # are ignored. Ids are non-negative
// integers naming one live allocation at a time; an id may be reused after
// it is released.
package trace

import "fmt"

// OpKind is the operation letter of a trace line.
type OpKind byte

const (
	OpAlloc     OpKind = 'a'
	OpResize    OpKind = 'r'
	OpZeroAlloc OpKind = 'c'
	OpFree      OpKind = 'f'
)

func (k OpKind) String() string {
	switch k {
	case OpAlloc:
		return "allocate"
	case OpResize:
		return "resize"
	case OpZeroAlloc:
		return "zero-allocate"
	case OpFree:
		return "release"
	default:
		return fmt.Sprintf("op(%q)", byte(k))
	}
}

// Op is one trace operation.
type Op struct {
	Kind  OpKind
	ID    int
	Size  uint64 // bytes for a and r, element size for c
	Count uint64 // element count for c
	Line  int    // 1-based source line, 0 if built in memory
}

// Bytes returns the payload size the operation requests. The product for
// zero-allocate may wrap; the replayer leaves overflow to the allocator.
func (o Op) Bytes() uint64 {
	if o.Kind == OpZeroAlloc {
		return o.Count * o.Size
	}
	return o.Size
}

func (o Op) String() string {
	switch o.Kind {
	case OpFree:
		return fmt.Sprintf("%c %d", o.Kind, o.ID)
	case OpZeroAlloc:
		return fmt.Sprintf("%c %d %d %d", o.Kind, o.ID, o.Count, o.Size)
	default:
		return fmt.Sprintf("%c %d %d", o.Kind, o.ID, o.Size)
	}
}

// Trace is a parsed trace.
type Trace struct {
	Name string
	Ops  []Op
}

// Counts returns how many operations of each kind t holds.
func (t *Trace) Counts() map[OpKind]int {
	m := make(map[OpKind]int, 4)
	for _, op := range t.Ops {
		m[op.Kind]++
	}
	return m
}
