package trace

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joshuapare/heapkit/internal/mmfile"
)

// maxLine bounds a single trace line.
const maxLine = 1 << 16

// ParseFile reads the trace at path. The trace is named after the file.
func ParseFile(path string) (*Trace, error) {
	data, release, err := mmfile.Map(path)
	if err != nil {
		return nil, fmt.Errorf("trace: open %s: %w", path, err)
	}
	defer release()
	return Parse(bytes.NewReader(data), filepath.Base(path))
}

// Parse reads a trace from r.
func Parse(r io.Reader, name string) (*Trace, error) {
	t := &Trace{Name: name}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLine)

	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		op, err := parseOp(strings.Fields(text))
		if err != nil {
			return nil, &SyntaxError{Name: name, Line: line, Msg: err.Error()}
		}
		op.Line = line
		t.Ops = append(t.Ops, op)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("trace: read %s: %w", name, err)
	}
	return t, nil
}

func parseOp(fields []string) (Op, error) {
	if len(fields[0]) != 1 {
		return Op{}, fmt.Errorf("unknown operation %q", fields[0])
	}
	op := Op{Kind: OpKind(fields[0][0])}

	var want int
	switch op.Kind {
	case OpAlloc, OpResize:
		want = 3
	case OpZeroAlloc:
		want = 4
	case OpFree:
		want = 2
	default:
		return Op{}, fmt.Errorf("unknown operation %q", fields[0])
	}
	if len(fields) != want {
		return Op{}, fmt.Errorf("%s takes %d arguments, got %d", op.Kind, want-1, len(fields)-1)
	}

	id, err := strconv.Atoi(fields[1])
	if err != nil || id < 0 {
		return Op{}, fmt.Errorf("bad id %q", fields[1])
	}
	op.ID = id

	switch op.Kind {
	case OpAlloc, OpResize:
		if op.Size, err = parseSize(fields[2]); err != nil {
			return Op{}, err
		}
	case OpZeroAlloc:
		if op.Count, err = parseSize(fields[2]); err != nil {
			return Op{}, err
		}
		if op.Size, err = parseSize(fields[3]); err != nil {
			return Op{}, err
		}
	}
	return op, nil
}

func parseSize(s string) (uint64, error) {
	n, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("bad size %q", s)
	}
	return n, nil
}
