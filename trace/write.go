package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Write emits t in the text trace format.
func Write(w io.Writer, t *Trace) error {
	bw := bufio.NewWriter(w)
	if t.Name != "" {
		fmt.Fprintf(bw, "# %s\n", t.Name)
	}
	for _, op := range t.Ops {
		bw.WriteString(op.String())
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteFile writes t to path, replacing any existing file.
func WriteFile(path string, t *Trace) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("trace: create %s: %w", path, err)
	}
	if err := Write(f, t); err != nil {
		f.Close()
		return fmt.Errorf("trace: write %s: %w", path, err)
	}
	return f.Close()
}
