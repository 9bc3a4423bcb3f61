//go:build !(linux || darwin)

// Package mmfile maps trace files read-only so large traces are parsed
// without copying them onto the Go heap.
package mmfile

import "os"

// Map reads the whole file where mmap is unavailable.
func Map(path string) ([]byte, func() error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return data, func() error { return nil }, nil
}
