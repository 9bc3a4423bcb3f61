// Package arena provides the growable memory region an allocator carves
// blocks out of.
//
// # Overview
//
// A Provider behaves like sbrk: it hands out a single contiguous byte range
// that only ever grows. Callers address the range by integer offsets, never
// by Go pointers, so a provider is free to move its backing store when it
// grows. Offsets stay valid across growth; slices returned by Bytes do not.
//
//	p := arena.NewSliceProvider(arena.DefaultMaxHeap)
//	base, err := p.Grow(4096) // base is the old break
//	if err != nil {
//	    return err
//	}
//	mem := p.Bytes()          // re-fetch after every Grow
//	mem[base] = 0x2A
//
// # Implementations
//
// SliceProvider: Go-heap backed, doubles its capacity, refuses to grow past
// a configured maximum. This is the default and works everywhere.
//
// MmapProvider: reserves the maximum heap size once with an anonymous
// mapping (Linux and Darwin only) and moves the break inside it. The base
// address never changes, and untouched pages cost nothing.
//
// # Thread Safety
//
// Providers are not thread-safe. Each allocator owns exactly one provider.
package arena
