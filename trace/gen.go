package trace

import (
	"fmt"
	"math/rand"
)

// GenOptions controls Generate.
type GenOptions struct {
	Ops     int    // operations before the final release sweep
	Seed    int64  // rand seed; equal seeds give equal traces
	MaxSize uint64 // largest single request, default 16 KiB
	MaxLive int    // cap on simultaneously live ids, default 512
}

const (
	defaultMaxSize = 16 << 10
	defaultMaxLive = 512
)

// Generate builds a random trace. Requests mix mini (at most 8 bytes),
// small (at most 512), and large (up to MaxSize) sizes; every id still
// live at the end is released so the trace leaves an empty heap.
func Generate(opts GenOptions) *Trace {
	if opts.MaxSize == 0 {
		opts.MaxSize = defaultMaxSize
	}
	if opts.MaxLive <= 0 {
		opts.MaxLive = defaultMaxLive
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	size := func() uint64 {
		var limit uint64
		switch r := rng.Intn(10); {
		case r < 3:
			limit = 8
		case r < 8:
			limit = 512
		default:
			limit = opts.MaxSize
		}
		limit = min(limit, opts.MaxSize)
		return 1 + uint64(rng.Int63n(int64(limit)))
	}

	t := &Trace{
		Name: fmt.Sprintf("random-seed%d-ops%d", opts.Seed, opts.Ops),
		Ops:  make([]Op, 0, opts.Ops+opts.MaxLive),
	}
	var live []int
	nextID := 0

	for range opts.Ops {
		r := rng.Intn(100)
		switch {
		case len(live) == 0 || (r < 45 && len(live) < opts.MaxLive):
			t.Ops = append(t.Ops, Op{Kind: OpAlloc, ID: nextID, Size: size()})
			live = append(live, nextID)
			nextID++
		case r < 55 && len(live) < opts.MaxLive:
			elem := uint64(1 + rng.Intn(16))
			count := 1 + size()/elem
			t.Ops = append(t.Ops, Op{Kind: OpZeroAlloc, ID: nextID, Count: count, Size: elem})
			live = append(live, nextID)
			nextID++
		case r < 70:
			id := live[rng.Intn(len(live))]
			t.Ops = append(t.Ops, Op{Kind: OpResize, ID: id, Size: size()})
		default:
			i := rng.Intn(len(live))
			t.Ops = append(t.Ops, Op{Kind: OpFree, ID: live[i]})
			live[i] = live[len(live)-1]
			live = live[:len(live)-1]
		}
	}
	for _, id := range live {
		t.Ops = append(t.Ops, Op{Kind: OpFree, ID: id})
	}
	return t
}
