package trace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/gopkg/util/xxhash3"
	"github.com/tidwall/btree"
	"go.uber.org/zap"

	"github.com/joshuapare/heapkit/alloc"
	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
)

// ctxCheckEvery is how many operations run between context checks.
const ctxCheckEvery = 1024

// Options controls a Replayer.
type Options struct {
	// Verify fills every payload with a pattern and checks, on each
	// operation, alignment, bounds, overlap with other live payloads,
	// preservation of payload bytes, and zero-fill.
	Verify bool

	// Check runs the heap consistency checker after every operation.
	Check bool

	Logger *zap.Logger
}

// Result summarizes one replay.
type Result struct {
	Name       string
	Ops        int
	Allocs     int
	Resizes    int
	ZeroAllocs int
	Frees      int

	// PeakLive is the high-water mark of requested live payload bytes.
	PeakLive uint64
	// HeapSize is the arena size at the end of the trace.
	HeapSize int
	// Utilization is PeakLive / HeapSize.
	Utilization float64
	Elapsed     time.Duration

	Stats alloc.Stats
}

type record struct {
	ptr    alloc.Ptr
	size   uint64
	digest uint64
}

type interval struct {
	lo, hi int // payload [lo, hi)
	id     int
}

// Replayer drives an allocator with traces.
type Replayer struct {
	a    *alloc.Allocator
	opts Options
	log  *zap.Logger

	live  map[int]*record
	spans *btree.BTreeG[interval]

	liveBytes uint64
	peak      uint64
}

// NewReplayer returns a replayer that runs traces against a.
func NewReplayer(a *alloc.Allocator, opts Options) *Replayer {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Replayer{a: a, opts: opts, log: log}
}

// Run replays t against a freshly reset allocator. Ids still live when
// the trace ends are left allocated.
func (r *Replayer) Run(ctx context.Context, t *Trace) (Result, error) {
	r.a.Reset()
	r.live = make(map[int]*record)
	r.spans = btree.NewBTreeG(func(x, y interval) bool { return x.lo < y.lo })
	r.liveBytes, r.peak = 0, 0

	res := Result{Name: t.Name}
	start := time.Now()

	for i, op := range t.Ops {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return res, err
			}
		}
		if err := r.step(op); err != nil {
			r.log.Warn("replay failed",
				zap.String("trace", t.Name),
				zap.Int("line", op.Line),
				zap.Stringer("op", op),
				zap.Error(err))
			return res, &OpError{Trace: t.Name, Index: i, Op: op, Err: err}
		}

		res.Ops++
		switch op.Kind {
		case OpAlloc:
			res.Allocs++
		case OpResize:
			res.Resizes++
		case OpZeroAlloc:
			res.ZeroAllocs++
		case OpFree:
			res.Frees++
		}
	}

	res.Elapsed = time.Since(start)
	res.PeakLive = r.peak
	res.Stats = r.a.Stats()
	res.HeapSize = res.Stats.HeapSize
	if res.HeapSize > 0 {
		res.Utilization = float64(r.peak) / float64(res.HeapSize)
	}

	r.log.Debug("replay done",
		zap.String("trace", t.Name),
		zap.Int("ops", res.Ops),
		zap.Uint64("peak_live", res.PeakLive),
		zap.Int("heap_size", res.HeapSize),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

// step applies op and, with Options.Check, verifies the heap afterwards.
func (r *Replayer) step(op Op) error {
	if err := r.apply(op); err != nil {
		return err
	}
	if r.opts.Check {
		if err := r.a.Verify(); err != nil {
			return fmt.Errorf("%w: %w", ErrInconsistent, err)
		}
	}
	return nil
}

func (r *Replayer) apply(op Op) error {
	switch op.Kind {
	case OpAlloc:
		if _, ok := r.live[op.ID]; ok {
			return ErrDuplicateID
		}
		p, err := r.a.Allocate(op.Size)
		if err != nil {
			return err
		}
		return r.track(op.ID, p, op.Size, false)

	case OpZeroAlloc:
		if _, ok := r.live[op.ID]; ok {
			return ErrDuplicateID
		}
		p, err := r.a.ZeroAllocate(op.Count, op.Size)
		if errors.Is(err, alloc.ErrOverflow) {
			// Overflow is a defined null result, not a replay failure.
			return r.track(op.ID, alloc.Null, 0, true)
		}
		if err != nil {
			return err
		}
		return r.track(op.ID, p, op.Bytes(), true)

	case OpResize:
		rec, ok := r.live[op.ID]
		if !ok {
			p, err := r.a.Resize(alloc.Null, op.Size)
			if err != nil {
				return err
			}
			return r.track(op.ID, p, op.Size, false)
		}
		if err := r.checkDigest(op.ID, rec); err != nil {
			return err
		}
		keep := min(rec.size, op.Size)
		var want uint64
		if r.opts.Verify && keep > 0 {
			want = xxhash3.Hash(r.a.Payload(rec.ptr)[:keep])
		}
		p, err := r.a.Resize(rec.ptr, op.Size)
		if err != nil {
			return err
		}
		r.untrack(op.ID, rec)
		if r.opts.Verify && keep > 0 {
			if got := xxhash3.Hash(r.a.Payload(p)[:keep]); got != want {
				return fmt.Errorf("%w: resize lost the first %d bytes", ErrCorrupted, keep)
			}
		}
		return r.track(op.ID, p, op.Size, false)

	case OpFree:
		rec, ok := r.live[op.ID]
		if !ok {
			return ErrUnknownID
		}
		if err := r.checkDigest(op.ID, rec); err != nil {
			return err
		}
		r.a.Release(rec.ptr)
		r.untrack(op.ID, rec)
		return nil

	default:
		return fmt.Errorf("%w: unknown operation %s", ErrSyntax, op.Kind)
	}
}

// track records a new live payload. Zero-byte requests yield Null, which
// stays live under its id so a later release or resize still finds it.
func (r *Replayer) track(id int, p alloc.Ptr, size uint64, zeroed bool) error {
	if p == alloc.Null {
		if size != 0 {
			return fmt.Errorf("%w: allocate(%d) returned null without error", ErrCorrupted, size)
		}
		r.live[id] = &record{}
		return nil
	}

	rec := &record{ptr: p, size: size}
	if r.opts.Verify {
		if err := r.place(id, p, size); err != nil {
			return err
		}
		payload := r.a.Payload(p)
		if zeroed {
			for i, b := range payload[:size] {
				if b != 0 {
					return fmt.Errorf("%w: zero-allocated byte %d is 0x%02X", ErrCorrupted, i, b)
				}
			}
		}
		fillPattern(payload[:size], id)
		rec.digest = xxhash3.Hash(payload[:size])
	}

	r.live[id] = rec
	r.liveBytes += size
	r.peak = max(r.peak, r.liveBytes)
	return nil
}

func (r *Replayer) untrack(id int, rec *record) {
	delete(r.live, id)
	r.liveBytes -= rec.size
	if r.opts.Verify && rec.ptr != alloc.Null {
		r.spans.Delete(interval{lo: int(rec.ptr)})
	}
}

// place validates a new payload's address and adds it to the interval set.
func (r *Replayer) place(id int, p alloc.Ptr, size uint64) error {
	lo := int(p)
	if lo%format.Alignment != 0 {
		return fmt.Errorf("%w: payload 0x%X not %d-byte aligned", ErrCorrupted, lo, format.Alignment)
	}
	hi := lo + int(size)

	var clash *interval
	r.spans.Descend(interval{lo: lo}, func(it interval) bool {
		if it.hi > lo {
			clash = &it
		}
		return false
	})
	if clash == nil {
		r.spans.Ascend(interval{lo: lo}, func(it interval) bool {
			if it.lo < hi {
				clash = &it
			}
			return false
		})
	}
	if clash != nil {
		return fmt.Errorf("%w: payload [0x%X, 0x%X) for id %d overlaps id %d at [0x%X, 0x%X)",
			ErrCorrupted, lo, hi, id, clash.id, clash.lo, clash.hi)
	}
	if !buf.Has(r.a.Provider().Bytes(), lo, int(size)) {
		return fmt.Errorf("%w: payload [0x%X, 0x%X) past arena end 0x%X", ErrCorrupted, lo, hi, r.a.Provider().Size())
	}
	if usable := r.a.UsableSize(p); uint64(usable) < size {
		return fmt.Errorf("%w: payload 0x%X holds %d bytes, asked for %d", ErrCorrupted, lo, usable, size)
	}
	r.spans.Set(interval{lo: lo, hi: hi, id: id})
	return nil
}

func (r *Replayer) checkDigest(id int, rec *record) error {
	if !r.opts.Verify || rec.size == 0 {
		return nil
	}
	payload := r.a.Payload(rec.ptr)
	if uint64(len(payload)) < rec.size {
		return fmt.Errorf("%w: id %d payload no longer live", ErrCorrupted, id)
	}
	if xxhash3.Hash(payload[:rec.size]) != rec.digest {
		return fmt.Errorf("%w: id %d payload changed while live", ErrCorrupted, id)
	}
	return nil
}

// fillPattern writes bytes that depend on both id and position so that
// swapped or shifted payloads are caught.
func fillPattern(b []byte, id int) {
	seed := byte(id*131 + 17)
	for i := range b {
		b[i] = seed + byte(i)
	}
}

// IsVerifyFailure reports whether err came from a broken allocator
// guarantee rather than a malformed trace.
func IsVerifyFailure(err error) bool {
	return errors.Is(err, ErrCorrupted) || errors.Is(err, ErrInconsistent)
}
