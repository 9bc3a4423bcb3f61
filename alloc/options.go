package alloc

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/joshuapare/heapkit/internal/format"
)

// Runtime logging toggle, controlled by the HEAPKIT_LOG_ALLOC env var. When
// set and no logger is supplied, allocators log to stderr at debug level.
var logAlloc = os.Getenv("HEAPKIT_LOG_ALLOC") != ""

// maxBuckets bounds Options.Buckets so bucket limits never overflow.
const maxBuckets = 48

// Options configures an Allocator.
type Options struct {
	// ChunkSize is the minimum number of bytes requested from the arena
	// whenever no free block fits. Rounded up to 16.
	ChunkSize int

	// Buckets is the number of segregated free lists. Bucket i holds free
	// blocks of size up to 32<<i; the last bucket takes everything larger.
	Buckets int

	// CheckEveryOp runs the consistency checker before and after every
	// mutating call and panics on the first violation. Building with the
	// heapdebug tag forces this on for every allocator.
	CheckEveryOp bool

	// Logger receives growth and diagnostic events. Nil means no logging.
	Logger *zap.Logger
}

// DefaultOptions returns the production configuration.
func DefaultOptions() Options {
	return Options{
		ChunkSize: format.DefaultChunkSize,
		Buckets:   format.DefaultBuckets,
	}
}

// normalize fills zero fields with defaults and validates the rest.
func (o Options) normalize() (Options, error) {
	if o.ChunkSize == 0 {
		o.ChunkSize = format.DefaultChunkSize
	}
	if o.ChunkSize < 0 {
		return o, fmt.Errorf("%w: chunk size %d", ErrBadOptions, o.ChunkSize)
	}
	o.ChunkSize = int(format.Align16(uint64(o.ChunkSize)))

	if o.Buckets == 0 {
		o.Buckets = format.DefaultBuckets
	}
	if o.Buckets < 1 || o.Buckets > maxBuckets {
		return o, fmt.Errorf("%w: bucket count %d outside [1, %d]", ErrBadOptions, o.Buckets, maxBuckets)
	}

	if o.Logger == nil {
		if logAlloc {
			l, err := zap.NewDevelopment()
			if err != nil {
				return o, fmt.Errorf("alloc: build debug logger: %w", err)
			}
			o.Logger = l.Named("alloc")
		} else {
			o.Logger = zap.NewNop()
		}
	}
	return o, nil
}
