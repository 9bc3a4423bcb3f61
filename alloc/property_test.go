package alloc

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/internal/format"
)

type liveAlloc struct {
	size uint64
	fill byte
}

func randomRequest(rng *rand.Rand) uint64 {
	switch rng.Intn(3) {
	case 0:
		return uint64(1 + rng.Intn(8))
	case 1:
		return uint64(1 + rng.Intn(256))
	default:
		return uint64(1 + rng.Intn(8192))
	}
}

// checkLive verifies round-trip and no-overlap for every live allocation.
func checkLive(t *testing.T, a *Allocator, live map[Ptr]liveAlloc) {
	t.Helper()
	ptrs := make([]Ptr, 0, len(live))
	for p, l := range live {
		requireFilled(t, a, p, int(l.size), l.fill)
		ptrs = append(ptrs, p)
	}
	slices.Sort(ptrs)
	for i := 1; i < len(ptrs); i++ {
		end := int(ptrs[i-1]) + a.UsableSize(ptrs[i-1])
		require.LessOrEqualf(t, end, int(ptrs[i])-format.WordSize,
			"payload 0x%X overlaps 0x%X", uint64(ptrs[i-1]), uint64(ptrs[i]))
	}
}

func Test_Property_RandomOpsKeepInvariants(t *testing.T) {
	for _, seed := range []int64{1, 42, 1337} {
		a, _ := newTestAllocator(t, Options{CheckEveryOp: true})
		rng := rand.New(rand.NewSource(seed)) // Fixed seed for reproducibility
		live := make(map[Ptr]liveAlloc)
		var order []Ptr

		pick := func() (int, Ptr) {
			i := rng.Intn(len(order))
			return i, order[i]
		}
		drop := func(i int) {
			order[i] = order[len(order)-1]
			order = order[:len(order)-1]
		}

		for step := range 2000 {
			v := byte(step)
			switch op := rng.Intn(10); {
			case op < 5 || len(order) == 0:
				size := randomRequest(rng)
				p := mustAlloc(t, a, size)
				require.Zero(t, uint64(p)%format.Alignment)
				_, dup := live[p]
				require.False(t, dup, "allocate returned live pointer 0x%X", uint64(p))
				fill(t, a, p, int(size), v)
				live[p] = liveAlloc{size, v}
				order = append(order, p)

			case op < 8:
				i, p := pick()
				a.Release(p)
				delete(live, p)
				drop(i)

			case op < 9:
				i, p := pick()
				old := live[p]
				size := randomRequest(rng)
				np, err := a.Resize(p, size)
				require.NoError(t, err)
				requireFilled(t, a, np, int(min(size, old.size)), old.fill)
				fill(t, a, np, int(size), v)
				delete(live, p)
				drop(i)
				live[np] = liveAlloc{size, v}
				order = append(order, np)

			default:
				n := uint64(1 + rng.Intn(64))
				elem := uint64(1 + rng.Intn(16))
				p, err := a.ZeroAllocate(n, elem)
				require.NoError(t, err)
				requireFilled(t, a, p, int(n*elem), 0)
				fill(t, a, p, int(n*elem), v)
				live[p] = liveAlloc{n * elem, v}
				order = append(order, p)
			}

			if step%50 == 0 {
				checkLive(t, a, live)
			}
		}
		checkLive(t, a, live)

		var liveBytes uint64
		a.Walk(func(bi BlockInfo) bool {
			if bi.Allocated {
				liveBytes += uint64(bi.Size)
			}
			return true
		})
		require.Equal(t, liveBytes, a.Stats().LiveBytes)

		for _, p := range order {
			a.Release(p)
		}
		require.Len(t, blocks(a), 1, "seed %d: releasing everything should leave one free block", seed)
	}
}
