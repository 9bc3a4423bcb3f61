package alloc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/joshuapare/heapkit/internal/format"
)

func requireViolation(t *testing.T, a *Allocator, invariant string) *ConsistencyError {
	t.Helper()
	err := a.Verify()
	require.Error(t, err)
	var ce *ConsistencyError
	require.True(t, errors.As(err, &ce), "want *ConsistencyError, got %T", err)
	require.Equalf(t, invariant, ce.Invariant, "unexpected violation: %v", ce)
	return ce
}

func Test_Verify_CleanHeap(t *testing.T) {
	a, _ := newTestAllocator(t, DefaultOptions())
	require.NoError(t, a.Verify())

	ptrs := []Ptr{
		mustAlloc(t, a, 8),
		mustAlloc(t, a, 24),
		mustAlloc(t, a, 300),
		mustAlloc(t, a, 8),
		mustAlloc(t, a, 9000),
	}
	a.Release(ptrs[0])
	a.Release(ptrs[2])
	require.NoError(t, a.Verify())
	assert.True(t, a.CheckConsistency("test"))
}

func Test_Verify_DetectsFooterMismatch(t *testing.T) {
	a, _ := newTestAllocator(t, DefaultOptions())
	p := mustAlloc(t, a, 100)
	mustAlloc(t, a, 8)
	a.Release(p)

	b := blockOf(p)
	format.PutWord(a.mem, a.footerOf(b), format.Pack(uint64(a.size(b)), false, false, false))

	ce := requireViolation(t, a, InvariantFooter)
	assert.Equal(t, int(b), ce.Offset)
	assert.Contains(t, ce.Details, "footer")
}

func Test_Verify_DetectsStalePrevFlags(t *testing.T) {
	a, _ := newTestAllocator(t, DefaultOptions())
	mustAlloc(t, a, 100)
	q := mustAlloc(t, a, 100)

	b := blockOf(q)
	a.setHeader(b, format.WithPrevAlloc(a.header(b), false))
	ce := requireViolation(t, a, InvariantPrevFlags)
	assert.Equal(t, int(b), ce.Offset)

	a.setHeader(b, format.WithPrevAlloc(a.header(b), true))
	a.setHeader(b, format.WithPrevMini(a.header(b), true))
	requireViolation(t, a, InvariantPrevFlags)
}

func Test_Verify_DetectsAdjacentFree(t *testing.T) {
	a, _ := newTestAllocator(t, DefaultOptions())
	p := mustAlloc(t, a, 100)
	q := mustAlloc(t, a, 100)
	mustAlloc(t, a, 100)
	a.Release(p)

	// Mark q free behind the allocator's back, with consistent tags.
	b := blockOf(q)
	w := format.Pack(uint64(a.size(b)), false, false, false)
	a.setHeader(b, w)
	format.PutWord(a.mem, a.footerOf(b), w)
	n := a.next(b)
	a.setHeader(n, format.WithPrevAlloc(a.header(n), false))

	requireViolation(t, a, InvariantAdjacentFree)
}

func Test_Verify_DetectsUnlistedFreeBlock(t *testing.T) {
	a, _ := newTestAllocator(t, DefaultOptions())
	p := mustAlloc(t, a, 100)
	mustAlloc(t, a, 100)
	a.Release(p)

	a.removeFree(blockOf(p))
	requireViolation(t, a, InvariantFreeCount)
}

func Test_Verify_DetectsWrongBucket(t *testing.T) {
	a, _ := newTestAllocator(t, DefaultOptions())
	p := mustAlloc(t, a, 100)
	mustAlloc(t, a, 100)
	a.Release(p)

	b := blockOf(p)
	a.removeFree(b)
	a.stats.FreeBlocks++
	a.setFreeNext(b, a.roots[0])
	a.setFreePrev(b, none)
	a.roots[0] = b

	requireViolation(t, a, InvariantListBucket)
}

func Test_Verify_DetectsAllocatedBlockOnList(t *testing.T) {
	a, _ := newTestAllocator(t, DefaultOptions())
	p := mustAlloc(t, a, 8)
	mustAlloc(t, a, 8)

	a.setFreeNext(blockOf(p), a.miniRoot)
	a.miniRoot = blockOf(p)

	ce := requireViolation(t, a, InvariantListMember)
	assert.Equal(t, int(blockOf(p)), ce.Offset)
}

func Test_Verify_DetectsMiniListCycle(t *testing.T) {
	a, _ := newTestAllocator(t, DefaultOptions())
	m1 := mustAlloc(t, a, 8)
	mustAlloc(t, a, 100)
	m2 := mustAlloc(t, a, 8)
	mustAlloc(t, a, 100)
	a.Release(m1)
	a.Release(m2)
	require.NoError(t, a.Verify())

	// m2 -> m1 -> m2 ...
	a.setFreeNext(blockOf(m1), blockOf(m2))
	err := a.Verify()
	require.Error(t, err)
	var ce *ConsistencyError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, []string{InvariantListLinks, InvariantListMember}, ce.Invariant)
}

func Test_Verify_DetectsBrokenBackLink(t *testing.T) {
	a, _ := newTestAllocator(t, DefaultOptions())
	p := mustAlloc(t, a, 100)
	mustAlloc(t, a, 8)
	q := mustAlloc(t, a, 100)
	mustAlloc(t, a, 8)
	a.Release(p)
	a.Release(q)
	require.NoError(t, a.Verify())

	// Both 112-byte blocks share a bucket: q is the head, p follows.
	a.setFreePrev(blockOf(p), none)
	ce := requireViolation(t, a, InvariantListLinks)
	assert.Equal(t, int(blockOf(p)), ce.Offset)
}

func Test_Verify_DetectsEpilogueFlags(t *testing.T) {
	a, _ := newTestAllocator(t, DefaultOptions())
	mustAlloc(t, a, 100)

	ep := a.epilogue()
	a.setHeader(ep, format.WithPrevAlloc(a.header(ep), true))
	requireViolation(t, a, InvariantEpilogue)
}

func Test_Verify_DetectsBadSize(t *testing.T) {
	a, _ := newTestAllocator(t, DefaultOptions())
	p := mustAlloc(t, a, 100)

	b := blockOf(p)
	a.setHeader(b, format.Pack(uint64(a.size(b))+1<<30, false, true, true))
	requireViolation(t, a, InvariantBounds)

	a.setHeader(b, format.Pack(0, false, true, true))
	requireViolation(t, a, InvariantBlockSize)
}

func Test_Verify_DetectsPrologue(t *testing.T) {
	a, _ := newTestAllocator(t, DefaultOptions())
	mustAlloc(t, a, 100)

	format.PutWord(a.mem, 0, format.Pack(32, false, true, false))
	requireViolation(t, a, InvariantPrologue)
}

func Test_CheckEveryOp_PanicsOnCorruption(t *testing.T) {
	a, _ := newTestAllocator(t, Options{CheckEveryOp: true})
	p := mustAlloc(t, a, 100)
	mustAlloc(t, a, 100)
	a.Release(p)

	b := blockOf(p)
	format.PutWord(a.mem, a.footerOf(b), 0)

	ce := recoverConsistency(t, func() { _, _ = a.Allocate(8) })
	require.NotNil(t, ce)
	assert.Equal(t, InvariantFooter, ce.Invariant)
	assert.Equal(t, "allocate:enter", ce.Site)
	assert.Contains(t, ce.Error(), "allocate:enter")
}

func Test_CheckConsistency_LogsViolation(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	a, _ := newTestAllocator(t, Options{Logger: zap.New(core)})
	p := mustAlloc(t, a, 100)
	mustAlloc(t, a, 100)
	a.Release(p)

	a.removeFree(blockOf(p))
	assert.False(t, a.CheckConsistency("unit"))

	entries := logs.FilterMessage("heap consistency violation").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, InvariantFreeCount, fields["invariant"])
	assert.Equal(t, "unit", fields["site"])
}

func Test_ConsistencyError_Format(t *testing.T) {
	ce := &ConsistencyError{Invariant: InvariantFooter, Message: "footer does not match header", Offset: 0x40}
	assert.Equal(t, "alloc: footer violated at offset 0x40: footer does not match header", ce.Error())

	ce.Site = "release:exit"
	assert.Equal(t, "alloc: footer violated at offset 0x40 (release:exit): footer does not match header", ce.Error())
}
