package alloc

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/internal/format"
)

func TestInit_Layout(t *testing.T) {
	h := newTestHeap(t)

	b := h.Region().Bytes()
	require.Len(t, b, 32)
	require.Equal(t, format.PrologueTag, format.ReadTag(b, 8))
	require.Equal(t, format.PrologueTag, format.ReadTag(b, 16))
	require.Equal(t, format.EpilogueTag, format.ReadTag(b, 24))
	require.Equal(t, Ptr(32), h.First())
	require.Equal(t, [NumClasses]int{}, h.Buckets())
	assertInvariants(t, h)
}

func TestInit_Twice(t *testing.T) {
	h := newTestHeap(t)
	require.ErrorIs(t, h.Init(), ErrInitialized)
}

func TestUninitialized(t *testing.T) {
	h := New(nil)
	_, err := h.Malloc(16)
	require.ErrorIs(t, err, ErrUninitialized)
	require.ErrorIs(t, h.Free(Ptr(32)), ErrUninitialized)
	require.ErrorIs(t, h.Validate("x"), ErrUninitialized)
}

func TestMalloc_FirstBlockComesFromExtension(t *testing.T) {
	h := newTestHeap(t)

	p, err := h.Malloc(100)
	require.NoError(t, err)
	require.Equal(t, Ptr(32), p)
	require.Equal(t, 128, blockSizeOf(h, p))
	require.Len(t, h.Bytes(p), 112)
	require.Equal(t, 160, h.Size())

	s := h.Stats()
	require.Equal(t, 1, s.AllocCalls)
	require.Equal(t, 1, s.AllocSlowPath)
	require.Equal(t, 1, s.GrowCalls)
	require.Equal(t, int64(128), s.GrowBytes)
	assertInvariants(t, h)
}

func TestMalloc_ZeroGetsMinimumBlock(t *testing.T) {
	h := newTestHeap(t)
	p, err := h.Malloc(0)
	require.NoError(t, err)
	require.Equal(t, format.MinBlockSize, blockSizeOf(h, p))
}

func TestMalloc_NegativeSize(t *testing.T) {
	h := newTestHeap(t)
	_, err := h.Malloc(-1)
	require.ErrorIs(t, err, ErrBadSize)
	_, err = h.Malloc(math.MaxInt)
	require.ErrorIs(t, err, ErrBadSize)
}

func TestMalloc_Alignment(t *testing.T) {
	h := newTestHeap(t)
	for size := 0; size < 600; size += 7 {
		p, err := h.Malloc(size)
		require.NoError(t, err)
		require.Zero(t, int(p)%16, "Malloc(%d) = 0x%X", size, int(p))
		if size%3 == 0 {
			require.NoError(t, h.Free(p))
		}
	}
	assertInvariants(t, h)
}

func TestMalloc_ReusesFreedBlock(t *testing.T) {
	h := newTestHeap(t)
	guard := mustMalloc(t, h, 16, 0xEE)
	_ = guard

	p := mustMalloc(t, h, 200, 0x11)
	_ = mustMalloc(t, h, 16, 0xEE) // keep p away from the epilogue
	before := h.FreeBlocks()

	require.NoError(t, h.Free(p))
	require.Equal(t, before+1, h.FreeBlocks())

	q, err := h.Malloc(200)
	require.NoError(t, err)
	require.Equal(t, p, q)
	require.Equal(t, before, h.FreeBlocks())

	require.NoError(t, h.Free(q))
	r, err := h.Malloc(150)
	require.NoError(t, err)
	require.Equal(t, p, r, "smaller request should reuse the freed block")
	assertInvariants(t, h)
}

func TestMalloc_SplitServesTwoRequestsWithoutGrowth(t *testing.T) {
	growOpt, grows := setupGrowCounter()
	h := newTestHeap(t, growOpt)

	p, err := h.Malloc(4096)
	require.NoError(t, err)
	require.NoError(t, h.Free(p))
	require.Equal(t, 1, *grows)
	sizeBefore := h.Size()

	a, err := h.Malloc(2000)
	require.NoError(t, err)
	b, err := h.Malloc(1800)
	require.NoError(t, err)

	require.Equal(t, 1, *grows, "split remainder should satisfy the second request")
	require.Equal(t, sizeBefore, h.Size())
	require.Equal(t, p, a)
	require.Equal(t, a+Ptr(2016), b)
	require.Equal(t, 2, h.Stats().SplitCount)

	blocks, err := h.Blocks()
	require.NoError(t, err)
	require.Equal(t, []BlockInfo{
		{Ptr: 32, Size: 2016, Allocated: true, Class: -1},
		{Ptr: 2048, Size: 1824, Allocated: true, Class: -1},
		{Ptr: 3872, Size: 272, Allocated: false, Class: 10},
	}, blocks)
	assertInvariants(t, h)
}

func TestMalloc_ExactAndNearFitTakeWholeBlock(t *testing.T) {
	h := newTestHeap(t)

	// 48-byte payload block (64 total), freed between two guards.
	_ = mustMalloc(t, h, 16, 1)
	p := mustMalloc(t, h, 48, 2)
	_ = mustMalloc(t, h, 16, 3)
	require.NoError(t, h.Free(p))

	// need 48 = 64-16: leftover of 16 cannot form a block, so take it all.
	q, err := h.Malloc(32)
	require.NoError(t, err)
	require.Equal(t, p, q)
	require.Equal(t, 64, blockSizeOf(h, q))
	require.Zero(t, h.FreeBlocks())
	assertInvariants(t, h)
}

func TestMalloc_SearchesLargerClasses(t *testing.T) {
	h := newTestHeap(t)
	big := mustMalloc(t, h, 5000, 0)
	_ = mustMalloc(t, h, 16, 0)
	require.NoError(t, h.Free(big))

	grows := h.Stats().GrowCalls
	p, err := h.Malloc(16)
	require.NoError(t, err)
	require.Equal(t, big, p)
	require.Equal(t, grows, h.Stats().GrowCalls)
	assertInvariants(t, h)
}

func TestMalloc_OutOfMemory(t *testing.T) {
	h := newTestHeapWithLimit(t, 1024)

	_, err := h.Malloc(512)
	require.NoError(t, err)

	_, err = h.Malloc(1024)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrOutOfMemory), "got %v", err)
	assertInvariants(t, h)
}

func TestCalloc_Zeroes(t *testing.T) {
	h := newTestHeap(t)

	p := mustMalloc(t, h, 256, 0xAA)
	_ = mustMalloc(t, h, 16, 0)
	require.NoError(t, h.Free(p))

	q, err := h.Calloc(16, 16)
	require.NoError(t, err)
	require.Equal(t, p, q, "calloc should reuse the dirty block")
	for i, c := range h.Bytes(q) {
		require.Zero(t, c, "byte %d", i)
	}
	require.Equal(t, 1, h.Stats().CallocCalls)
}

func TestCalloc_Overflow(t *testing.T) {
	h := newTestHeap(t)
	_, err := h.Calloc(math.MaxInt/2, 4)
	require.ErrorIs(t, err, ErrOverflow)
	_, err = h.Calloc(-1, 4)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestBytes_InvalidPointer(t *testing.T) {
	h := newTestHeap(t)
	p := mustMalloc(t, h, 64, 0)
	require.Nil(t, h.Bytes(p+8))
	require.NoError(t, h.Free(p))
	require.Nil(t, h.Bytes(p))
}
