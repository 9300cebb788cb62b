package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/arena"
	"github.com/joshuapare/heapkit/internal/format"
)

// newTestHeap returns an initialized heap over a slice-backed arena.
func newTestHeap(t testing.TB, opts ...Option) *Heap {
	t.Helper()
	return newTestHeapWithLimit(t, 64<<20, opts...)
}

func newTestHeapWithLimit(t testing.TB, limit int, opts ...Option) *Heap {
	t.Helper()

	a := arena.New(arena.WithLimit(limit))
	t.Cleanup(func() { _ = a.Close() })

	h, err := Open(a, opts...)
	require.NoError(t, err, "failed to open heap")
	return h
}

// assertInvariants fails the test immediately if the heap is inconsistent.
func assertInvariants(t testing.TB, h *Heap) {
	t.Helper()
	if err := h.Validate(t.Name()); err != nil {
		assert.FailNow(t, "heap invariant violated", err.Error())
	}
}

// mustMalloc allocates and fills the payload with fill.
func mustMalloc(t testing.TB, h *Heap, size int, fill byte) Ptr {
	t.Helper()
	p, err := h.Malloc(size)
	require.NoError(t, err)
	require.NotEqual(t, Nil, p)
	payload := h.Bytes(p)
	require.GreaterOrEqual(t, len(payload), size)
	for i := range payload {
		payload[i] = fill
	}
	return p
}

// requireFilled checks the first n bytes of p's payload all equal fill.
func requireFilled(t testing.TB, h *Heap, p Ptr, n int, fill byte) {
	t.Helper()
	payload := h.Bytes(p)
	require.GreaterOrEqual(t, len(payload), n)
	for i := 0; i < n; i++ {
		if payload[i] != fill {
			require.Failf(t, "payload corrupted", "ptr 0x%X byte %d = 0x%02X, want 0x%02X", int(p), i, payload[i], fill)
		}
	}
}

// setupGrowCounter returns a grow hook option and a pointer to its count.
func setupGrowCounter() (Option, *int) {
	count := 0
	return WithGrowHook(func(int) { count++ }), &count
}

// MockDirtyTracker records every range it is told about.
type MockDirtyTracker struct {
	Ranges [][2]int
}

func (m *MockDirtyTracker) Add(off, length int) {
	m.Ranges = append(m.Ranges, [2]int{off, length})
}

// Covers reports whether some recorded range includes [off, off+n).
func (m *MockDirtyTracker) Covers(off, n int) bool {
	for _, r := range m.Ranges {
		if r[0] <= off && off+n <= r[0]+r[1] {
			return true
		}
	}
	return false
}

func blockSizeOf(h *Heap, p Ptr) int {
	return h.header(p).Size()
}

func isAllocated(h *Heap, p Ptr) bool {
	return h.tagAt(int(p) - format.WordSize).Allocated()
}
