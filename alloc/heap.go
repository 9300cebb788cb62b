package alloc

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joshuapare/heapkit/internal/format"
)

// logAlloc turns on allocator diagnostics on stderr when no logger is given.
var logAlloc = os.Getenv("HEAPKIT_LOG_ALLOC") != ""

// Heap is a boundary-tag allocator over one Region.
type Heap struct {
	r   Region
	dt  DirtyTracker
	log *slog.Logger

	// buckets holds the head of each size class list, Nil when empty.
	buckets [NumClasses]Ptr

	// first is the payload offset of the first real block.
	first       Ptr
	initialized bool

	stats Stats

	// Test hook: called with the byte count before every region growth.
	onGrow func(int)
}

// Option configures a Heap.
type Option func(*Heap)

// WithLogger routes allocator diagnostics to l.
func WithLogger(l *slog.Logger) Option {
	return func(h *Heap) {
		h.log = l
	}
}

// WithDirtyTracker reports every written range to dt.
func WithDirtyTracker(dt DirtyTracker) Option {
	return func(h *Heap) {
		h.dt = dt
	}
}

// WithGrowHook calls fn with the number of bytes requested before each
// region growth.
func WithGrowHook(fn func(bytes int)) Option {
	return func(h *Heap) {
		h.onGrow = fn
	}
}

// New returns an uninitialized heap over r. Call Init before use.
func New(r Region, opts ...Option) *Heap {
	h := &Heap{r: r}
	for _, o := range opts {
		o(h)
	}
	if h.log == nil {
		h.log = defaultLogger()
	}
	return h
}

// Open creates a heap over r and initializes it.
func Open(r Region, opts ...Option) (*Heap, error) {
	h := New(r, opts...)
	if err := h.Init(); err != nil {
		return nil, err
	}
	return h, nil
}

func defaultLogger() *slog.Logger {
	if logAlloc {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Init commits the sentinel words and empties every bucket. It must be
// called exactly once, on a region whose break is 16-byte aligned.
func (h *Heap) Init() error {
	if h.initialized {
		return ErrInitialized
	}
	base, err := h.r.Sbrk(format.InitialHeapSize)
	if err != nil {
		return fmt.Errorf("%w: init: %w", ErrOutOfMemory, err)
	}
	if !format.IsAligned16(base) {
		return fmt.Errorf("%w: break at 0x%X", ErrBadRegion, base)
	}

	h.setTag(base+format.PrologueHeaderOff, format.PrologueTag)
	h.setTag(base+format.PrologueFooterOff, format.PrologueTag)
	h.setTag(base+format.InitialEpilogueOff, format.EpilogueTag)

	h.buckets = [NumClasses]Ptr{}
	h.first = Ptr(base + format.FirstPayloadOffset)
	h.initialized = true
	h.log.Debug("heap initialized", "base", base)
	return nil
}

// Size returns the number of committed bytes, sentinels included.
func (h *Heap) Size() int {
	return h.r.Hi() - h.r.Lo() + 1
}

// First returns the payload offset of the first block slot.
func (h *Heap) First() Ptr {
	return h.first
}

// Region returns the region the heap manages.
func (h *Heap) Region() Region {
	return h.r
}

// Bytes returns the payload of a live block, or nil if p is not one.
// The slice is invalidated by any call that grows the heap.
func (h *Heap) Bytes(p Ptr) []byte {
	size, err := h.liveBlock(p)
	if err != nil {
		return nil
	}
	return h.r.Bytes()[p : int(p)+size-format.Overhead]
}

// normalize converts a request to an aligned payload size of at least the
// minimum payload.
func normalize(size int) (int, error) {
	if size < 0 || size > maxRequest {
		return 0, fmt.Errorf("%w: %d", ErrBadSize, size)
	}
	return max(format.Align16(size), format.MinPayload), nil
}

// maxRequest keeps size+overhead and alignment rounding from overflowing.
const maxRequest = int(^uint(0)>>1) - 2*format.Alignment - format.Overhead
