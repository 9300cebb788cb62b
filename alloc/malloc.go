package alloc

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
)

// Malloc returns a 16-byte aligned block with at least size usable bytes.
// A request of 0 gets the minimum 16-byte payload. The payload contents are
// unspecified.
func (h *Heap) Malloc(size int) (Ptr, error) {
	if !h.initialized {
		return Nil, ErrUninitialized
	}
	asize, err := normalize(size)
	if err != nil {
		return Nil, err
	}

	h.stats.AllocCalls++
	bp, err := h.malloc(asize)
	if err != nil {
		return Nil, err
	}
	h.stats.BytesAllocated += int64(h.blockSize(bp))

	h.CheckHeap("malloc")
	return bp, nil
}

func (h *Heap) malloc(size int) (Ptr, error) {
	need := size + format.Overhead
	for idx := Classify(size); idx < NumClasses; idx++ {
		if bp := h.firstFit(idx, need); bp != Nil {
			h.stats.AllocFastPath++
			return bp, nil
		}
	}

	h.stats.AllocSlowPath++
	return h.extend(size)
}

// firstFit walks one bucket from its head and places need bytes in the
// first block that can hold them.
func (h *Heap) firstFit(idx, need int) Ptr {
	head := h.buckets[idx]
	if head == Nil {
		return Nil
	}
	bp := head
	for {
		nx := h.next(bp)
		if h.place(bp, need) {
			return bp
		}
		bp = nx
		if bp == head {
			return Nil
		}
	}
}

// place allocates need bytes at the free block bp if it is big enough.
// Leftovers under 32 bytes stay with the block; anything larger is split
// off and released.
func (h *Heap) place(bp Ptr, need int) bool {
	b := h.blockSize(bp)
	switch {
	case b == need || b == need+format.Alignment:
		h.removeFree(bp, b)
		h.writeBlock(bp, b, true)
	case b >= need+format.MinBlockSize:
		h.removeFree(bp, b)
		h.writeBlock(bp, need, true)
		h.splitTail(bp+Ptr(need), b-need)
	default:
		return false
	}
	return true
}

// splitTail tags rest as a block of size bytes and releases it.
func (h *Heap) splitTail(rest Ptr, size int) {
	h.writeBlock(rest, size, false)
	h.stats.SplitCount++
	h.release(rest)
}

// Calloc allocates count*size zeroed bytes.
func (h *Heap) Calloc(count, size int) (Ptr, error) {
	total, ok := buf.MulOverflowSafe(count, size)
	if !ok {
		return Nil, fmt.Errorf("%w: %d * %d", ErrOverflow, count, size)
	}
	p, err := h.Malloc(total)
	if err != nil {
		return Nil, err
	}
	h.stats.CallocCalls++

	payload := h.Bytes(p)
	clear(payload)
	if h.dt != nil {
		h.dt.Add(int(p), len(payload))
	}
	return p, nil
}
