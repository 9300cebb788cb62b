package alloc

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/format"
)

// All tag and link traffic goes through load and store, which check the
// offset against the committed region on every access. A failed check means
// the chain is corrupt and panics with an ErrCorrupt error.

func (h *Heap) load(off int) uint64 {
	b := h.r.Bytes()
	if err := format.CheckWord(len(b), off); err != nil {
		panic(fmt.Errorf("%w: load at 0x%X: %w", ErrCorrupt, off, err))
	}
	return format.ReadU64(b, off)
}

func (h *Heap) store(off int, v uint64) {
	b := h.r.Bytes()
	if err := format.CheckWord(len(b), off); err != nil {
		panic(fmt.Errorf("%w: store at 0x%X: %w", ErrCorrupt, off, err))
	}
	format.PutU64(b, off, v)
	if h.dt != nil {
		h.dt.Add(off, format.WordSize)
	}
}

// peek is load without the panic, for the validator.
func (h *Heap) peek(off int) (format.Tag, bool) {
	b := h.r.Bytes()
	if format.CheckWord(len(b), off) != nil {
		return 0, false
	}
	return format.ReadTag(b, off), true
}

func (h *Heap) tagAt(off int) format.Tag { return format.Tag(h.load(off)) }
func (h *Heap) setTag(off int, t format.Tag) { h.store(off, uint64(t)) }
func (h *Heap) header(bp Ptr) format.Tag { return h.tagAt(hdrOff(bp)) }
func (h *Heap) blockSize(bp Ptr) int { return h.header(bp).Size() }
func hdrOff(bp Ptr) int { return int(bp) - format.WordSize }
func ftrOff(bp Ptr, size int) int { return int(bp) + size - format.Overhead }
func (h *Heap) next(bp Ptr) Ptr { return Ptr(h.load(int(bp) + format.NextLinkOffset)) }
func (h *Heap) prev(bp Ptr) Ptr { return Ptr(h.load(int(bp) + format.PrevLinkOffset)) }
func (h *Heap) setNext(bp, to Ptr) { h.store(int(bp)+format.NextLinkOffset, uint64(to)) }
func (h *Heap) setPrev(bp, to Ptr) { h.store(int(bp)+format.PrevLinkOffset, uint64(to)) }

// writeBlock gives the block at bp a header and footer of the same tag.
func (h *Heap) writeBlock(bp Ptr, size int, allocated bool) {
	t := format.Encode(size, allocated)
	h.setTag(hdrOff(bp), t)
	h.setTag(ftrOff(bp, size), t)
}

// rightNeighbor returns the block physically after bp and its header. For
// the last block this is the epilogue, which always reads as allocated.
func (h *Heap) rightNeighbor(bp Ptr) (Ptr, format.Tag) {
	n := bp + Ptr(h.blockSize(bp))
	return n, h.header(n)
}

// leftNeighbor returns the block physically before bp, found through the
// footer word just below bp's header. For the first block this is the
// prologue, which always reads as allocated.
func (h *Heap) leftNeighbor(bp Ptr) (Ptr, format.Tag) {
	ft := h.tagAt(hdrOff(bp) - format.WordSize)
	return bp - Ptr(ft.Size()), ft
}

// liveBlock validates that p names an allocated block of this heap and
// returns its size. The checks are cheap: alignment, bounds, and the
// header's allocated bit and size.
func (h *Heap) liveBlock(p Ptr) (int, error) {
	if !h.initialized {
		return 0, ErrUninitialized
	}
	if !format.IsAligned16(int(p)) {
		return 0, fmt.Errorf("%w: 0x%X is not 16-byte aligned", ErrBadPtr, int(p))
	}
	end := h.r.Hi() + 1
	if p < h.first || int(p) >= end {
		return 0, fmt.Errorf("%w: 0x%X outside heap [0x%X, 0x%X)", ErrBadPtr, int(p), int(h.first), end)
	}
	t := h.header(p)
	if !t.Allocated() {
		return 0, fmt.Errorf("%w: 0x%X is not allocated", ErrBadPtr, int(p))
	}
	size := t.Size()
	if size < format.MinBlockSize || ftrOff(p, size) > end-2*format.WordSize {
		return 0, fmt.Errorf("%w: 0x%X has implausible size %d", ErrBadPtr, int(p), size)
	}
	return size, nil
}
