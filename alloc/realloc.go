package alloc

import "github.com/joshuapare/heapkit/internal/format"

// Realloc resizes the block at p to hold at least size bytes and returns
// its new location.
//
//   - Realloc(Nil, n) is Malloc(n).
//   - Realloc(p, 0) frees p and returns Nil.
//   - A block that already fits, or can shed a tail of 32 bytes or more,
//     is resized in place.
//   - A block whose right neighbor is free grows into it in place.
//   - Otherwise the heap is extended, the old payload copied, and the old
//     block freed. Bytes past the old payload are not zeroed.
//
// If the heap cannot grow the error wraps ErrOutOfMemory and p is left
// intact.
func (h *Heap) Realloc(p Ptr, size int) (Ptr, error) {
	if p == Nil {
		return h.Malloc(size)
	}
	if size == 0 {
		return Nil, h.Free(p)
	}
	old, err := h.liveBlock(p)
	if err != nil {
		return Nil, err
	}
	asize, err := normalize(size)
	if err != nil {
		return Nil, err
	}

	h.stats.ReallocCalls++
	np, err := h.realloc(p, old, asize)
	if err != nil {
		return Nil, err
	}

	h.CheckHeap("realloc")
	return np, nil
}

func (h *Heap) realloc(p Ptr, old, size int) (Ptr, error) {
	need := size + format.Overhead

	switch {
	case old == need || old == need+format.Alignment:
		h.writeBlock(p, old, true)
		h.stats.ReallocInPlace++
		return p, nil
	case old >= need+format.MinBlockSize:
		h.writeBlock(p, need, true)
		h.splitTail(p+Ptr(need), old-need)
		h.stats.ReallocInPlace++
		return p, nil
	}

	if right, rt := h.rightNeighbor(p); !rt.Allocated() {
		combined := old + rt.Size()
		switch {
		case combined == need || combined == need+format.Alignment:
			h.removeFree(right, rt.Size())
			h.writeBlock(p, combined, true)
			h.stats.ReallocInPlace++
			h.stats.CoalesceForward++
			return p, nil
		case combined > need:
			h.removeFree(right, rt.Size())
			h.writeBlock(p, need, true)
			h.splitTail(p+Ptr(need), combined-need)
			h.stats.ReallocInPlace++
			h.stats.CoalesceForward++
			return p, nil
		}
	}

	np, err := h.extend(size)
	if err != nil {
		return Nil, err
	}
	n := old - format.Overhead
	b := h.r.Bytes()
	copy(b[np:int(np)+n], b[p:int(p)+n])
	if h.dt != nil {
		h.dt.Add(int(np), n)
	}
	h.release(p)

	h.stats.ReallocMoved++
	h.log.Debug("realloc moved block", "from", int(p), "to", int(np), "old_size", old, "new_size", size+format.Overhead)
	return np, nil
}
