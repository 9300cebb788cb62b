package alloc

// Free returns the block at p to the heap, merging it with free neighbors.
// Free(Nil) is a no-op. A pointer that is not a live block of this heap is
// rejected with ErrBadPtr when the cheap checks can tell; anything subtler
// corrupts the heap.
func (h *Heap) Free(p Ptr) error {
	if p == Nil {
		return nil
	}
	size, err := h.liveBlock(p)
	if err != nil {
		return err
	}

	h.stats.FreeCalls++
	h.stats.BytesFreed += int64(size)
	h.release(p)

	h.CheckHeap("free")
	return nil
}

// release frees bp without pointer checks. Malloc and Realloc hand their
// split-off remainders here too.
//
// The left neighbor is merged first, then the right one, so at most one
// header and one footer are rewritten per merge.
func (h *Heap) release(bp Ptr) {
	size := h.blockSize(bp)
	h.writeBlock(bp, size, false)

	if left, lt := h.leftNeighbor(bp); !lt.Allocated() {
		h.removeFree(left, lt.Size())
		bp = left
		size += lt.Size()
		h.writeBlock(bp, size, false)
		h.stats.CoalesceBackward++
	}

	if right, rt := h.rightNeighbor(bp); !rt.Allocated() {
		h.removeFree(right, rt.Size())
		size += rt.Size()
		h.writeBlock(bp, size, false)
		h.stats.CoalesceForward++
	}

	h.insertFree(bp)
}
