package alloc

import "github.com/joshuapare/heapkit/internal/format"

// insertFree pushes bp onto the head of the list for its current size.
// The block must already be tagged free.
func (h *Heap) insertFree(bp Ptr) {
	idx := Classify(h.blockSize(bp) - format.Overhead)
	head := h.buckets[idx]
	if head == Nil {
		h.setNext(bp, bp)
		h.setPrev(bp, bp)
	} else {
		last := h.prev(head)
		h.setNext(bp, head)
		h.setPrev(bp, last)
		h.setNext(last, bp)
		h.setPrev(head, bp)
	}
	h.buckets[idx] = bp
}

// removeFree unlinks bp from the list for a block of blockSize bytes.
// Callers pass the size bp is listed under, so this must happen before
// bp's header is rewritten.
func (h *Heap) removeFree(bp Ptr, blockSize int) {
	idx := Classify(blockSize - format.Overhead)
	nx, pv := h.next(bp), h.prev(bp)
	if h.buckets[idx] == bp {
		if nx == bp {
			h.buckets[idx] = Nil
		} else {
			h.buckets[idx] = pv
		}
	}
	h.setNext(pv, nx)
	h.setPrev(nx, pv)
}

// Buckets returns the number of free blocks in each class.
func (h *Heap) Buckets() [NumClasses]int {
	var counts [NumClasses]int
	for idx, head := range h.buckets {
		if head == Nil {
			continue
		}
		bp := head
		for {
			counts[idx]++
			bp = h.next(bp)
			if bp == head {
				break
			}
		}
	}
	return counts
}

// FreeBlocks returns the total number of listed free blocks.
func (h *Heap) FreeBlocks() int {
	n := 0
	for _, c := range h.Buckets() {
		n += c
	}
	return n
}
