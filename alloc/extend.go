package alloc

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/format"
)

// extend grows the region by one allocated block with a payload of size
// bytes (already aligned). The old epilogue becomes the new block's header
// and a fresh epilogue is written after its footer. The block is not listed.
func (h *Heap) extend(size int) (Ptr, error) {
	total := format.Align16(size + format.Overhead)

	if h.onGrow != nil {
		h.onGrow(total)
	}

	old, err := h.r.Sbrk(total)
	if err != nil {
		h.log.Debug("heap growth failed", "bytes", total, "heap_size", h.Size(), "err", err)
		return Nil, fmt.Errorf("%w: extend by %d bytes: %w", ErrOutOfMemory, total, err)
	}

	bp := Ptr(old)
	h.writeBlock(bp, total, true)
	h.setTag(old+total-format.WordSize, format.EpilogueTag)

	h.stats.GrowCalls++
	h.stats.GrowBytes += int64(total)
	h.log.Debug("heap grown", "bytes", total, "heap_size", h.Size())
	return bp, nil
}
