package alloc

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/format"
)

// Walk calls fn for each block from the first one to the epilogue, in
// address order, until fn returns false. It stops with an error if the
// chain runs outside the region or hits a block too small to step over.
func (h *Heap) Walk(fn func(BlockInfo) bool) error {
	if !h.initialized {
		return ErrUninitialized
	}
	bp := h.first
	for {
		t, ok := h.peek(hdrOff(bp))
		if !ok {
			return fmt.Errorf("%w: header of 0x%X outside heap", ErrCorrupt, int(bp))
		}
		if t.Size() == 0 {
			return nil
		}
		if t.Size() < format.MinBlockSize {
			return fmt.Errorf("%w: block at 0x%X has size %d", ErrCorrupt, int(bp), t.Size())
		}
		info := BlockInfo{Ptr: bp, Size: t.Size(), Allocated: t.Allocated(), Class: -1}
		if !info.Allocated {
			info.Class = Classify(info.Payload())
		}
		if !fn(info) {
			return nil
		}
		bp += Ptr(t.Size())
	}
}

// Blocks returns every block of the chain.
func (h *Heap) Blocks() ([]BlockInfo, error) {
	var out []BlockInfo
	err := h.Walk(func(b BlockInfo) bool {
		out = append(out, b)
		return true
	})
	return out, err
}

// Usage summarizes how the committed bytes are split.
type Usage struct {
	HeapSize       int
	AllocatedBytes int // block bytes of allocated blocks, tags included
	FreeBytes      int
	Allocated      int
	Free           int
	LargestFree    int
}

// Usage walks the chain and tallies allocated and free space.
func (h *Heap) Usage() (Usage, error) {
	u := Usage{HeapSize: h.Size()}
	err := h.Walk(func(b BlockInfo) bool {
		if b.Allocated {
			u.Allocated++
			u.AllocatedBytes += b.Size
		} else {
			u.Free++
			u.FreeBytes += b.Size
			u.LargestFree = max(u.LargestFree, b.Size)
		}
		return true
	})
	return u, err
}
