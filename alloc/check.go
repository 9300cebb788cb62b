package alloc

import (
	"errors"
	"fmt"

	"github.com/joshuapare/heapkit/internal/format"
	"github.com/joshuapare/heapkit/verify"
)

// ValidationError is the error type Validate returns.
type ValidationError = verify.ValidationError

// Validate checks every heap invariant and returns the first violation,
// tagged with where it was called from.
//
// The chain walk (sentinels, sizes, tags, coalescing, bounds) is shared
// with the verify package. On top of that every bucket is walked: each node
// must be in bounds, marked free, present in the chain, listed in the class
// its size selects, and agree with its neighbors' links. Every free block
// of the chain must be reached by exactly one bucket walk.
func (h *Heap) Validate(tag string) error {
	if !h.initialized {
		return ErrUninitialized
	}
	data := h.r.Bytes()
	base := int(h.first) - format.FirstPayloadOffset

	if err := verify.Prologue(data, base); err != nil {
		return tagged(err, tag)
	}
	chain, err := verify.BlockChain(data, int(h.first))
	if err != nil {
		return tagged(err, tag)
	}

	seen := make(map[Ptr]bool, len(chain.Free))
	for idx, head := range h.buckets {
		if head == Nil {
			continue
		}
		bp := head
		for {
			if err := h.checkNode(bp, idx, chain.Free); err != nil {
				return tagged(err, tag)
			}
			if seen[bp] {
				return tagged(&ValidationError{
					Type:    "FreeListCycle",
					Message: fmt.Sprintf("node listed twice (bucket %d)", idx),
					Offset:  int(bp),
				}, tag)
			}
			seen[bp] = true

			bp = h.next(bp)
			if bp == head {
				break
			}
		}
	}

	for off := range chain.Free {
		if !seen[Ptr(off)] {
			return tagged(&ValidationError{
				Type:    "Unlisted",
				Message: fmt.Sprintf("free block of size %d is in no bucket", chain.Free[off]),
				Offset:  off,
			}, tag)
		}
	}
	return nil
}

// checkNode validates one free-list node. Every read goes through peek so
// a corrupt link is reported rather than followed into a panic.
func (h *Heap) checkNode(bp Ptr, idx int, free map[int]int) error {
	size, ok := free[int(bp)]
	if !ok {
		t, _ := h.peek(hdrOff(bp))
		if t.Allocated() {
			return &ValidationError{
				Type:    "ListedAllocated",
				Message: fmt.Sprintf("bucket %d lists an allocated block %v", idx, t),
				Offset:  int(bp),
			}
		}
		return &ValidationError{
			Type:    "FreeListBounds",
			Message: fmt.Sprintf("bucket %d links to 0x%X, which is not a free block", idx, int(bp)),
			Offset:  int(bp),
		}
	}
	if want := Classify(size - format.Overhead); want != idx {
		return &ValidationError{
			Type:    "WrongBucket",
			Message: fmt.Sprintf("block of size %d in bucket %d, belongs in %d", size, idx, want),
			Offset:  int(bp),
		}
	}

	nx, okN := h.peek(int(bp) + format.NextLinkOffset)
	pv, okP := h.peek(int(bp) + format.PrevLinkOffset)
	if !okN || !okP {
		return &ValidationError{Type: "FreeListBounds", Message: "links unreadable", Offset: int(bp)}
	}
	if _, ok := free[int(nx)]; !ok {
		return &ValidationError{
			Type:    "FreeListBounds",
			Message: fmt.Sprintf("next link 0x%X is not a free block", uint64(nx)),
			Offset:  int(bp),
		}
	}
	if _, ok := free[int(pv)]; !ok {
		return &ValidationError{
			Type:    "FreeListBounds",
			Message: fmt.Sprintf("prev link 0x%X is not a free block", uint64(pv)),
			Offset:  int(bp),
		}
	}
	if back, _ := h.peek(int(nx) + format.PrevLinkOffset); Ptr(back) != bp {
		return &ValidationError{
			Type:    "FreeListLinks",
			Message: fmt.Sprintf("next.prev is 0x%X", uint64(back)),
			Offset:  int(bp),
		}
	}
	if fwd, _ := h.peek(int(pv) + format.NextLinkOffset); Ptr(fwd) != bp {
		return &ValidationError{
			Type:    "FreeListLinks",
			Message: fmt.Sprintf("prev.next is 0x%X", uint64(fwd)),
			Offset:  int(bp),
		}
	}
	return nil
}

func tagged(err error, tag string) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		if ve.Details == nil {
			ve.Details = make(map[string]interface{})
		}
		ve.Details["tag"] = tag
		if tag != "" {
			ve.Message = tag + ": " + ve.Message
		}
		return ve
	}
	return fmt.Errorf("%s: %w", tag, err)
}
