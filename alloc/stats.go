package alloc

import (
	"fmt"
	"io"
)

// Stats counts allocator activity since Init.
type Stats struct {
	GrowCalls        int   // region extensions
	GrowBytes        int64 // bytes added by extensions
	AllocCalls       int   // Malloc calls, including those made by Calloc and Realloc(Nil, n)
	AllocFastPath    int   // served from a free list
	AllocSlowPath    int   // served by extending the heap
	CallocCalls      int
	FreeCalls        int
	ReallocCalls     int
	ReallocInPlace   int // resized without moving
	ReallocMoved     int // copied to a new block
	BytesAllocated   int64
	BytesFreed       int64
	SplitCount       int
	CoalesceForward  int
	CoalesceBackward int
}

// Stats returns a copy of the activity counters.
func (h *Heap) Stats() Stats {
	return h.stats
}

// PrintStats writes a human-readable summary of the counters and the
// current bucket occupancy to w.
func (h *Heap) PrintStats(w io.Writer) {
	s := h.stats
	fmt.Fprintf(w, "heap size:       %d bytes\n", h.Size())
	fmt.Fprintf(w, "grow:            %d calls, %d bytes\n", s.GrowCalls, s.GrowBytes)
	fmt.Fprintf(w, "malloc:          %d calls (%d fast, %d slow)\n", s.AllocCalls, s.AllocFastPath, s.AllocSlowPath)
	fmt.Fprintf(w, "calloc:          %d calls\n", s.CallocCalls)
	fmt.Fprintf(w, "free:            %d calls\n", s.FreeCalls)
	fmt.Fprintf(w, "realloc:         %d calls (%d in place, %d moved)\n", s.ReallocCalls, s.ReallocInPlace, s.ReallocMoved)
	fmt.Fprintf(w, "bytes:           %d allocated, %d freed\n", s.BytesAllocated, s.BytesFreed)
	fmt.Fprintf(w, "splits:          %d\n", s.SplitCount)
	fmt.Fprintf(w, "coalesce:        %d backward, %d forward\n", s.CoalesceBackward, s.CoalesceForward)

	counts := h.Buckets()
	for i, c := range counts {
		if c == 0 {
			continue
		}
		lo, hi := ClassBounds(i)
		if hi < 0 {
			fmt.Fprintf(w, "class %2d (>=%d): %d free\n", i, lo, c)
			continue
		}
		fmt.Fprintf(w, "class %2d (%d-%d): %d free\n", i, lo, hi, c)
	}
}
