// Package alloc implements a malloc-style allocator over a single growable
// byte region using boundary tags and segregated free lists.
//
// # Overview
//
// Every block carries an 8-byte header and an 8-byte footer. Both hold the
// total block size (always a multiple of 16) with the allocation flag in the
// low bit, so a block can find either physical neighbor in O(1). Free blocks
// are threaded into one of 15 circular doubly linked lists selected by
// payload size; the list links live in the first two payload words.
//
// # Usage Example
//
//	a, err := arena.Map(arena.WithLimit(64 << 20))
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//
//	h, err := alloc.Open(a)
//	if err != nil {
//	    return err
//	}
//
//	p, err := h.Malloc(100)
//	if err != nil {
//	    return err
//	}
//	copy(h.Bytes(p), "hello")
//
//	p, err = h.Realloc(p, 400)
//	...
//	err = h.Free(p)
//
// # Heap Layout
//
//	0x00  padding
//	0x08  prologue header   16|1
//	0x10  prologue footer   16|1
//	0x18  first block header (the epilogue 0|1 while the heap is empty)
//	0x20  first payload
//	 ...
//	brk-8 epilogue          0|1
//
// The sentinels are permanently allocated, so coalescing never needs to
// special-case the ends of the heap.
//
// # Size Classes
//
//	Class 0-9:  payload 16, 32, ... 160 (exact)
//	Class 10:   payload <= 256
//	Class 11:   payload <= 512
//	Class 12:   payload <= 1024
//	Class 13:   payload <= 4096
//	Class 14:   payload >  4096
//
// Malloc searches from the request's class upward and takes the first block
// that fits. A block with at least 32 spare bytes is split and the remainder
// goes back through the same path Free uses, so it is coalesced and listed
// like any freed block. When nothing fits the region is extended by exactly
// the block needed.
//
// # Pointers
//
// A Ptr is the offset of a payload from the start of the region. Bytes
// returns a slice over a payload; like any slice of the region it is only
// valid until the next call that may grow the heap.
//
// # Debug Checks
//
// Validate walks the whole heap and reports the first broken invariant.
// CheckHeap runs after every public operation; it only does work when the
// package is built with the heapdebug tag, where a failure panics.
//
// # Thread Safety
//
// A Heap is not safe for concurrent use. Independent heaps over independent
// regions may be used from different goroutines.
package alloc
