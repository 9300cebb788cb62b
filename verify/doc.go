// Package verify checks heap images for layout invariants without needing
// a live allocator: prologue and epilogue sentinels, block sizes, boundary
// tag agreement and maximal coalescing.
//
// It works on raw bytes, so it can validate a snapshot written by mmctl as
// easily as the region of a running heap. Free-list structure lives only in
// the allocator's state and is checked by alloc.Heap.Validate, which calls
// into this package for the chain walk.
package verify
