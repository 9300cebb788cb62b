package alloc

import "github.com/joshuapare/heapkit/internal/format"

// Ptr is a payload offset within the heap's region.
type Ptr int

// Nil is the null pointer. No payload can live at offset 0.
const Nil Ptr = 0

// Region is the growable memory a Heap manages. arena.Arena implements it.
type Region interface {
	// Sbrk commits n more bytes at the high end and returns the old break.
	Sbrk(n int) (int, error)
	// Lo returns the offset of the first byte.
	Lo() int
	// Hi returns the offset of the last committed byte.
	Hi() int
	// Bytes returns the committed bytes, indexed by offset.
	Bytes() []byte
}

// DirtyTracker is notified of every byte range the heap writes.
// dirty.Tracker implements it.
type DirtyTracker interface {
	Add(off, length int)
}

// BlockInfo describes one block of the chain.
type BlockInfo struct {
	Ptr       Ptr
	Size      int // total block size, tags included
	Allocated bool
	Class     int // bucket a free block belongs to; -1 when allocated
}

// Payload returns the usable bytes of the block.
func (b BlockInfo) Payload() int {
	return b.Size - format.Overhead
}
