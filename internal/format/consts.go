// Package format defines the on-heap layout shared by the allocator, the
// verifier and the tooling: packed boundary tags, alignment helpers and the
// little-endian word accessors used to read and write them.
package format

const (
	// WordSize is the width of a header, footer or link word.
	WordSize = 8

	// Alignment is the payload alignment guaranteed to callers.
	Alignment = 16

	// Align16Mask is used for 16-byte alignment rounding.
	Align16Mask = Alignment - 1

	// Overhead is the header plus footer cost of every block.
	Overhead = 2 * WordSize

	// MinPayload is the smallest payload a block can carry. A free block
	// needs room for its next and prev links.
	MinPayload = 16

	// MinBlockSize is the smallest legal block (payload plus tags).
	MinBlockSize = MinPayload + Overhead

	// FlagMask selects the status nibble of a tag.
	FlagMask = 0xF

	// AllocatedBit marks a block as in use.
	AllocatedBit = 0x1
)

// Heap image layout created by the allocator's init step.
//
//	0x00  padding word
//	0x08  prologue header (16|1)
//	0x10  prologue footer (16|1)
//	0x18  epilogue header (0|1), later the first block header
//	0x20  first payload
const (
	PrologueHeaderOff   = WordSize
	PrologueFooterOff   = 2 * WordSize
	InitialEpilogueOff  = 3 * WordSize
	FirstPayloadOffset  = 4 * WordSize
	InitialHeapSize     = 4 * WordSize
	PrologueBlockSize   = 2 * WordSize
	EpilogueBlockSize   = 0
	NextLinkOffset      = 0
	PrevLinkOffset      = WordSize
	MaxStatusNibbleBits = 2
)
