package format

import "fmt"

// Tag is a packed boundary tag: block size in bits [4,64), status flags in
// the low nibble. Bit 0 is the allocated flag; bit 1 is reserved and is
// accepted by the checker but never set by the allocator.
type Tag uint64

// Well-known tags written during heap init and growth.
const (
	PrologueTag Tag = Tag(PrologueBlockSize) | AllocatedBit
	EpilogueTag Tag = Tag(EpilogueBlockSize) | AllocatedBit
)

// Encode packs a block size and allocation status. size must be a multiple
// of 16; the low nibble is masked off otherwise.
func Encode(size int, allocated bool) Tag {
	t := Tag(size) &^ FlagMask
	if allocated {
		t |= AllocatedBit
	}
	return t
}

// Size returns the block size stored in the tag.
func (t Tag) Size() int {
	return int(t &^ FlagMask)
}

// Allocated reports whether the allocated bit is set.
func (t Tag) Allocated() bool {
	return t&AllocatedBit != 0
}

// Flags returns the status nibble.
func (t Tag) Flags() uint8 {
	return uint8(t & FlagMask)
}

// WithAllocated returns t with the allocated bit set and the size untouched.
func (t Tag) WithAllocated() Tag {
	return t | AllocatedBit
}

// WithFree returns t with the allocated bit cleared and the size untouched.
func (t Tag) WithFree() Tag {
	return t &^ AllocatedBit
}

// ValidFlags reports whether the status nibble only uses the defined bits.
func (t Tag) ValidFlags() bool {
	return t.Flags()>>MaxStatusNibbleBits == 0
}

func (t Tag) String() string {
	state := "free"
	if t.Allocated() {
		state = "alloc"
	}
	return fmt.Sprintf("%d/%s(0x%x)", t.Size(), state, t.Flags())
}
