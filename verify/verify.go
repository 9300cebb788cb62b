package verify

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/format"
)

// ValidationError describes a single broken invariant.
type ValidationError struct {
	Type    string
	Message string
	Offset  int
	Details map[string]interface{}
}

func (e *ValidationError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset 0x%X: %s", e.Type, e.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Block is one entry of the block chain, addressed by payload offset.
type Block struct {
	Off       int
	Size      int
	Allocated bool
}

// Chain is the result of a successful chain walk.
type Chain struct {
	Blocks    []Block
	Free      map[int]int // payload offset -> block size
	FreeBytes int
	UsedBytes int
	Epilogue  int // header offset of the epilogue
}

// AllInvariants validates a heap image laid out from offset 0.
// Returns the first error encountered, or nil if all checks pass.
func AllInvariants(data []byte) error {
	if err := Prologue(data, 0); err != nil {
		return err
	}
	_, err := BlockChain(data, format.FirstPayloadOffset)
	return err
}

// Prologue checks the sentinel block written at heap init, for a heap whose
// region starts at base.
func Prologue(data []byte, base int) error {
	if len(data) < base+format.InitialHeapSize {
		return &ValidationError{
			Type:    "Prologue",
			Message: fmt.Sprintf("image too small: %d bytes (need %d)", len(data), base+format.InitialHeapSize),
			Offset:  -1,
		}
	}
	for _, off := range []int{base + format.PrologueHeaderOff, base + format.PrologueFooterOff} {
		if got := format.ReadTag(data, off); got != format.PrologueTag {
			return &ValidationError{
				Type:    "Prologue",
				Message: fmt.Sprintf("got tag %v, expected %v", got, format.PrologueTag),
				Offset:  off,
			}
		}
	}
	return nil
}

// BlockChain walks every block from the payload offset first up to the
// epilogue, which must sit in the last word of data.
//
// Checks per block: size is a multiple of 16 and at least 32; the status
// nibble only uses defined bits; header and footer lie inside data; a free
// block's footer equals its header; no two neighbors are both free.
func BlockChain(data []byte, first int) (*Chain, error) {
	c := &Chain{Free: make(map[int]int)}
	end := len(data)
	prevFree := false

	bp := first
	for {
		hdr := bp - format.WordSize
		if err := format.CheckWord(end, hdr); err != nil {
			return nil, &ValidationError{
				Type:    "HeaderBounds",
				Message: fmt.Sprintf("header outside heap (len %d): %v", end, err),
				Offset:  hdr,
			}
		}
		t := format.ReadTag(data, hdr)

		if t.Size() == 0 {
			if t != format.EpilogueTag || hdr != end-format.WordSize {
				return nil, &ValidationError{
					Type:    "Epilogue",
					Message: fmt.Sprintf("zero-size tag %v before end of heap (len %d)", t, end),
					Offset:  hdr,
				}
			}
			c.Epilogue = hdr
			return c, nil
		}

		if err := checkBlock(data, bp, t); err != nil {
			return nil, err
		}

		if !t.Allocated() {
			if prevFree {
				return nil, &ValidationError{
					Type:    "Uncoalesced",
					Message: "free block follows a free block",
					Offset:  hdr,
					Details: map[string]interface{}{"size": t.Size()},
				}
			}
			c.Free[bp] = t.Size()
			c.FreeBytes += t.Size()
		} else {
			c.UsedBytes += t.Size()
		}
		prevFree = !t.Allocated()
		c.Blocks = append(c.Blocks, Block{Off: bp, Size: t.Size(), Allocated: t.Allocated()})

		bp += t.Size()
	}
}

func checkBlock(data []byte, bp int, t format.Tag) error {
	hdr := bp - format.WordSize
	size := t.Size()

	if size%format.Alignment != 0 || size < format.MinBlockSize {
		return &ValidationError{
			Type:    "BlockSize",
			Message: fmt.Sprintf("size %d is not a multiple of %d >= %d", size, format.Alignment, format.MinBlockSize),
			Offset:  hdr,
		}
	}
	if !t.ValidFlags() {
		return &ValidationError{
			Type:    "StatusNibble",
			Message: fmt.Sprintf("undefined status bits 0x%x", t.Flags()),
			Offset:  hdr,
		}
	}

	ftr := bp + size - format.Overhead
	// The footer may not be the last word; that one belongs to the epilogue.
	if ftr > len(data)-2*format.WordSize {
		return &ValidationError{
			Type:    "FooterBounds",
			Message: fmt.Sprintf("block of size %d runs past the epilogue (len %d)", size, len(data)),
			Offset:  hdr,
		}
	}
	if !t.Allocated() {
		if ft := format.ReadTag(data, ftr); ft != t {
			return &ValidationError{
				Type:    "TagMismatch",
				Message: fmt.Sprintf("free block header %v, footer %v", t, ft),
				Offset:  hdr,
				Details: map[string]interface{}{"footer": ftr},
			}
		}
	}
	return nil
}
