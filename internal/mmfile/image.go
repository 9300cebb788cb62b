// Package mmfile opens heap image files for read-only inspection, mapping
// them where the platform allows.
package mmfile

import (
	"errors"
	"fmt"
	"os"
)

// ErrTooLarge is returned for files that do not fit in an int.
var ErrTooLarge = errors.New("mmfile: file too large to map")

// Image is a read-only view of a heap image file.
type Image struct {
	data   []byte
	unmap  func() error
	closed bool
}

// Open maps the file at path read-only. A zero-length file yields an empty
// image.
func Open(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() // the mapping outlives the descriptor

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := info.Size()
	if size == 0 {
		return &Image{data: []byte{}}, nil
	}
	if size > int64(^uint(0)>>1) {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, size)
	}

	data, unmap, err := mapFile(f, int(size))
	if err != nil {
		return nil, fmt.Errorf("mmfile: map %s: %w", path, err)
	}
	return &Image{data: data, unmap: unmap}, nil
}

// Bytes returns the image contents. The slice must not be written and is
// invalid after Close.
func (i *Image) Bytes() []byte {
	if i.closed {
		return nil
	}
	return i.data
}

// Len returns the image size in bytes.
func (i *Image) Len() int { return len(i.data) }

// Close releases the mapping. Closing twice is a no-op.
func (i *Image) Close() error {
	if i.closed {
		return nil
	}
	i.closed = true
	if i.unmap == nil {
		return nil
	}
	return i.unmap()
}
