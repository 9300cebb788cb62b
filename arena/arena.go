package arena

import (
	"context"
	"fmt"
	"os"

	"github.com/joshuapare/heapkit/internal/buf"
)

// DefaultLimit is the growth ceiling used when no WithLimit option is given.
const DefaultLimit = 20 << 20

// Kind identifies the backing store of an Arena.
type Kind int

const (
	// Memory is a Go heap slice.
	Memory Kind = iota
	// Anonymous is a reserved anonymous mapping.
	Anonymous
	// File is a shared file mapping.
	File
)

func (k Kind) String() string {
	switch k {
	case Memory:
		return "memory"
	case Anonymous:
		return "anonymous"
	case File:
		return "file"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Option configures an Arena.
type Option func(*config)

type config struct {
	limit int
}

// WithLimit caps the committed size. Sbrk past the limit fails with ErrLimit.
func WithLimit(n int) Option {
	return func(c *config) {
		c.limit = n
	}
}

func buildConfig(opts []Option) config {
	c := config{limit: DefaultLimit}
	for _, o := range opts {
		o(&c)
	}
	if c.limit < 0 {
		c.limit = 0
	}
	return c
}

// Arena is a contiguous region that grows at its high end.
type Arena struct {
	kind      Kind
	data      []byte // memory: committed bytes; mapped kinds: the whole mapping
	brk       int
	limit     int
	committed int // mapped kinds: bytes currently readable and writable
	f         *os.File
	closed    bool
}

// New returns an empty slice-backed arena.
func New(opts ...Option) *Arena {
	c := buildConfig(opts)
	return &Arena{kind: Memory, limit: c.limit}
}

// Sbrk extends the committed region by n bytes and returns the previous
// break, which is the offset of the first new byte. New bytes are zero.
func (a *Arena) Sbrk(n int) (int, error) {
	if a.closed {
		return 0, ErrClosed
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNegative, n)
	}
	newBrk, ok := buf.AddOverflowSafe(a.brk, n)
	if !ok || newBrk > a.limit {
		return 0, fmt.Errorf("%w: brk=%d n=%d limit=%d", ErrLimit, a.brk, n, a.limit)
	}

	var err error
	switch a.kind {
	case Anonymous:
		err = a.commitAnon(newBrk)
	case File:
		err = a.commitFile(newBrk)
	default:
		a.growSlice(newBrk)
	}
	if err != nil {
		return 0, err
	}

	old := a.brk
	a.brk = newBrk
	return old, nil
}

func (a *Arena) growSlice(newBrk int) {
	if newBrk <= len(a.data) {
		return
	}
	a.data = append(a.data, make([]byte, newBrk-len(a.data))...)
}

// Lo returns the offset of the first byte of the region.
func (a *Arena) Lo() int { return 0 }

// Hi returns the offset of the last committed byte, or -1 when empty.
func (a *Arena) Hi() int { return a.brk - 1 }

// Size returns the number of committed bytes.
func (a *Arena) Size() int { return a.brk }

// Limit returns the growth ceiling.
func (a *Arena) Limit() int { return a.limit }

// Kind returns the backing store kind.
func (a *Arena) Kind() Kind { return a.kind }

// Bytes returns the committed region. The slice is only valid until the
// next Sbrk.
func (a *Arena) Bytes() []byte {
	if a.closed || a.data == nil {
		return nil
	}
	return a.data[:a.brk]
}

// FD returns the backing file descriptor, or -1 for non-file arenas.
func (a *Arena) FD() int {
	if a.f == nil {
		return -1
	}
	return int(a.f.Fd())
}

// Sync flushes a file-backed arena to disk. It is a no-op for the other
// kinds.
func (a *Arena) Sync(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a.closed {
		return ErrClosed
	}
	if a.kind != File {
		return nil
	}
	return a.syncFile()
}

// Close releases the region. A file-backed arena is truncated to its break
// so the file holds exactly the heap image.
func (a *Arena) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	return a.release()
}
