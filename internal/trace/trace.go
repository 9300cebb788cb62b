// Package trace reads and writes allocator workload traces in the
// malloc-lab text format:
//
//	# comment
//	20000          optional numeric header lines before the first op
//	a <id> <size>  allocate
//	f <id>         free
//	r <id> <size>  reallocate
//	c <id> <count> <size>  allocate zeroed
//
// Realloc of a dead id allocates, except that "r <id> 0" on a dead id does
// nothing and leaves the id dead. Realloc to 0 of a live id frees it.
//
// Input may be UTF-8 or UTF-16 with a byte order mark.
package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	commentPrefix = "#"

	scannerInitialBufferSize = 64 * 1024
	scannerMaxLineSize       = 1024 * 1024
)

// ErrSyntax is wrapped by every parse failure.
var ErrSyntax = errors.New("trace: syntax error")

// ErrSemantics is wrapped by Check failures.
var ErrSemantics = errors.New("trace: inconsistent op")

// Kind is the operation letter.
type Kind byte

const (
	Alloc   Kind = 'a'
	Free    Kind = 'f'
	Realloc Kind = 'r'
	Calloc  Kind = 'c'
)

func (k Kind) String() string {
	switch k {
	case Alloc:
		return "alloc"
	case Free:
		return "free"
	case Realloc:
		return "realloc"
	case Calloc:
		return "calloc"
	default:
		return fmt.Sprintf("kind(%q)", byte(k))
	}
}

// Op is one trace line.
type Op struct {
	Kind  Kind
	ID    int
	Size  int // element size for Calloc
	Count int // Calloc only
	Line  int
}

// Bytes returns the number of bytes the op requests.
func (o Op) Bytes() int {
	if o.Kind == Calloc {
		return o.Count * o.Size
	}
	return o.Size
}

func (o Op) String() string {
	switch o.Kind {
	case Free:
		return fmt.Sprintf("f %d", o.ID)
	case Calloc:
		return fmt.Sprintf("c %d %d %d", o.ID, o.Count, o.Size)
	default:
		return fmt.Sprintf("%c %d %d", byte(o.Kind), o.ID, o.Size)
	}
}

// Trace is a parsed workload.
type Trace struct {
	Name   string
	Header []int
	Ops    []Op
	NumIDs int // one past the largest id used
}

// Parse reads a trace from r.
func Parse(r io.Reader) (*Trace, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	scanner := bufio.NewScanner(decoded)
	buf := make([]byte, 0, scannerInitialBufferSize)
	scanner.Buffer(buf, scannerMaxLineSize)

	t := &Trace{}
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if i := strings.Index(line, commentPrefix); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(t.Ops) == 0 && len(fields) == 1 {
			if n, err := strconv.Atoi(fields[0]); err == nil {
				t.Header = append(t.Header, n)
				continue
			}
		}

		op, err := parseOp(fields, lineNo)
		if err != nil {
			return nil, err
		}
		t.Ops = append(t.Ops, op)
		t.NumIDs = max(t.NumIDs, op.ID+1)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning trace: %w", err)
	}
	return t, nil
}

// ParseFile reads the trace at path and names it after the file.
func ParseFile(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	t.Name = filepath.Base(path)
	return t, nil
}

func parseOp(fields []string, line int) (Op, error) {
	syntax := func(format string, args ...any) error {
		return fmt.Errorf("%w: line %d: %s", ErrSyntax, line, fmt.Sprintf(format, args...))
	}

	if len(fields[0]) != 1 {
		return Op{}, syntax("unknown op %q", fields[0])
	}
	op := Op{Kind: Kind(fields[0][0]), Line: line}

	want := 0
	switch op.Kind {
	case Alloc, Realloc:
		want = 3
	case Free:
		want = 2
	case Calloc:
		want = 4
	default:
		return Op{}, syntax("unknown op %q", fields[0])
	}
	if len(fields) != want {
		return Op{}, syntax("%s takes %d operands, got %d", op.Kind, want-1, len(fields)-1)
	}

	nums := make([]int, 0, 3)
	for _, f := range fields[1:] {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return Op{}, syntax("bad operand %q", f)
		}
		nums = append(nums, n)
	}

	op.ID = nums[0]
	switch op.Kind {
	case Alloc, Realloc:
		op.Size = nums[1]
	case Calloc:
		op.Count, op.Size = nums[1], nums[2]
	}
	return op, nil
}

// Check verifies the trace never frees or reallocates an id that is not
// live and never allocates over a live id.
func (t *Trace) Check() error {
	live := make(map[int]bool, t.NumIDs)
	for _, op := range t.Ops {
		switch op.Kind {
		case Alloc, Calloc:
			if live[op.ID] {
				return fmt.Errorf("%w: line %d: id %d allocated twice", ErrSemantics, op.Line, op.ID)
			}
			live[op.ID] = true
		case Realloc:
			// size 0 frees a live id and is a no-op on a dead one
			live[op.ID] = op.Size != 0
		case Free:
			if !live[op.ID] {
				return fmt.Errorf("%w: line %d: id %d freed while not live", ErrSemantics, op.Line, op.ID)
			}
			live[op.ID] = false
		}
	}
	return nil
}

// Write emits t in the text format Parse reads.
func Write(w io.Writer, t *Trace) error {
	bw := bufio.NewWriter(w)
	if t.Name != "" {
		fmt.Fprintf(bw, "# %s\n", t.Name)
	}
	for _, h := range t.Header {
		fmt.Fprintf(bw, "%d\n", h)
	}
	for _, op := range t.Ops {
		fmt.Fprintln(bw, op.String())
	}
	return bw.Flush()
}
