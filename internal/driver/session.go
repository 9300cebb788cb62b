// Package driver replays allocation traces against a fresh heap and checks
// every result the allocator hands back.
//
// Each live payload is filled with a pattern derived from its trace id.
// The pattern is re-checked when the block is freed or reallocated, so a
// block the allocator scribbled over, or handed out twice, is caught at
// the op that exposes it.
package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joshuapare/heapkit/alloc"
	"github.com/joshuapare/heapkit/arena"
	"github.com/joshuapare/heapkit/arena/dirty"
	"github.com/joshuapare/heapkit/internal/format"
	"github.com/joshuapare/heapkit/internal/trace"
)

var (
	// ErrCorruptPayload means a live payload no longer holds its pattern.
	ErrCorruptPayload = errors.New("driver: payload overwritten")
	// ErrOverlap means a returned block overlaps another live block.
	ErrOverlap = errors.New("driver: blocks overlap")
	// ErrMisaligned means a returned pointer is not 16-byte aligned.
	ErrMisaligned = errors.New("driver: misaligned pointer")
	// ErrOutOfHeap means a returned payload is not inside the heap.
	ErrOutOfHeap = errors.New("driver: payload outside heap")
	// ErrNotZeroed means Calloc returned a payload with non-zero bytes.
	ErrNotZeroed = errors.New("driver: calloc payload not zeroed")
	// ErrDone is returned by Step once every op has been replayed.
	ErrDone = errors.New("driver: trace finished")
)

// Config controls how a trace is replayed.
type Config struct {
	Arena arena.Kind
	// Dir holds the backing file of File arenas. Defaults to the OS temp dir.
	Dir   string
	Limit int
	// Check validates the whole heap after every op.
	Check  bool
	Logger *slog.Logger
}

type live struct {
	p    alloc.Ptr
	size int
}

// errLive reports an allocation over an id that still holds a block.
func errLive(id int) error {
	return fmt.Errorf("%w: id %d is already live", trace.ErrSemantics, id)
}

// Session replays one trace op by op.
type Session struct {
	tr  *trace.Trace
	cfg Config
	a   *arena.Arena
	dt  *dirty.Tracker
	h   *alloc.Heap
	// path is the backing file of a File arena.
	path string

	live      map[int]live
	spans     spans
	pos       int
	payload   int
	peak      int
	opCounts  map[trace.Kind]int
	lastError error
}

// NewSession builds a fresh arena and heap for tr.
func NewSession(tr *trace.Trace, cfg Config) (*Session, error) {
	a, path, err := openArena(tr, cfg)
	if err != nil {
		return nil, err
	}

	opts := []alloc.Option{}
	if cfg.Logger != nil {
		opts = append(opts, alloc.WithLogger(cfg.Logger))
	}
	var dt *dirty.Tracker
	if a.Kind() == arena.File {
		dt = dirty.NewTracker(a)
		opts = append(opts, alloc.WithDirtyTracker(dt))
	}

	h, err := alloc.Open(a, opts...)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("init heap: %w", err)
	}

	return &Session{
		tr:       tr,
		cfg:      cfg,
		a:        a,
		dt:       dt,
		h:        h,
		path:     path,
		live:     make(map[int]live, tr.NumIDs),
		opCounts: make(map[trace.Kind]int, 4),
	}, nil
}

// openArena builds the arena cfg asks for. File arenas get a fresh file in
// cfg.Dir named after the trace, so replays of same-named traces never share
// one; its path is returned.
func openArena(tr *trace.Trace, cfg Config) (*arena.Arena, string, error) {
	var opts []arena.Option
	if cfg.Limit > 0 {
		opts = append(opts, arena.WithLimit(cfg.Limit))
	}
	switch cfg.Arena {
	case arena.Memory:
		return arena.New(opts...), "", nil
	case arena.Anonymous:
		a, err := arena.Map(opts...)
		return a, "", err
	case arena.File:
		dir := cfg.Dir
		if dir == "" {
			dir = os.TempDir()
		}
		name := tr.Name
		if name == "" {
			name = "trace"
		}
		f, err := os.CreateTemp(dir, name+"-*.heap")
		if err != nil {
			return nil, "", fmt.Errorf("driver: heap file: %w", err)
		}
		path := f.Name()
		f.Close()

		a, err := arena.Create(path, opts...)
		if err != nil {
			os.Remove(path)
			return nil, "", err
		}
		return a, path, nil
	default:
		return nil, "", fmt.Errorf("driver: unknown arena kind %v", cfg.Arena)
	}
}

// Heap returns the heap being driven.
func (s *Session) Heap() *alloc.Heap { return s.h }

// Arena returns the arena under the heap.
func (s *Session) Arena() *arena.Arena { return s.a }

// HeapFile returns the backing file of a File arena, or "".
func (s *Session) HeapFile() string { return s.path }

// Trace returns the trace being replayed.
func (s *Session) Trace() *trace.Trace { return s.tr }

// Pos returns the index of the next op.
func (s *Session) Pos() int { return s.pos }

// Done reports whether every op has been replayed.
func (s *Session) Done() bool { return s.pos >= len(s.tr.Ops) }

// Err returns the error that stopped the session, if any.
func (s *Session) Err() error { return s.lastError }

// Live returns the payload pointer held by trace id, or Nil.
func (s *Session) Live(id int) alloc.Ptr { return s.live[id].p }

// LiveCount returns the number of ids currently holding a block.
func (s *Session) LiveCount() int { return len(s.live) }

// Step replays the next op. After an error the session is stuck and every
// further call returns the same error.
func (s *Session) Step() (trace.Op, error) {
	if s.lastError != nil {
		return trace.Op{}, s.lastError
	}
	if s.Done() {
		return trace.Op{}, ErrDone
	}
	op := s.tr.Ops[s.pos]
	if err := s.apply(op); err != nil {
		s.lastError = fmt.Errorf("line %d (%s): %w", op.Line, op, err)
		return op, s.lastError
	}
	s.pos++
	s.opCounts[op.Kind]++

	if s.cfg.Check {
		if err := s.h.Validate(fmt.Sprintf("after line %d", op.Line)); err != nil {
			s.lastError = err
			return op, err
		}
	}
	return op, nil
}

func (s *Session) apply(op trace.Op) error {
	switch op.Kind {
	case trace.Alloc:
		if _, ok := s.live[op.ID]; ok {
			return errLive(op.ID)
		}
		p, err := s.h.Malloc(op.Size)
		if err != nil {
			return err
		}
		return s.admit(op.ID, p, op.Size)

	case trace.Calloc:
		if _, ok := s.live[op.ID]; ok {
			return errLive(op.ID)
		}
		p, err := s.h.Calloc(op.Count, op.Size)
		if err != nil {
			return err
		}
		n := op.Bytes()
		for i, b := range s.h.Bytes(p)[:n] {
			if b != 0 {
				return fmt.Errorf("%w: byte %d of 0x%X", ErrNotZeroed, i, int(p))
			}
		}
		return s.admit(op.ID, p, n)

	case trace.Realloc:
		old, ok := s.live[op.ID]
		if !ok && op.Size == 0 {
			return nil
		}
		if ok {
			if err := s.verify(op.ID, old); err != nil {
				return err
			}
		}
		p, err := s.h.Realloc(old.p, op.Size)
		if err != nil {
			return err
		}
		s.forget(op.ID)
		if op.Size == 0 {
			return nil
		}
		keep := min(old.size, op.Size)
		if err := s.checkPattern(op.ID, p, keep); err != nil {
			return fmt.Errorf("realloc lost data: %w", err)
		}
		return s.admit(op.ID, p, op.Size)

	case trace.Free:
		b, ok := s.live[op.ID]
		if !ok {
			return fmt.Errorf("%w: id %d is not live", trace.ErrSemantics, op.ID)
		}
		if err := s.verify(op.ID, b); err != nil {
			return err
		}
		s.forget(op.ID)
		return s.h.Free(b.p)
	}
	return fmt.Errorf("driver: unknown op %s", op.Kind)
}

// admit checks a freshly returned block, fills it and starts tracking it.
func (s *Session) admit(id int, p alloc.Ptr, size int) error {
	if !format.IsAligned16(int(p)) {
		return fmt.Errorf("%w: 0x%X", ErrMisaligned, int(p))
	}
	if int(p) < s.a.Lo() || int(p)+size-1 > s.a.Hi() {
		return fmt.Errorf("%w: [0x%X, 0x%X) not in [0x%X, 0x%X]",
			ErrOutOfHeap, int(p), int(p)+size, s.a.Lo(), s.a.Hi())
	}
	// A zero-byte request still owns its address.
	sp := span{start: int(p), end: int(p) + max(size, 1), id: id}
	if other, hit := s.spans.overlap(sp.start, sp.end); hit {
		return fmt.Errorf("%w: id %d at 0x%X and id %d at 0x%X",
			ErrOverlap, id, int(p), other.id, other.start)
	}

	payload := s.h.Bytes(p)
	for i := range size {
		payload[i] = pattern(id, i)
	}
	s.live[id] = live{p: p, size: size}
	s.spans.insert(sp)
	s.payload += size
	s.peak = max(s.peak, s.payload)
	return nil
}

func (s *Session) forget(id int) {
	if b, ok := s.live[id]; ok {
		s.payload -= b.size
		s.spans.remove(int(b.p))
		delete(s.live, id)
	}
}

func (s *Session) verify(id int, b live) error {
	return s.checkPattern(id, b.p, b.size)
}

func (s *Session) checkPattern(id int, p alloc.Ptr, n int) error {
	payload := s.h.Bytes(p)
	if len(payload) < n {
		return fmt.Errorf("%w: id %d at 0x%X has %d bytes, want %d",
			ErrCorruptPayload, id, int(p), len(payload), n)
	}
	for i := range n {
		if payload[i] != pattern(id, i) {
			return fmt.Errorf("%w: id %d at 0x%X byte %d", ErrCorruptPayload, id, int(p), i)
		}
	}
	return nil
}

// pattern is the byte expected at offset i of the payload owned by id.
func pattern(id, i int) byte {
	return byte(id*131 + i*7 + 1)
}

// Finish flushes a file-backed heap and reports what the replay did.
func (s *Session) Finish(ctx context.Context) (*Result, error) {
	if s.dt != nil {
		if err := s.dt.Flush(ctx); err != nil {
			return nil, fmt.Errorf("flush: %w", err)
		}
	}
	return s.result(), nil
}

// Close releases the arena.
func (s *Session) Close() error {
	return s.a.Close()
}

func (s *Session) result() *Result {
	r := &Result{
		Trace:       s.tr.Name,
		Arena:       s.a.Kind().String(),
		Ops:         s.pos,
		Allocs:      s.opCounts[trace.Alloc],
		Callocs:     s.opCounts[trace.Calloc],
		Reallocs:    s.opCounts[trace.Realloc],
		Frees:       s.opCounts[trace.Free],
		PeakPayload: s.peak,
		HeapSize:    s.h.Size(),
		HeapFile:    s.path,
		Stats:       s.h.Stats(),
	}
	if r.HeapSize > 0 {
		r.Utilization = float64(r.PeakPayload) / float64(r.HeapSize)
	}
	return r
}
