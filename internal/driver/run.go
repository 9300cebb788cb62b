package driver

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/joshuapare/heapkit/alloc"
	"github.com/joshuapare/heapkit/internal/trace"
)

// ctxCheckInterval is how many ops run between context checks.
const ctxCheckInterval = 1024

// Result summarizes one replay.
type Result struct {
	Trace       string        `json:"trace"`
	Arena       string        `json:"arena"`
	Ops         int           `json:"ops"`
	Allocs      int           `json:"allocs"`
	Callocs     int           `json:"callocs"`
	Reallocs    int           `json:"reallocs"`
	Frees       int           `json:"frees"`
	PeakPayload int           `json:"peak_payload"`
	HeapSize    int           `json:"heap_size"`
	HeapFile    string        `json:"heap_file,omitempty"`
	Utilization float64       `json:"utilization"`
	Duration    time.Duration `json:"duration_ns"`
	Stats       alloc.Stats   `json:"stats"`
	Error       string        `json:"error,omitempty"`
}

// Run replays tr on a fresh heap and returns its result. A failed replay
// still returns a Result describing how far it got.
func Run(ctx context.Context, tr *trace.Trace, cfg Config) (*Result, error) {
	start := time.Now()
	s, err := NewSession(tr, cfg)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	for !s.Done() {
		if s.Pos()%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return failed(s, start, err), err
			}
		}
		if _, err := s.Step(); err != nil {
			return failed(s, start, err), err
		}
	}

	res, err := s.Finish(ctx)
	if err != nil {
		return failed(s, start, err), err
	}
	res.Duration = time.Since(start)
	return res, nil
}

func failed(s *Session, start time.Time, err error) *Result {
	r := s.result()
	r.Duration = time.Since(start)
	r.Error = err.Error()
	return r
}

// RunAll replays every trace concurrently, each on its own heap, with at
// most parallel replays in flight (GOMAXPROCS when parallel <= 0). Results
// come back in input order. The returned error joins every failure.
func RunAll(ctx context.Context, traces []*trace.Trace, cfg Config, parallel int) ([]*Result, error) {
	if parallel <= 0 {
		parallel = runtime.GOMAXPROCS(0)
	}

	results := xsync.NewMapOf[int, *Result]()
	failures := xsync.NewMapOf[int, error]()
	sem := make(chan struct{}, parallel)

	var wg sync.WaitGroup
	for i, tr := range traces {
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				failures.Store(i, fmt.Errorf("%s: %w", tr.Name, ctx.Err()))
				return
			}
			defer func() { <-sem }()

			res, err := Run(ctx, tr, cfg)
			if res != nil {
				results.Store(i, res)
			}
			if err != nil {
				failures.Store(i, fmt.Errorf("%s: %w", tr.Name, err))
			}
		}()
	}
	wg.Wait()

	out := make([]*Result, 0, results.Size())
	errs := make([]error, 0, failures.Size())
	for i := range traces {
		if r, ok := results.Load(i); ok {
			out = append(out, r)
		}
		if err, ok := failures.Load(i); ok {
			errs = append(errs, err)
		}
	}
	return out, errors.Join(errs...)
}

// Utilization returns the mean utilization of the results that completed.
func Utilization(results []*Result) float64 {
	var sum float64
	n := 0
	for _, r := range results {
		if r.Error != "" {
			continue
		}
		sum += r.Utilization
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
