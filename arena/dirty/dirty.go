// Package dirty tracks which byte ranges of a file-backed arena were written
// and flushes just those pages.
//
// The allocator reports every tag, link and payload write it performs. At
// flush time the ranges are page-aligned, sorted and merged, then synced
// with msync. Arenas that are not file-backed have nothing to flush; the
// tracker only resets its ranges for them.
package dirty

import (
	"context"
	"sort"

	"github.com/joshuapare/heapkit/arena"
)

const (
	defaultRangeCapacity = 64

	standardPageSize = 4096
)

// Range is a dirty byte range in arena offsets.
type Range struct {
	Off int64
	Len int64
}

// Tracker accumulates dirty ranges and flushes them.
//
// NOT thread-safe.
type Tracker struct {
	a        *arena.Arena
	ranges   []Range
	pageSize int64
}

// NewTracker creates a dirty tracker for the given arena.
func NewTracker(a *arena.Arena) *Tracker {
	return &Tracker{
		a:        a,
		ranges:   make([]Range, 0, defaultRangeCapacity),
		pageSize: standardPageSize,
	}
}

// Add records a dirty range. Zero-length ranges are ignored.
func (t *Tracker) Add(off, length int) {
	if length <= 0 {
		return
	}
	t.ranges = append(t.ranges, Range{
		Off: int64(off),
		Len: int64(length),
	})
}

// Len returns the number of raw ranges recorded since the last flush.
func (t *Tracker) Len() int {
	return len(t.ranges)
}

// Flush syncs every dirty page of a file-backed arena and clears the ranges.
//
// If ctx is cancelled part way, some ranges may already be flushed; the
// ranges are kept so a later Flush retries them.
func (t *Tracker) Flush(ctx context.Context) error {
	if len(t.ranges) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if t.a.Kind() == arena.File {
		data := t.a.Bytes()
		if len(data) > 0 {
			if err := t.flushRanges(ctx, data); err != nil {
				return err
			}
		}
	}

	t.Reset()
	return nil
}

// Reset clears all tracked ranges.
func (t *Tracker) Reset() {
	t.ranges = t.ranges[:0]
}

// Ranges returns a copy of the raw, uncoalesced ranges.
func (t *Tracker) Ranges() []Range {
	result := make([]Range, len(t.ranges))
	copy(result, t.ranges)
	return result
}

// Coalesced returns the page-aligned, sorted and merged ranges that Flush
// would sync.
func (t *Tracker) Coalesced() []Range {
	return t.coalesce()
}

func (t *Tracker) coalesce() []Range {
	if len(t.ranges) == 0 {
		return nil
	}

	aligned := make([]Range, len(t.ranges))
	for i, r := range t.ranges {
		start := (r.Off / t.pageSize) * t.pageSize

		end := r.Off + r.Len
		if end%t.pageSize != 0 {
			end = ((end / t.pageSize) + 1) * t.pageSize
		}

		aligned[i] = Range{
			Off: start,
			Len: end - start,
		}
	}

	sort.Slice(aligned, func(i, j int) bool {
		return aligned[i].Off < aligned[j].Off
	})

	merged := make([]Range, 0, len(aligned))
	current := aligned[0]

	for i := 1; i < len(aligned); i++ {
		next := aligned[i]

		if next.Off <= current.Off+current.Len {
			end := max(current.Off+current.Len, next.Off+next.Len)
			current.Len = end - current.Off
		} else {
			merged = append(merged, current)
			current = next
		}
	}

	merged = append(merged, current)

	return merged
}
