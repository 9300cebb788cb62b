package driver

import (
	"cmp"
	"slices"
)

// span is the half-open byte range [start, end) owned by a live id.
type span struct {
	start, end int
	id         int
}

// spans holds the live ranges sorted by start. Live ranges never overlap,
// so only the neighbors of an insertion point can intersect a new range.
type spans []span

func (s spans) search(start int) (int, bool) {
	return slices.BinarySearchFunc(s, start, func(e span, t int) int {
		return cmp.Compare(e.start, t)
	})
}

// overlap returns a live span intersecting [start, end), if any.
func (s spans) overlap(start, end int) (span, bool) {
	i, _ := s.search(start)
	if i > 0 && s[i-1].end > start {
		return s[i-1], true
	}
	if i < len(s) && s[i].start < end {
		return s[i], true
	}
	return span{}, false
}

func (s *spans) insert(sp span) {
	i, _ := s.search(sp.start)
	*s = slices.Insert(*s, i, sp)
}

func (s *spans) remove(start int) {
	if i, ok := s.search(start); ok {
		*s = slices.Delete(*s, i, i+1)
	}
}
