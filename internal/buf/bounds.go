// Package buf holds overflow-safe arithmetic and range helpers used when
// sizes or offsets come from callers or from bytes that may be corrupt.
package buf

import (
	"fmt"
	"math"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// MulOverflowSafe multiplies two non-negative ints, returning ok = false
// when the product would overflow or either operand is negative.
// Used for count * elementSize in calloc.
func MulOverflowSafe(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt/b {
		return 0, false
	}
	return a * b, true
}

// CheckRange validates that [off, off+n) lies within [lo, hi). Returns the
// end offset if valid.
func CheckRange(lo, hi, off, n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("negative length: %d", n)
	}
	if off < lo {
		return 0, fmt.Errorf("bounds: off=%d < lo=%d", off, lo)
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok {
		return 0, fmt.Errorf("overflow: off=%d + n=%d", off, n)
	}
	if end > hi {
		return 0, fmt.Errorf("bounds: end=%d > hi=%d", end, hi)
	}
	return end, nil
}

// Slice returns the sub-slice [off:off+n] if it fits within len(b).
func Slice(b []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off > len(b) {
		return nil, false
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok || end > len(b) {
		return nil, false
	}
	return b[off:end], true
}

// Has reports whether b[off:off+n] is within bounds.
func Has(b []byte, off, n int) bool {
	_, ok := Slice(b, off, n)
	return ok
}
