package format

import "errors"

var (
	// ErrTruncated indicates the buffer lacked the bytes required for a word.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrMisaligned indicates an offset that is not word aligned.
	ErrMisaligned = errors.New("format: misaligned offset")
)

// CheckWord reports whether a full word at off fits in a buffer of length n
// and is word aligned.
func CheckWord(n, off int) error {
	if !IsWordAligned(off) {
		return ErrMisaligned
	}
	if off < 0 || off > n-WordSize {
		return ErrTruncated
	}
	return nil
}
