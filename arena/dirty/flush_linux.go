//go:build linux

package dirty

import (
	"context"

	"golang.org/x/sys/unix"
)

// flushRanges msyncs each coalesced range. Ranges past the end of the
// mapping are clipped.
func (t *Tracker) flushRanges(ctx context.Context, data []byte) error {
	for _, r := range t.coalesce() {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := int(r.Off)
		end := min(int(r.Off+r.Len), len(data))
		if start >= end {
			continue
		}

		if err := unix.Msync(data[start:end], unix.MS_SYNC); err != nil {
			return err
		}
	}

	return unix.Fdatasync(t.a.FD())
}
