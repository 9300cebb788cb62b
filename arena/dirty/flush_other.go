//go:build !linux && !darwin

package dirty

import "context"

// flushRanges writes the in-memory image back through the arena.
func (t *Tracker) flushRanges(ctx context.Context, _ []byte) error {
	return t.a.Sync(ctx)
}
