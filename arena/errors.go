package arena

import "errors"

var (
	// ErrLimit is returned when growth would pass the arena's limit.
	ErrLimit = errors.New("arena: growth limit reached")
	// ErrClosed is returned for operations on a closed arena.
	ErrClosed = errors.New("arena: closed")
	// ErrNegative is returned for a negative Sbrk increment.
	ErrNegative = errors.New("arena: negative increment")
)
