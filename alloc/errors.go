package alloc

import "errors"

var (
	// ErrOutOfMemory indicates the region could not grow to satisfy a request.
	ErrOutOfMemory = errors.New("alloc: out of memory")

	// ErrBadPtr indicates a pointer that is not a live block of this heap.
	ErrBadPtr = errors.New("alloc: bad pointer")

	// ErrBadSize indicates a negative or unrepresentable request size.
	ErrBadSize = errors.New("alloc: bad size")

	// ErrOverflow indicates count*size overflowed in Calloc.
	ErrOverflow = errors.New("alloc: size overflow")

	// ErrUninitialized indicates an operation on a heap before Init.
	ErrUninitialized = errors.New("alloc: heap not initialized")

	// ErrInitialized indicates a second call to Init.
	ErrInitialized = errors.New("alloc: heap already initialized")

	// ErrBadRegion indicates a region whose break is not 16-byte aligned.
	ErrBadRegion = errors.New("alloc: region break not 16-byte aligned")

	// ErrCorrupt is the panic value class raised when a tag or link access
	// falls outside the region or off a word boundary.
	ErrCorrupt = errors.New("alloc: heap corrupt")
)
