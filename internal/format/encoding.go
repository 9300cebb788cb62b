package format

import "encoding/binary"

// Binary encoding utilities for the heap's 64-bit little-endian words.
// Bounds are the caller's job; the allocator routes every access through a
// checked accessor before reaching these helpers.

// PutU64 writes a uint64 value to the buffer at the specified offset in little-endian format.
func PutU64(b []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(b[off:off+WordSize], v)
}

// ReadU64 reads a uint64 value from the buffer at the specified offset in little-endian format.
func ReadU64(b []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(b[off : off+WordSize])
}

// PutTag writes a boundary tag word at off.
func PutTag(b []byte, off int, t Tag) {
	PutU64(b, off, uint64(t))
}

// ReadTag reads the boundary tag word at off.
func ReadTag(b []byte, off int) Tag {
	return Tag(ReadU64(b, off))
}

// PutLink stores a free-list link (a payload offset, or 0 for none) at off.
func PutLink(b []byte, off int, target int) {
	PutU64(b, off, uint64(target))
}

// ReadLink loads the free-list link stored at off.
func ReadLink(b []byte, off int) int {
	return int(ReadU64(b, off))
}
