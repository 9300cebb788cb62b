// Package arena provides the growable byte regions an allocator heap lives
// in. An Arena only ever grows: Sbrk extends the committed range by n bytes
// and returns the old break, the same contract as a classic sbrk.
//
// # Backends
//
//   - New: a plain Go byte slice. Growth may move the backing array.
//   - Map: an anonymous mapping reserved up front with no access and
//     committed page by page with mprotect. The base address never moves.
//   - Create: a file-backed shared mapping. Growth extends the file and
//     remaps it, so the heap image survives on disk and can be flushed
//     with Sync or tracked page by page with the dirty subpackage.
//
// On platforms without mmap support Map falls back to New and Create keeps
// the image in memory, writing it back on Sync and Close.
//
// # Offsets
//
// The heap is addressed by offsets from the start of the region. Lo is
// always 0 and Hi is the last committed byte. Slices returned by Bytes are
// invalidated by any Sbrk that moves or remaps the backing memory.
//
// # Thread Safety
//
// An Arena is not safe for concurrent use.
package arena
