//go:build linux || darwin

package arena

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

func pageAlign(n int) int {
	ps := unix.Getpagesize()
	return (n + ps - 1) &^ (ps - 1)
}

// Map reserves an anonymous mapping of the arena limit with no access and
// commits pages on demand. The mapping never moves, so payload slices taken
// from Bytes stay valid across growth as long as they were re-sliced from
// the current Bytes.
func Map(opts ...Option) (*Arena, error) {
	c := buildConfig(opts)
	reserve := pageAlign(c.limit)
	if reserve == 0 {
		return &Arena{kind: Anonymous, limit: 0}, nil
	}
	data, err := unix.Mmap(-1, 0, reserve, unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("arena: reserve %d bytes: %w", reserve, err)
	}
	return &Arena{kind: Anonymous, data: data, limit: c.limit}, nil
}

func (a *Arena) commitAnon(newBrk int) error {
	end := pageAlign(newBrk)
	if end <= a.committed {
		return nil
	}
	if end > len(a.data) {
		end = len(a.data)
	}
	if err := unix.Mprotect(a.data[a.committed:end], unix.PROT_READ|unix.PROT_WRITE); err != nil {
		return fmt.Errorf("arena: commit [%d,%d): %w", a.committed, end, err)
	}
	a.committed = end
	return nil
}

// Create opens (truncating) path and maps it shared. The file grows with the
// arena; Close trims it to the final break.
func Create(path string, opts ...Option) (*Arena, error) {
	c := buildConfig(opts)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return &Arena{kind: File, f: f, limit: c.limit}, nil
}

func (a *Arena) mapFile(size int) ([]byte, error) {
	return unix.Mmap(int(a.f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

// commitFile extends the file and remaps it. The file grows geometrically
// to keep remaps rare; the old mapping is restored if any step fails.
func (a *Arena) commitFile(newBrk int) error {
	if newBrk <= a.committed {
		return nil
	}
	newSize := max(pageAlign(newBrk), 2*a.committed)
	if lim := pageAlign(a.limit); newSize > lim {
		newSize = lim
	}

	if a.data != nil {
		if err := unix.Munmap(a.data); err != nil {
			return fmt.Errorf("arena: failed to unmap before grow: %w", err)
		}
		a.data = nil
	}

	if err := a.f.Truncate(int64(newSize)); err != nil {
		a.remapOld()
		return fmt.Errorf("arena: failed to extend file: %w", err)
	}

	data, err := a.mapFile(newSize)
	if err != nil {
		a.remapOld()
		return fmt.Errorf("arena: failed to remap after grow: %w", err)
	}
	a.data = data
	a.committed = newSize
	return nil
}

func (a *Arena) remapOld() {
	if a.committed == 0 {
		return
	}
	data, _ := a.mapFile(a.committed)
	a.data = data
}

func (a *Arena) syncFile() error {
	if a.data != nil {
		if err := unix.Msync(a.data, unix.MS_SYNC); err != nil {
			return fmt.Errorf("arena: msync: %w", err)
		}
	}
	return a.f.Sync()
}

func (a *Arena) release() error {
	var err error
	if a.data != nil && a.kind != Memory {
		err = unix.Munmap(a.data)
	}
	a.data = nil
	if a.f != nil {
		if terr := a.f.Truncate(int64(a.brk)); terr != nil && err == nil {
			err = terr
		}
		if cerr := a.f.Close(); cerr != nil && err == nil {
			err = cerr
		}
		a.f = nil
	}
	return err
}
