//go:build !linux && !darwin

package arena

import (
	"os"
)

// Map falls back to a slice-backed arena where mmap is unavailable.
func Map(opts ...Option) (*Arena, error) {
	return New(opts...), nil
}

// Create opens (truncating) path. The image is kept in memory and written
// back on Sync and Close.
func Create(path string, opts ...Option) (*Arena, error) {
	c := buildConfig(opts)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return &Arena{kind: File, f: f, limit: c.limit}, nil
}

func (a *Arena) commitAnon(newBrk int) error {
	a.growSlice(newBrk)
	return nil
}

func (a *Arena) commitFile(newBrk int) error {
	a.growSlice(newBrk)
	return nil
}

func (a *Arena) syncFile() error {
	if _, err := a.f.WriteAt(a.data[:a.brk], 0); err != nil {
		return err
	}
	return a.f.Sync()
}

func (a *Arena) release() error {
	if a.f == nil {
		a.data = nil
		return nil
	}
	err := a.syncFile()
	if terr := a.f.Truncate(int64(a.brk)); terr != nil && err == nil {
		err = terr
	}
	if cerr := a.f.Close(); cerr != nil && err == nil {
		err = cerr
	}
	a.f = nil
	a.data = nil
	return err
}
