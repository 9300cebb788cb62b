package main

import (
	"fmt"
	"io"
	"os"

	"github.com/andybalholm/brotli"
)

// writeSnapshot stores a brotli-compressed copy of a heap image at path.
func writeSnapshot(path string, image []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}

	w := brotli.NewWriterLevel(f, brotli.BestCompression)
	if _, err := w.Write(image); err != nil {
		f.Close()
		return fmt.Errorf("failed to compress snapshot: %w", err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		return fmt.Errorf("failed to compress snapshot: %w", err)
	}
	return f.Close()
}

// readSnapshot loads a heap image written by writeSnapshot.
func readSnapshot(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	image, err := io.ReadAll(brotli.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress snapshot: %w", err)
	}
	return image, nil
}
