// Package storage holds the output sinks for encoded carriers
package storage

import (
	"context"
	"fmt"
	"imgstego-backend/imaging"
	"imgstego-backend/stego"
	"os"
	"path/filepath"
	"sync"
)

// EncodedName is the file name of an encoded carrier, numbered from 1 by tag.
func EncodedName(tag int) string {
	return fmt.Sprintf("encoded_image_%d.png", tag+1)
}

// DirSink writes encoded carriers as PNG files under a directory.
type DirSink struct {
	dir     string
	mu      sync.Mutex
	written []string
}

func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %v", err)
	}
	return &DirSink{dir: dir}, nil
}

func (s *DirSink) Put(_ context.Context, enc stego.Encoded) error {
	path := filepath.Join(s.dir, EncodedName(enc.Tag))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %v", path, err)
	}

	if err := imaging.EncodePNG(f, enc.Carrier); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %v", path, err)
	}

	s.mu.Lock()
	s.written = append(s.written, path)
	s.mu.Unlock()
	return nil
}

// Written lists the paths produced so far.
func (s *DirSink) Written() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.written...)
}

// Cleanup removes every file this sink wrote, used after a partial write.
func (s *DirSink) Cleanup() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for _, path := range s.written {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	s.written = nil
	return firstErr
}

var _ stego.Sink = (*DirSink)(nil)
