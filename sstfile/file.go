// Package sstfile provides the minimal durable-file abstraction the sstable
// package builds on: random-range reads plus whole-file creation. Durability
// semantics (fsync policy, replication, ...) are an external collaborator's
// concern; this package only fixes the contract, plus an OS-backed and an
// in-memory implementation of it.
package sstfile

import (
	"fmt"
	"os"
)

// File is the contract an SsTable needs from its backing storage.
type File interface {
	// Read returns len bytes starting at offset.
	Read(offset, length int64) ([]byte, error)
	// Size returns the total size of the file in bytes.
	Size() int64
}

// osFile is a File backed by a real file on disk.
type osFile struct {
	f    *os.File
	size int64
}

// Create writes data to a new file at path and returns a File over it.
func Create(path string, data []byte) (File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("sstfile: create %s: %w", path, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return nil, fmt.Errorf("sstfile: write %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return nil, fmt.Errorf("sstfile: sync %s: %w", path, err)
	}

	return &osFile{f: f, size: int64(len(data))}, nil
}

// Open opens an existing file at path for reading.
func Open(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sstfile: open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("sstfile: stat %s: %w", path, err)
	}

	return &osFile{f: f, size: info.Size()}, nil
}

func (o *osFile) Read(offset, length int64) ([]byte, error) {
	if offset < 0 || length < 0 || offset+length > o.size {
		return nil, fmt.Errorf("sstfile: read [%d,%d) out of bounds for size %d", offset, offset+length, o.size)
	}

	buf := make([]byte, length)
	if _, err := o.f.ReadAt(buf, offset); err != nil {
		return nil, fmt.Errorf("sstfile: read at %d: %w", offset, err)
	}
	return buf, nil
}

func (o *osFile) Size() int64 { return o.size }

// Close releases the underlying OS file handle. It is not part of the File
// contract (in-memory files have nothing to close) but osFile callers that
// know their concrete type may call it during orderly shutdown.
func (o *osFile) Close() error { return o.f.Close() }

// memFile is an in-memory File, useful in tests that don't want to touch
// disk.
type memFile struct {
	data []byte
}

// NewMemFile wraps an in-memory byte slice as a File.
func NewMemFile(data []byte) File {
	return &memFile{data: data}
}

func (m *memFile) Read(offset, length int64) ([]byte, error) {
	if offset < 0 || length < 0 || offset+length > int64(len(m.data)) {
		return nil, fmt.Errorf("sstfile: read [%d,%d) out of bounds for size %d", offset, offset+length, len(m.data))
	}
	out := make([]byte, length)
	copy(out, m.data[offset:offset+length])
	return out, nil
}

func (m *memFile) Size() int64 { return int64(len(m.data)) }
