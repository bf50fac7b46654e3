// ABOUTME: Random-access byte sources backing a PST reader
// ABOUTME: In-memory buffers and read-only memory-mapped files

package pstio

import (
	"errors"
	"fmt"
	"io"
	"os"

	mmap "github.com/edsrzf/mmap-go"
)

var (
	// ErrOutOfRange indicates a read or slice outside the source bounds
	ErrOutOfRange = errors.New("pstio: out of range")

	// ErrClosed indicates use of a closed source
	ErrClosed = errors.New("pstio: source closed")
)

// Source is a random-access provider of immutable bytes.
// Implementations must be safe for concurrent ReadAt calls.
type Source interface {
	io.ReaderAt
	Size() int64
	Close() error
}

// Memory is a Source over a byte slice
type Memory struct {
	buf []byte
}

// NewMemory wraps buf without copying it
func NewMemory(buf []byte) *Memory {
	return &Memory{buf: buf}
}

// ReadAt implements io.ReaderAt
func (m *Memory) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(m.buf)) {
		return 0, ErrOutOfRange
	}
	n := copy(p, m.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Size returns the buffer length
func (m *Memory) Size() int64 {
	return int64(len(m.buf))
}

// Close is a no-op
func (m *Memory) Close() error {
	return nil
}

// File is a read-only memory mapping of a file on disk
type File struct {
	fd   *os.File
	data mmap.MMap
}

// OpenFile maps path read-only. Empty files are served from memory
// because a zero-length mapping is not allowed on every platform.
func OpenFile(path string) (Source, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	st, err := fd.Stat()
	if err != nil {
		fd.Close()
		return nil, err
	}
	if st.Size() == 0 {
		fd.Close()
		return NewMemory(nil), nil
	}

	data, err := mmap.Map(fd, mmap.RDONLY, 0)
	if err != nil {
		fd.Close()
		return nil, fmt.Errorf("pstio: mmap %s: %w", path, err)
	}

	return &File{fd: fd, data: data}, nil
}

// ReadAt implements io.ReaderAt
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	if f.data == nil {
		return 0, ErrClosed
	}
	if off < 0 || off > int64(len(f.data)) {
		return 0, ErrOutOfRange
	}
	n := copy(p, f.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Size returns the mapped length
func (f *File) Size() int64 {
	return int64(len(f.data))
}

// Close unmaps and closes the file
func (f *File) Close() error {
	if f.data == nil {
		return nil
	}
	err := f.data.Unmap()
	f.data = nil
	if cerr := f.fd.Close(); err == nil {
		err = cerr
	}
	return err
}
