package pstio

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Cursor is a bounded view over a Source with its own read position.
// Cursors are cheap; each goroutine should hold its own.
type Cursor struct {
	src  io.ReaderAt
	base int64
	size int64
	pos  int64
}

// NewCursor returns a cursor spanning the whole source
func NewCursor(src Source) *Cursor {
	return &Cursor{src: src, size: src.Size()}
}

// FromBytes returns a cursor over an in-memory slice
func FromBytes(b []byte) *Cursor {
	return &Cursor{src: NewMemory(b), size: int64(len(b))}
}

// Size returns the length of the view
func (c *Cursor) Size() int64 {
	return c.size
}

// Pos returns the current read position relative to the view
func (c *Cursor) Pos() int64 {
	return c.pos
}

// SeekTo moves the cursor to an absolute position within the view
func (c *Cursor) SeekTo(pos int64) error {
	if pos < 0 || pos > c.size {
		return fmt.Errorf("%w: seek %d of %d", ErrOutOfRange, pos, c.size)
	}
	c.pos = pos
	return nil
}

// Skip advances the cursor by n bytes
func (c *Cursor) Skip(n int64) error {
	return c.SeekTo(c.pos + n)
}

// ReadAt reads n bytes at off without moving the cursor
func (c *Cursor) ReadAt(off int64, n int) ([]byte, error) {
	if off < 0 || n < 0 || off+int64(n) > c.size {
		return nil, fmt.Errorf("%w: read %d bytes at %d of %d", ErrOutOfRange, n, off, c.size)
	}
	buf := make([]byte, n)
	if n == 0 {
		return buf, nil
	}
	if _, err := c.src.ReadAt(buf, c.base+off); err != nil {
		return nil, fmt.Errorf("%w: read %d bytes at %d: %v", ErrOutOfRange, n, c.base+off, err)
	}
	return buf, nil
}

// Read reads n bytes at the cursor and advances it
func (c *Cursor) Read(n int) ([]byte, error) {
	b, err := c.ReadAt(c.pos, n)
	if err != nil {
		return nil, err
	}
	c.pos += int64(n)
	return b, nil
}

// Slice returns an independent view of n bytes starting at off
func (c *Cursor) Slice(off, n int64) (*Cursor, error) {
	if off < 0 || n < 0 || off+n > c.size {
		return nil, fmt.Errorf("%w: slice [%d,%d) of %d", ErrOutOfRange, off, off+n, c.size)
	}
	return &Cursor{src: c.src, base: c.base + off, size: n}, nil
}

// SliceAndSkip returns a view of the next n bytes and advances past them
func (c *Cursor) SliceAndSkip(n int64) (*Cursor, error) {
	s, err := c.Slice(c.pos, n)
	if err != nil {
		return nil, err
	}
	c.pos += n
	return s, nil
}

// ReadU8 reads one byte
func (c *Cursor) ReadU8() (uint8, error) {
	b, err := c.Read(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU16 reads a little-endian uint16
func (c *Cursor) ReadU16() (uint16, error) {
	b, err := c.Read(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadU32 reads a little-endian uint32
func (c *Cursor) ReadU32() (uint32, error) {
	b, err := c.Read(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadU64 reads a little-endian uint64
func (c *Cursor) ReadU64() (uint64, error) {
	b, err := c.Read(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}
