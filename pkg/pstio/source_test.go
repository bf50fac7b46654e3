package pstio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorReadSeekTo(t *testing.T) {
	c := FromBytes([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})

	b, err := c.Read(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, b)
	assert.Equal(t, int64(2), c.Pos())

	v, err := c.ReadU16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0403), v)

	at, err := c.ReadAt(8, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 10}, at)
	assert.Equal(t, int64(4), c.Pos(), "ReadAt must not move the cursor")

	require.NoError(t, c.SeekTo(10))
	assert.Equal(t, int64(10), c.Pos())

	_, err = c.Read(1)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.ErrorIs(t, c.SeekTo(11), ErrOutOfRange)
}

func TestCursorSlice(t *testing.T) {
	c := FromBytes([]byte{0, 1, 2, 3, 4, 5, 6, 7})

	s, err := c.Slice(2, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(4), s.Size())

	v, err := s.ReadU32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x05040302), v)
	assert.Equal(t, s.Size(), s.Pos())

	// nested slices stay rooted at the same storage
	inner, err := s.Slice(1, 2)
	require.NoError(t, err)
	b, err := inner.Read(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 4}, b)

	_, err = s.Slice(3, 2)
	assert.ErrorIs(t, err, ErrOutOfRange)

	sk, err := c.SliceAndSkip(3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.Pos())
	assert.Equal(t, int64(3), sk.Size())
}

func TestOpenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	require.NoError(t, os.WriteFile(path, []byte("hello pst"), 0o644))

	src, err := OpenFile(path)
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, int64(9), src.Size())
	c := NewCursor(src)
	b, err := c.ReadAt(6, 3)
	require.NoError(t, err)
	assert.Equal(t, "pst", string(b))
}

func TestOpenEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bin")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	src, err := OpenFile(path)
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, int64(0), src.Size())
}
