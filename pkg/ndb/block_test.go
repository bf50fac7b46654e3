package ndb_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbridges/pasta/internal/psttest"
	"github.com/sbridges/pasta/pkg/ndb"
)

func TestBlockAllocSize(t *testing.T) {
	assert.Equal(t, 64, ndb.BlockAllocSize(1))
	assert.Equal(t, 64, ndb.BlockAllocSize(48))
	assert.Equal(t, 128, ndb.BlockAllocSize(49))
	assert.Equal(t, ndb.MaxBlockSize, ndb.BlockAllocSize(ndb.MaxBlockPayload))
}

func TestReadBlock(t *testing.T) {
	for _, cipher := range []ndb.Cipher{ndb.CipherNone, ndb.CipherPermute} {
		t.Run(cipher.String(), func(t *testing.T) {
			b := psttest.New()
			b.Cipher = cipher
			data := pattern(300, 5)
			bid := b.AddBlock(data)
			f := open(t, b)
			require.Equal(t, cipher, f.header.Cipher)

			blk, err := f.dec.ReadBlock(bid)
			require.NoError(t, err)
			assert.Equal(t, data, blk.Data)
			assert.Equal(t, uint16(300), blk.Trailer.Size)
			assert.Equal(t, bid, blk.Trailer.BID)

			ib := b.Entry(bid).Ref.IB
			onDisk := f.img[ib : ib+300]
			if cipher == ndb.CipherPermute {
				assert.NotEqual(t, data, onDisk)
				assert.Equal(t, ndb.Encrypt(data), onDisk)
			} else {
				assert.Equal(t, data, onDisk)
			}
		})
	}
}

func TestInternalBlocksAreNotDecrypted(t *testing.T) {
	b := psttest.New()
	b.Cipher = ndb.CipherPermute
	full := pattern(ndb.MaxBlockPayload, 1)
	tail := pattern(10, 2)
	x := b.AddBlocks([][]byte{full, tail})
	f := open(t, b)

	blk, err := f.dec.ReadBlock(x)
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), blk.Data[0])
	assert.Equal(t, byte(0x01), blk.Data[1])
	assert.Equal(t, uint32(ndb.MaxBlockPayload+10), binary.LittleEndian.Uint32(blk.Data[4:8]))

	stream, err := f.dec.ReadStream(x)
	require.NoError(t, err)
	assert.Equal(t, append(append([]byte{}, full...), tail...), stream)
}

func TestReadBlockMissing(t *testing.T) {
	b := psttest.New()
	b.AddBlock(pattern(8, 0))
	f := open(t, b)

	_, err := f.dec.ReadBlock(0x4000)
	requireCause(t, err, ndb.CauseMissing)
}

func TestReadBlockCorruption(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(img []byte, ib uint64)
		cause  ndb.Cause
	}{
		{
			name:   "payload byte flipped",
			mutate: func(img []byte, ib uint64) { img[ib+3] ^= 0xFF },
			cause:  ndb.CauseCRC,
		},
		{
			name:   "trailer size differs from bbt",
			mutate: func(img []byte, ib uint64) { binary.LittleEndian.PutUint16(img[ib+64-16:], 99) },
			cause:  ndb.CauseSize,
		},
		{
			name:   "signature flipped",
			mutate: func(img []byte, ib uint64) { img[ib+64-14] ^= 0x01 },
			cause:  ndb.CauseSignature,
		},
		{
			name:   "trailer bid differs",
			mutate: func(img []byte, ib uint64) { img[ib+64-8] += 4 },
			cause:  ndb.CauseMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := psttest.New()
			bid := b.AddBlock(pattern(40, 9))
			img := b.Bytes()
			tt.mutate(img, b.Entry(bid).Ref.IB)

			f := openImage(t, img)
			_, err := f.dec.ReadBlock(bid)
			requireCause(t, err, tt.cause)
		})
	}
}

func TestReadBlockRecorder(t *testing.T) {
	b := psttest.New()
	ext := b.AddBlock(pattern(8, 0))
	sl := b.AddSubnodes([]ndb.SLEntry{{NID: ndb.MakeNID(ndb.NIDTypeLTP, 1), Data: ext}})
	f := open(t, b)

	rec := newCountingRecorder()
	dec := ndb.NewDecoder(f.src, f.bbt, f.header.Cipher, ndb.DecoderConfig{Recorder: rec})
	_, err := dec.ReadBlock(ext)
	require.NoError(t, err)
	_, err = dec.ReadBlock(sl)
	require.NoError(t, err)

	assert.Equal(t, 1, rec.blocks["external"])
	assert.Equal(t, 1, rec.blocks["internal"])
}

func TestReadStreamPlain(t *testing.T) {
	b := psttest.New()
	data := []byte("a single block stream")
	bid := b.AddStream(data)
	f := open(t, b)

	got, err := f.dec.ReadStream(bid)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data, got))
}
