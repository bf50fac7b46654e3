// ABOUTME: Block trailer validation and payload decryption
// ABOUTME: Decoder resolves BIDs through the BBT and reads verified blocks

package ndb

import (
	"encoding/binary"

	"github.com/rs/zerolog"

	"github.com/sbridges/pasta/pkg/pstio"
)

const (
	BlockTrailerSize = 16
	MaxBlockSize     = 8192
	MaxBlockPayload  = MaxBlockSize - BlockTrailerSize
	blockAlign       = 64
)

// BlockAllocSize is the on-disk footprint of a block with cb payload bytes
func BlockAllocSize(cb int) int {
	return (cb + BlockTrailerSize + blockAlign - 1) / blockAlign * blockAlign
}

// BlockTrailer is the last 16 bytes of a block allocation
type BlockTrailer struct {
	Size uint16
	Sig  uint16
	CRC  uint32
	BID  BID
}

// Block is a verified block. Data is decrypted for external blocks.
type Block struct {
	Ref     BRef
	Trailer BlockTrailer
	Data    []byte
}

// Decoder reads blocks of one file
type Decoder struct {
	src      *pstio.Cursor
	bbt      *BBT
	cipher   Cipher
	maxDepth int
	rec      Recorder
	log      zerolog.Logger
}

// DecoderConfig holds optional Decoder settings
type DecoderConfig struct {
	MaxDepth int
	Recorder Recorder
	Logger   *zerolog.Logger
}

// NewDecoder returns a block decoder over src using bbt for lookups
func NewDecoder(src *pstio.Cursor, bbt *BBT, cipher Cipher, cfg DecoderConfig) *Decoder {
	d := &Decoder{
		src:      src,
		bbt:      bbt,
		cipher:   cipher,
		maxDepth: cfg.MaxDepth,
		rec:      cfg.Recorder,
		log:      zerolog.Nop(),
	}
	if d.maxDepth <= 0 {
		d.maxDepth = DefaultMaxDepth
	}
	if d.rec == nil {
		d.rec = NopRecorder
	}
	if cfg.Logger != nil {
		d.log = cfg.Logger.With().Str("component", "ndb").Logger()
	}
	return d
}

// BBT returns the block tree
func (d *Decoder) BBT() *BBT {
	return d.bbt
}

// Cipher returns the payload cipher
func (d *Decoder) Cipher() Cipher {
	return d.cipher
}

// MaxDepth returns the walk depth bound
func (d *Decoder) MaxDepth() int {
	return d.maxDepth
}

// ReadBlock resolves bid through the BBT and reads the verified block.
// A BID missing from the BBT is corruption since every reference must
// resolve.
func (d *Decoder) ReadBlock(bid BID) (*Block, error) {
	e, found, err := d.bbt.Lookup(bid)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, Corruptf(CauseMissing, -1, "block %s not in bbt", bid)
	}
	return d.ReadEntry(e)
}

// ReadEntry reads the block described by a BBT entry
func (d *Decoder) ReadEntry(e BBTEntry) (*Block, error) {
	cb := int(e.Size)
	alloc := BlockAllocSize(cb)
	ib := int64(e.Ref.IB)

	raw, err := d.src.ReadAt(ib, alloc)
	if err != nil {
		return nil, Corruptf(CauseBounds, ib, "block %s: %v", e.Ref.BID, err)
	}

	kind := "external"
	if e.Ref.BID.Internal() {
		kind = "internal"
	}
	d.rec.BlockRead(kind)

	t := raw[alloc-BlockTrailerSize:]
	tr := BlockTrailer{
		Size: binary.LittleEndian.Uint16(t[0:2]),
		Sig:  binary.LittleEndian.Uint16(t[2:4]),
		CRC:  binary.LittleEndian.Uint32(t[4:8]),
		BID:  BID(binary.LittleEndian.Uint64(t[8:16])),
	}
	payload := raw[:cb]

	if int(tr.Size) != cb {
		return nil, Corruptf(CauseSize, ib, "block %s trailer size %d, bbt size %d", e.Ref.BID, tr.Size, cb)
	}
	if crc := CRC(payload); crc != tr.CRC {
		return nil, Corruptf(CauseCRC, ib, "block %s crc 0x%08x, computed 0x%08x", e.Ref.BID, tr.CRC, crc)
	}
	if sig := ComputeSig(e.Ref.IB, uint64(e.Ref.BID)); sig != tr.Sig {
		return nil, Corruptf(CauseSignature, ib, "block %s signature 0x%04x, computed 0x%04x", e.Ref.BID, tr.Sig, sig)
	}
	if tr.BID != e.Ref.BID {
		return nil, Corruptf(CauseMismatch, ib, "block trailer bid %s, referenced as %s", tr.BID, e.Ref.BID)
	}

	data := payload
	if !e.Ref.BID.Internal() {
		data = d.cipher.Decode(payload)
	}
	d.log.Debug().
		Stringer("bid", e.Ref.BID).
		Uint64("ib", e.Ref.IB).
		Int("size", cb).
		Str("kind", kind).
		Msg("block read")
	return &Block{Ref: e.Ref, Trailer: tr, Data: data}, nil
}
