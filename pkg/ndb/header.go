// ABOUTME: File header and ROOT structure parsing
// ABOUTME: Validates magic, CRCs, versions and reserved zones at open

package ndb

import (
	"bytes"

	"github.com/sbridges/pasta/pkg/pstio"
)

const (
	HeaderSize = 564

	headerMagic       = "!BDN"
	headerClientMagic = "SM"

	VersionUnicode = 23
	versionClient  = 19

	crcPartialStart = 8
	crcPartialLen   = 471
	crcFullLen      = 516

	offRoot        = 180
	rootSize       = 72
	offSentinel    = 512
	offCrypt       = 513
	offCRCFull     = 524
	headerSentinel = 0x80
)

// Root is the ROOT structure embedded in the header
type Root struct {
	FileEOF   uint64 // ibFileEof
	AMapLast  uint64 // ibAMapLast
	AMapFree  uint64 // cbAMapFree
	PMapFree  uint64 // cbPMapFree
	NBT       BRef
	BBT       BRef
	AMapValid uint8 // fAMapValid
}

// Header is the decoded file header
type Header struct {
	Version       uint16
	ClientVersion uint16
	BIDUnused     BID
	BIDNextP      BID
	BIDNextB      BID
	Unique        uint32
	Root          Root
	Cipher        Cipher
	CRCPartial    uint32
	CRCFull       uint32
}

// fieldReader reads consecutive little-endian fields and keeps the
// first error
type fieldReader struct {
	c   *pstio.Cursor
	err error
}

func (f *fieldReader) u8() uint8 {
	if f.err != nil {
		return 0
	}
	v, err := f.c.ReadU8()
	f.err = err
	return v
}

func (f *fieldReader) u16() uint16 {
	if f.err != nil {
		return 0
	}
	v, err := f.c.ReadU16()
	f.err = err
	return v
}

func (f *fieldReader) u32() uint32 {
	if f.err != nil {
		return 0
	}
	v, err := f.c.ReadU32()
	f.err = err
	return v
}

func (f *fieldReader) u64() uint64 {
	if f.err != nil {
		return 0
	}
	v, err := f.c.ReadU64()
	f.err = err
	return v
}

// bytes never returns a short slice
func (f *fieldReader) bytes(n int) []byte {
	if f.err == nil {
		b, err := f.c.Read(n)
		if err == nil {
			return b
		}
		f.err = err
	}
	return make([]byte, n)
}

func (f *fieldReader) bref() BRef {
	return BRef{BID: BID(f.u64()), IB: f.u64()}
}

func (f *fieldReader) skip(n int64) {
	if f.err == nil {
		f.err = f.c.Skip(n)
	}
}

func (f *fieldReader) seek(pos int64) {
	if f.err == nil {
		f.err = f.c.SeekTo(pos)
	}
}

func (f *fieldReader) slice(n int64) *pstio.Cursor {
	if f.err != nil {
		return pstio.FromBytes(make([]byte, n))
	}
	s, err := f.c.SliceAndSkip(n)
	if err != nil {
		f.err = err
		return pstio.FromBytes(make([]byte, n))
	}
	return s
}

// ParseHeader reads and validates the header at offset 0 of src
func ParseHeader(src *pstio.Cursor) (*Header, error) {
	raw, err := src.ReadAt(0, HeaderSize)
	if err != nil {
		return nil, Corruptf(CauseSize, 0, "file too small for header: %v", err)
	}

	if !bytes.Equal(raw[0:4], []byte(headerMagic)) {
		return nil, Corruptf(CauseMagic, 0, "magic % x", raw[0:4])
	}

	f := &fieldReader{c: pstio.FromBytes(raw)}
	f.skip(4)
	h := &Header{
		CRCPartial: f.u32(),
	}
	if crc := CRC(raw[crcPartialStart : crcPartialStart+crcPartialLen]); crc != h.CRCPartial {
		return nil, Corruptf(CauseCRC, 4, "partial crc 0x%08x, computed 0x%08x", h.CRCPartial, crc)
	}

	if magic := f.bytes(2); !bytes.Equal(magic, []byte(headerClientMagic)) {
		return nil, Corruptf(CauseMagic, 8, "client magic % x", magic)
	}

	h.Version = f.u16()
	switch h.Version {
	case VersionUnicode:
	case 14, 15:
		return nil, unsupportedf("ANSI file version %d", h.Version)
	default:
		if h.Version > VersionUnicode {
			return nil, unsupportedf("file version %d", h.Version)
		}
		return nil, Corruptf(CauseTypeCode, 10, "file version %d", h.Version)
	}

	h.ClientVersion = f.u16()
	if h.ClientVersion != versionClient {
		return nil, Corruptf(CauseTypeCode, 12, "client version %d", h.ClientVersion)
	}
	if platform := f.bytes(2); platform[0] != 1 || platform[1] != 1 {
		return nil, Corruptf(CauseTypeCode, 14, "platform bytes %d/%d", platform[0], platform[1])
	}
	if !allZero(f.bytes(8)) {
		return nil, Corruptf(CauseReserved, 16, "reserved header bytes are nonzero")
	}

	h.BIDUnused = BID(f.u64())
	h.BIDNextP = BID(f.u64())
	h.Unique = f.u32()

	f.seek(offRoot)
	root, err := parseRoot(f.slice(rootSize), src.Size())
	if err != nil {
		return nil, err
	}
	h.Root = root

	if f.u32() != 0 {
		return nil, Corruptf(CauseReserved, offRoot+rootSize, "dwAlign is nonzero")
	}
	f.seek(offSentinel)
	if sentinel := f.u8(); sentinel != headerSentinel {
		return nil, Corruptf(CauseMagic, offSentinel, "sentinel 0x%02x", sentinel)
	}

	h.Cipher = Cipher(f.u8())
	switch h.Cipher {
	case CipherNone, CipherPermute:
	case CipherCyclic:
		return nil, unsupportedf("cipher %s", h.Cipher)
	default:
		return nil, Corruptf(CauseTypeCode, offCrypt, "cipher 0x%02x", uint8(h.Cipher))
	}
	if !allZero(f.bytes(2)) {
		return nil, Corruptf(CauseReserved, offCrypt+1, "reserved header bytes are nonzero")
	}

	h.BIDNextB = BID(f.u64())
	h.CRCFull = f.u32()
	if f.err != nil {
		return nil, Corruptf(CauseSize, f.c.Pos(), "header: %v", f.err)
	}
	if crc := CRC(raw[crcPartialStart : crcPartialStart+crcFullLen]); crc != h.CRCFull {
		return nil, Corruptf(CauseCRC, offCRCFull, "full crc 0x%08x, computed 0x%08x", h.CRCFull, crc)
	}

	return h, nil
}

func parseRoot(c *pstio.Cursor, size int64) (Root, error) {
	f := &fieldReader{c: c}
	reserved := f.u32()
	r := Root{
		FileEOF:   f.u64(),
		AMapLast:  f.u64(),
		AMapFree:  f.u64(),
		PMapFree:  f.u64(),
		NBT:       f.bref(),
		BBT:       f.bref(),
		AMapValid: f.u8(),
	}
	pad := f.bytes(3)
	if f.err != nil {
		return r, Corruptf(CauseSize, offRoot, "ROOT: %v", f.err)
	}

	if reserved != 0 {
		return r, Corruptf(CauseReserved, offRoot, "ROOT dwReserved is nonzero")
	}
	if r.FileEOF != uint64(size) {
		return r, Corruptf(CauseSize, offRoot+4, "ibFileEof %d, file is %d bytes", r.FileEOF, size)
	}
	if r.PMapFree != 0 {
		return r, Corruptf(CauseReserved, offRoot+28, "cbPMapFree is %d", r.PMapFree)
	}
	if r.AMapValid > 2 {
		return r, Corruptf(CauseTypeCode, offRoot+68, "fAMapValid is %d", r.AMapValid)
	}
	if !allZero(pad) {
		return r, Corruptf(CauseReserved, offRoot+69, "ROOT reserved bytes are nonzero")
	}
	return r, nil
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
