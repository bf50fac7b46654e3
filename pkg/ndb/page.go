// ABOUTME: 512-byte page framing and trailer validation
// ABOUTME: Checks page type, repeated type, CRC and signature

package ndb

import (
	"encoding/binary"
	"fmt"
)

const (
	PageSize        = 512
	PageTrailerSize = 16
	PageDataSize    = PageSize - PageTrailerSize // bytes covered by the page CRC
)

// PageType is the ptype byte of a page trailer
type PageType uint8

const (
	PageTypeBBT   PageType = 0x80
	PageTypeNBT   PageType = 0x81
	PageTypeFMap  PageType = 0x82
	PageTypePMap  PageType = 0x83
	PageTypeAMap  PageType = 0x84
	PageTypeFPMap PageType = 0x85
	PageTypeDL    PageType = 0x86
)

// Known reports whether the page type is defined
func (p PageType) Known() bool {
	return p >= PageTypeBBT && p <= PageTypeDL
}

// Signed reports whether the trailer signature is computed or must be zero
func (p PageType) Signed() bool {
	return p == PageTypeBBT || p == PageTypeNBT || p == PageTypeDL
}

func (p PageType) String() string {
	switch p {
	case PageTypeBBT:
		return "BBT"
	case PageTypeNBT:
		return "NBT"
	case PageTypeFMap:
		return "FMap"
	case PageTypePMap:
		return "PMap"
	case PageTypeAMap:
		return "AMap"
	case PageTypeFPMap:
		return "FPMap"
	case PageTypeDL:
		return "DL"
	}
	return fmt.Sprintf("PageType(0x%02x)", uint8(p))
}

// PageTrailer is the last 16 bytes of every page
type PageTrailer struct {
	Type PageType
	Sig  uint16
	CRC  uint32
	BID  BID
}

// ParsePageTrailer validates a 512-byte page read from offset ib and
// returns its trailer
func ParsePageTrailer(page []byte, ib uint64) (PageTrailer, error) {
	if len(page) != PageSize {
		return PageTrailer{}, Corruptf(CauseSize, int64(ib), "page is %d bytes", len(page))
	}

	t := page[PageDataSize:]
	tr := PageTrailer{
		Type: PageType(t[0]),
		Sig:  binary.LittleEndian.Uint16(t[2:4]),
		CRC:  binary.LittleEndian.Uint32(t[4:8]),
		BID:  BID(binary.LittleEndian.Uint64(t[8:16])),
	}

	if t[0] != t[1] {
		return tr, Corruptf(CauseTypeCode, int64(ib), "page type 0x%02x repeated as 0x%02x", t[0], t[1])
	}
	if !tr.Type.Known() {
		return tr, Corruptf(CauseTypeCode, int64(ib), "unknown page type 0x%02x", t[0])
	}

	if crc := CRC(page[:PageDataSize]); crc != tr.CRC {
		return tr, Corruptf(CauseCRC, int64(ib), "page crc 0x%08x, computed 0x%08x", tr.CRC, crc)
	}

	if tr.Type.Signed() {
		if sig := ComputeSig(ib, uint64(tr.BID)); sig != tr.Sig {
			return tr, Corruptf(CauseSignature, int64(ib), "page signature 0x%04x, computed 0x%04x", tr.Sig, sig)
		}
	} else if tr.Sig != 0 {
		return tr, Corruptf(CauseSignature, int64(ib), "%s page has signature 0x%04x", tr.Type, tr.Sig)
	}

	return tr, nil
}
