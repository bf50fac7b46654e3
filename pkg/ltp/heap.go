// ABOUTME: Heap-on-Node allocator view over a node data stream
// ABOUTME: Resolves HIDs through per-block page maps

package ltp

import (
	"encoding/binary"
	"fmt"

	"github.com/sbridges/pasta/pkg/ndb"
)

const (
	hnHeaderSize  = 12
	hnSig         = 0xEC
	maxPageMapGap = 63
)

// ClientSig is the bClientSig byte of a heap header
type ClientSig uint8

const (
	ClientSigTC  ClientSig = 0x7C
	ClientSigBTH ClientSig = 0xB5
	ClientSigPC  ClientSig = 0xBC
)

var reservedClientSigs = map[ClientSig]bool{
	0x6C: true, 0x8C: true, 0x9C: true, 0xA5: true, 0xAC: true, 0xCC: true,
}

func (c ClientSig) String() string {
	switch c {
	case ClientSigTC:
		return "TC"
	case ClientSigBTH:
		return "BTH"
	case ClientSigPC:
		return "PC"
	}
	return fmt.Sprintf("ClientSig(0x%02x)", uint8(c))
}

// HNHeader is the header at the start of the first heap block
type HNHeader struct {
	PageMapOffset uint16 // ibHnpm
	ClientSig     ClientSig
	UserRoot      HID
	FillLevel     [4]byte
}

// pageMap is the decoded HNPAGEMAP of one block
type pageMap struct {
	allocs int
	frees  int
	offs   []uint16
}

// HeapOnNode is a read-only heap over the data stream of one node
type HeapOnNode struct {
	d      *ndb.Decoder
	data   ndb.BID
	header HNHeader
}

// OpenHeap reads and validates the heap rooted at data
func OpenHeap(d *ndb.Decoder, data ndb.BID) (*HeapOnNode, error) {
	first, err := d.BlockAt(data, 0)
	if err != nil {
		return nil, err
	}
	b := first.Data
	ib := int64(first.Ref.IB)
	if len(b) < hnHeaderSize {
		return nil, ndb.Corruptf(ndb.CauseSize, ib, "heap block is %d bytes", len(b))
	}
	if b[2] != hnSig {
		return nil, ndb.Corruptf(ndb.CauseMagic, ib, "heap signature 0x%02x", b[2])
	}

	h := &HeapOnNode{
		d:    d,
		data: data,
		header: HNHeader{
			PageMapOffset: binary.LittleEndian.Uint16(b[0:2]),
			ClientSig:     ClientSig(b[3]),
			UserRoot:      HID(binary.LittleEndian.Uint32(b[4:8])),
		},
	}
	copy(h.header.FillLevel[:], b[8:12])

	switch h.header.ClientSig {
	case ClientSigTC, ClientSigBTH, ClientSigPC:
	default:
		if reservedClientSigs[h.header.ClientSig] {
			return nil, ndb.Corruptf(ndb.CauseReserved, ib, "reserved heap client signature %s", h.header.ClientSig)
		}
		return nil, ndb.Corruptf(ndb.CauseTypeCode, ib, "unknown heap client signature %s", h.header.ClientSig)
	}

	if _, err := parsePageMap(b, ib); err != nil {
		return nil, err
	}
	return h, nil
}

// IsHeap reports whether a decoded first block starts with a heap header
func IsHeap(b []byte) bool {
	return len(b) >= hnHeaderSize && b[2] == hnSig
}

// Header returns the heap header
func (h *HeapOnNode) Header() HNHeader {
	return h.header
}

// ClientSig returns the client signature
func (h *HeapOnNode) ClientSig() ClientSig {
	return h.header.ClientSig
}

// UserRoot returns the handle of the client root allocation
func (h *HeapOnNode) UserRoot() HID {
	return h.header.UserRoot
}

// Decoder returns the block decoder backing the heap
func (h *HeapOnNode) Decoder() *ndb.Decoder {
	return h.d
}

// BlockCount returns the number of heap blocks
func (h *HeapOnNode) BlockCount() (int, error) {
	return h.d.BlockCount(h.data)
}

func parsePageMap(b []byte, ib int64) (*pageMap, error) {
	if len(b) < 2 {
		return nil, ndb.Corruptf(ndb.CauseSize, ib, "heap block is %d bytes", len(b))
	}
	at := int(binary.LittleEndian.Uint16(b[0:2]))
	if at+4 > len(b) {
		return nil, ndb.Corruptf(ndb.CauseBounds, ib, "page map at %d beyond block of %d bytes", at, len(b))
	}
	pm := &pageMap{
		allocs: int(binary.LittleEndian.Uint16(b[at : at+2])),
		frees:  int(binary.LittleEndian.Uint16(b[at+2 : at+4])),
	}
	end := at + 4 + 2*(pm.allocs+1)
	if end > len(b) {
		return nil, ndb.Corruptf(ndb.CauseBounds, ib, "page map with %d allocations overruns block of %d bytes", pm.allocs, len(b))
	}
	if len(b)-end > maxPageMapGap {
		return nil, ndb.Corruptf(ndb.CauseSize, ib, "%d bytes after page map", len(b)-end)
	}
	pm.offs = make([]uint16, pm.allocs+1)
	for i := range pm.offs {
		pm.offs[i] = binary.LittleEndian.Uint16(b[at+4+2*i:])
	}
	for i, off := range pm.offs {
		if int(off) > at {
			return nil, ndb.Corruptf(ndb.CauseBounds, ib, "allocation offset %d at %d overlaps page map at %d", off, i, at)
		}
	}
	return pm, nil
}

// Load returns the bytes of allocation hid
func (h *HeapOnNode) Load(hid HID) ([]byte, error) {
	if err := hid.validate(); err != nil {
		return nil, err
	}
	blk, err := h.d.BlockAt(h.data, hid.BlockIndex())
	if err != nil {
		return nil, err
	}
	ib := int64(blk.Ref.IB)
	pm, err := parsePageMap(blk.Data, ib)
	if err != nil {
		return nil, err
	}

	idx := hid.Index()
	if idx > pm.allocs {
		return nil, ndb.Corruptf(ndb.CauseBounds, ib, "%s beyond %d allocations", hid, pm.allocs)
	}
	start, end := int(pm.offs[idx-1]), int(pm.offs[idx])
	if start > end {
		return nil, ndb.Corruptf(ndb.CauseOrder, ib, "%s has inverted range [%d,%d)", hid, start, end)
	}
	return blk.Data[start:end], nil
}
