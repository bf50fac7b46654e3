package ndb

import (
	"encoding/binary"

	"github.com/sbridges/pasta/pkg/pstio"
)

// BBTEntrySize is the size of a block B+Tree leaf entry
const BBTEntrySize = 24

// BBTEntry maps a BID to its location and size
type BBTEntry struct {
	Ref      BRef
	Size     uint16 // cb, payload bytes before the trailer
	RefCount uint16
}

// BBT is the block B+Tree
type BBT struct {
	t btree
}

// NewBBT returns the block tree rooted at root
func NewBBT(src *pstio.Cursor, root BRef, maxDepth int, rec Recorder) *BBT {
	if rec == nil {
		rec = NopRecorder
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &BBT{t: btree{
		name:     "bbt",
		src:      src,
		root:     root,
		ptype:    PageTypeBBT,
		leafSize: BBTEntrySize,
		leafKey:  func(e []byte) uint64 { return binary.LittleEndian.Uint64(e[0:8]) },
		maxDepth: maxDepth,
		rec:      rec,
	}}
}

// Root returns the root page reference
func (b *BBT) Root() BRef {
	return b.t.root
}

func parseBBTEntry(e []byte) (BBTEntry, error) {
	entry := BBTEntry{
		Ref:      parseBRef(e[0:16]),
		Size:     binary.LittleEndian.Uint16(e[16:18]),
		RefCount: binary.LittleEndian.Uint16(e[18:20]),
	}
	off := int64(entry.Ref.IB)
	if !entry.Ref.BID.Valid() {
		return entry, Corruptf(CauseReserved, off, "bbt entry bid %s has reserved bit set", entry.Ref.BID)
	}
	if entry.Size == 0 || int(entry.Size) > MaxBlockPayload {
		return entry, Corruptf(CauseSize, off, "bbt entry %s has size %d", entry.Ref.BID, entry.Size)
	}
	if entry.RefCount == 0 {
		return entry, Corruptf(CauseSize, off, "bbt entry %s has zero reference count", entry.Ref.BID)
	}
	if binary.LittleEndian.Uint32(e[20:24]) != 0 {
		return entry, Corruptf(CauseReserved, off, "bbt entry %s padding is nonzero", entry.Ref.BID)
	}
	return entry, nil
}

// Lookup finds the entry for bid
func (b *BBT) Lookup(bid BID) (BBTEntry, bool, error) {
	// readers ignore the reserved bit when searching
	raw, found, err := b.t.find(uint64(bid) &^ 1)
	if err != nil || !found {
		return BBTEntry{}, found, err
	}
	e, err := parseBBTEntry(raw)
	return e, err == nil, err
}

// Walk visits every page in pre-order and every leaf entry in key order.
// Either callback may be nil.
func (b *BBT) Walk(visitPage func(depth int, p *BTPage) error, visitEntry func(BBTEntry) error) error {
	var leaf func([]byte) error
	if visitEntry != nil {
		leaf = func(raw []byte) error {
			e, err := parseBBTEntry(raw)
			if err != nil {
				return err
			}
			return visitEntry(e)
		}
	}
	return b.t.walk(visitPage, leaf)
}

// Entries returns every leaf entry in key order
func (b *BBT) Entries() ([]BBTEntry, error) {
	var out []BBTEntry
	err := b.Walk(nil, func(e BBTEntry) error {
		out = append(out, e)
		return nil
	})
	return out, err
}
