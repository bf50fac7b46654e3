package ndb

import (
	"encoding/binary"

	"github.com/sbridges/pasta/pkg/pstio"
)

// NBTEntrySize is the size of a node B+Tree leaf entry
const NBTEntrySize = 32

// NBTEntry maps a NID to its data and subnode blocks
type NBTEntry struct {
	NID    NID
	Data   BID
	Sub    BID // zero when the node has no subnode tree
	Parent NID // zero when there is no parent
}

// HasSub reports whether the node owns a subnode tree
func (e NBTEntry) HasSub() bool {
	return e.Sub != 0
}

// NBT is the node B+Tree
type NBT struct {
	t btree
}

// NewNBT returns the node tree rooted at root
func NewNBT(src *pstio.Cursor, root BRef, maxDepth int, rec Recorder) *NBT {
	if rec == nil {
		rec = NopRecorder
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &NBT{t: btree{
		name:     "nbt",
		src:      src,
		root:     root,
		ptype:    PageTypeNBT,
		leafSize: NBTEntrySize,
		leafKey:  func(e []byte) uint64 { return binary.LittleEndian.Uint64(e[0:8]) },
		maxDepth: maxDepth,
		rec:      rec,
	}}
}

// Root returns the root page reference
func (n *NBT) Root() BRef {
	return n.t.root
}

func parseNBTEntry(e []byte) (NBTEntry, error) {
	entry := NBTEntry{
		NID:    NID(binary.LittleEndian.Uint64(e[0:8])),
		Data:   BID(binary.LittleEndian.Uint64(e[8:16])),
		Sub:    BID(binary.LittleEndian.Uint64(e[16:24])),
		Parent: NID(binary.LittleEndian.Uint32(e[24:28])),
	}
	off := int64(-1)
	if !entry.NID.Type().Known() {
		return entry, Corruptf(CauseTypeCode, off, "nbt entry %s has unknown type", entry.NID)
	}
	if !entry.Data.Valid() || !entry.Sub.Valid() {
		return entry, Corruptf(CauseReserved, off, "nbt entry %s references a bid with the reserved bit set", entry.NID)
	}
	if binary.LittleEndian.Uint32(e[28:32]) != 0 {
		return entry, Corruptf(CauseReserved, off, "nbt entry %s padding is nonzero", entry.NID)
	}
	return entry, nil
}

// Lookup finds the entry for nid
func (n *NBT) Lookup(nid NID) (NBTEntry, bool, error) {
	raw, found, err := n.t.find(uint64(nid))
	if err != nil || !found {
		return NBTEntry{}, found, err
	}
	e, err := parseNBTEntry(raw)
	return e, err == nil, err
}

// Walk visits every page in pre-order and every leaf entry in key order.
// Either callback may be nil.
func (n *NBT) Walk(visitPage func(depth int, p *BTPage) error, visitEntry func(NBTEntry) error) error {
	var leaf func([]byte) error
	if visitEntry != nil {
		leaf = func(raw []byte) error {
			e, err := parseNBTEntry(raw)
			if err != nil {
				return err
			}
			return visitEntry(e)
		}
	}
	return n.t.walk(visitPage, leaf)
}

// Entries returns every leaf entry in key order
func (n *NBT) Entries() ([]NBTEntry, error) {
	var out []NBTEntry
	err := n.Walk(nil, func(e NBTEntry) error {
		out = append(out, e)
		return nil
	})
	return out, err
}
