// ABOUTME: Property Context: a BTH of property id to typed value
// ABOUTME: Large values resolve through the heap or the node's subnode tree

package ltp

import (
	"encoding/binary"
	"sort"

	"github.com/sbridges/pasta/pkg/ndb"
	"github.com/sbridges/pasta/pkg/props"
)

const (
	pcKeySize   = 2
	pcValueSize = 6
	inlineSize  = 4
)

// PC is a Property Context
type PC struct {
	hn      *HeapOnNode
	bth     *BTH
	sub     *ndb.SubnodeTree
	catalog *props.Catalog
}

// OpenPC opens the property context stored in node
func OpenPC(d *ndb.Decoder, node ndb.NBTEntry, catalog *props.Catalog) (*PC, error) {
	hn, err := OpenHeap(d, node.Data)
	if err != nil {
		return nil, err
	}
	if hn.ClientSig() != ClientSigPC {
		return nil, ndb.Corruptf(ndb.CauseTypeCode, -1, "node %s heap is %s, not PC", node.NID, hn.ClientSig())
	}
	bth, err := OpenBTH(hn, hn.UserRoot())
	if err != nil {
		return nil, err
	}
	if h := bth.Header(); h.KeySize != pcKeySize || h.ValueSize != pcValueSize {
		return nil, ndb.Corruptf(ndb.CauseSize, -1, "PC BTH uses %d/%d byte records", h.KeySize, h.ValueSize)
	}
	if catalog == nil {
		catalog = props.Default()
	}
	return &PC{hn: hn, bth: bth, sub: d.Subnodes(node.Sub), catalog: catalog}, nil
}

// Heap returns the underlying heap
func (pc *PC) Heap() *HeapOnNode {
	return pc.hn
}

// IDs returns the property ids present, in ascending order
func (pc *PC) IDs() ([]uint16, error) {
	keys, err := pc.bth.Keys()
	if err != nil {
		return nil, err
	}
	ids := make([]uint16, len(keys))
	for i, k := range keys {
		ids[i] = binary.LittleEndian.Uint16(k)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Get returns the value of property id. A missing property is not an error.
func (pc *PC) Get(id uint16) (props.Value, bool, error) {
	key := make([]byte, pcKeySize)
	binary.LittleEndian.PutUint16(key, id)
	rec, found, err := pc.bth.Lookup(key)
	if err != nil || !found {
		return props.Value{}, false, err
	}

	typ := props.Type(binary.LittleEndian.Uint16(rec[0:2]))
	if !typ.Known() {
		return props.Value{}, false, ndb.Corruptf(ndb.CauseTypeCode, -1, "property 0x%04x has unknown type 0x%04x", id, uint16(typ))
	}
	if p, ok := pc.catalog.Lookup(id); ok && p.Type != typ {
		return props.Value{}, false, ndb.Corruptf(ndb.CauseMismatch, -1, "property %s stored as %s", p, typ)
	}

	raw := rec[2:6]
	if !typ.Variable() && typ.Size() <= inlineSize {
		b := raw[:typ.Size()]
		if typ == props.TypeBoolean {
			// unused inline bytes must be zero
			b = raw
		}
		v, err := typ.Decode(b)
		return v, err == nil, err
	}

	data, err := pc.resolve(HNID(binary.LittleEndian.Uint32(raw)))
	if err != nil {
		return props.Value{}, false, err
	}
	v, err := typ.Decode(data)
	return v, err == nil, err
}

// resolve returns the bytes an HNID points at
func (pc *PC) resolve(h HNID) ([]byte, error) {
	switch {
	case h.Blank():
		return []byte{}, nil
	case h.IsHID():
		return pc.hn.Load(h.HID())
	}

	e, found, err := pc.sub.Lookup(h.NID())
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ndb.Corruptf(ndb.CauseMissing, -1, "subnode %s not found", h.NID())
	}
	return pc.hn.Decoder().ReadStream(e.Data)
}

// All returns every property that decodes, keyed by id
func (pc *PC) All() (map[uint16]props.Value, error) {
	ids, err := pc.IDs()
	if err != nil {
		return nil, err
	}
	out := make(map[uint16]props.Value, len(ids))
	for _, id := range ids {
		v, found, err := pc.Get(id)
		if err != nil {
			return nil, err
		}
		if found {
			out[id] = v
		}
	}
	return out, nil
}
