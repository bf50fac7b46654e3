// ABOUTME: BTree-on-Heap: ordered fixed-width key to value index
// ABOUTME: Keys compare as unsigned bytes; nodes live in heap allocations

package ltp

import (
	"bytes"

	"github.com/sbridges/pasta/pkg/ndb"
)

const (
	bthHeaderSize = 8
	bthType       = 0xB5
	bthChildSize  = 4
)

// BTHHeader is the BTHHEADER allocation
type BTHHeader struct {
	KeySize     int
	ValueSize   int
	IndexLevels int
	Root        HID // zero for an empty tree
}

// Record is one leaf record
type Record struct {
	Key   []byte
	Value []byte
}

// BTH is a BTree-on-Heap
type BTH struct {
	hn  *HeapOnNode
	hdr BTHHeader
}

// OpenBTH reads the BTH whose header allocation is hid
func OpenBTH(hn *HeapOnNode, hid HID) (*BTH, error) {
	raw, err := hn.Load(hid)
	if err != nil {
		return nil, err
	}
	if len(raw) != bthHeaderSize {
		return nil, ndb.Corruptf(ndb.CauseSize, -1, "BTH header %s is %d bytes", hid, len(raw))
	}
	if raw[0] != bthType {
		return nil, ndb.Corruptf(ndb.CauseMagic, -1, "BTH header %s type 0x%02x", hid, raw[0])
	}
	hdr := BTHHeader{
		KeySize:     int(raw[1]),
		ValueSize:   int(raw[2]),
		IndexLevels: int(raw[3]),
		Root:        HID(uint32(raw[4]) | uint32(raw[5])<<8 | uint32(raw[6])<<16 | uint32(raw[7])<<24),
	}
	switch hdr.KeySize {
	case 2, 4, 8, 16:
	default:
		return nil, ndb.Corruptf(ndb.CauseSize, -1, "BTH key size %d", hdr.KeySize)
	}
	if hdr.ValueSize < 1 || hdr.ValueSize > 32 {
		return nil, ndb.Corruptf(ndb.CauseSize, -1, "BTH value size %d", hdr.ValueSize)
	}
	if limit := hn.d.MaxDepth(); hdr.IndexLevels > limit {
		return nil, ndb.Corruptf(ndb.CauseDepth, -1, "BTH has %d index levels, limit %d", hdr.IndexLevels, limit)
	}
	return &BTH{hn: hn, hdr: hdr}, nil
}

// Header returns the BTH header
func (t *BTH) Header() BTHHeader {
	return t.hdr
}

// Heap returns the heap the tree lives in
func (t *BTH) Heap() *HeapOnNode {
	return t.hn
}

// loadNode returns the records of a node at the given level
func (t *BTH) loadNode(hid HID, level int) ([][]byte, error) {
	raw, err := t.hn.Load(hid)
	if err != nil {
		return nil, err
	}
	size := t.hdr.KeySize + t.hdr.ValueSize
	if level > 0 {
		size = t.hdr.KeySize + bthChildSize
	}
	if len(raw)%size != 0 {
		return nil, ndb.Corruptf(ndb.CauseSize, -1, "BTH node %s is %d bytes, record size %d", hid, len(raw), size)
	}
	out := make([][]byte, len(raw)/size)
	for i := range out {
		out[i] = raw[i*size : (i+1)*size]
	}
	if level > 0 {
		for i := 1; i < len(out); i++ {
			if compareKeys(out[i-1][:t.hdr.KeySize], out[i][:t.hdr.KeySize]) >= 0 {
				return nil, ndb.Corruptf(ndb.CauseOrder, -1, "BTH node %s keys out of order at %d", hid, i)
			}
		}
	}
	return out, nil
}

func (t *BTH) child(rec []byte) HID {
	c := rec[t.hdr.KeySize:]
	return HID(uint32(c[0]) | uint32(c[1])<<8 | uint32(c[2])<<16 | uint32(c[3])<<24)
}

// compareKeys orders keys as unsigned byte strings
func compareKeys(a, b []byte) int {
	return bytes.Compare(a, b)
}

// Lookup returns the value stored under key
func (t *BTH) Lookup(key []byte) ([]byte, bool, error) {
	if len(key) != t.hdr.KeySize {
		return nil, false, ndb.Corruptf(ndb.CauseSize, -1, "BTH key is %d bytes, tree uses %d", len(key), t.hdr.KeySize)
	}
	if t.hdr.Root == 0 {
		return nil, false, nil
	}

	hid := t.hdr.Root
	for level := t.hdr.IndexLevels; level > 0; level-- {
		recs, err := t.loadNode(hid, level)
		if err != nil {
			return nil, false, err
		}
		idx := -1
		for i, r := range recs {
			if compareKeys(r[:t.hdr.KeySize], key) > 0 {
				break
			}
			idx = i
		}
		if idx < 0 {
			return nil, false, nil
		}
		hid = t.child(recs[idx])
	}

	recs, err := t.loadNode(hid, 0)
	if err != nil {
		return nil, false, err
	}
	for _, r := range recs {
		if bytes.Equal(r[:t.hdr.KeySize], key) {
			return r[t.hdr.KeySize:], true, nil
		}
	}
	return nil, false, nil
}

// Records returns every leaf record in tree order
func (t *BTH) Records() ([]Record, error) {
	if t.hdr.Root == 0 {
		return nil, nil
	}

	type frame struct {
		recs  [][]byte
		level int
		next  int
	}

	rootRecs, err := t.loadNode(t.hdr.Root, t.hdr.IndexLevels)
	if err != nil {
		return nil, err
	}

	var out []Record
	stack := []frame{{recs: rootRecs, level: t.hdr.IndexLevels}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.level == 0 {
			for _, r := range top.recs {
				out = append(out, Record{Key: r[:t.hdr.KeySize], Value: r[t.hdr.KeySize:]})
			}
			stack = stack[:len(stack)-1]
			continue
		}
		if top.next >= len(top.recs) {
			stack = stack[:len(stack)-1]
			continue
		}
		level := top.level - 1
		recs, err := t.loadNode(t.child(top.recs[top.next]), level)
		if err != nil {
			return nil, err
		}
		top.next++
		stack = append(stack, frame{recs: recs, level: level})
	}
	return out, nil
}

// Keys returns every key in tree order
func (t *BTH) Keys() ([][]byte, error) {
	recs, err := t.Records()
	if err != nil {
		return nil, err
	}
	keys := make([][]byte, len(recs))
	for i, r := range recs {
		keys[i] = r.Key
	}
	return keys, nil
}
