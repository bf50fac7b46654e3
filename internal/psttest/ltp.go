package psttest

import (
	"encoding/binary"
	"time"

	"github.com/sbridges/pasta/pkg/ndb"
	"github.com/sbridges/pasta/pkg/props"
)

// Prop is a property to store in a PC. Data holds the encoded value.
type Prop struct {
	ID   uint16
	Type props.Type
	Data []byte

	// Subnode stores the value in its own subnode instead of the heap
	Subnode bool
}

// PCOptions tunes AddPC
type PCOptions struct {
	// Fanout caps BTH records per node
	Fanout int

	// SplitEvery starts a new heap block after every n value allocations
	SplitEvery int
}

// AddPC stores a Property Context as node nid and returns its NBT entry
func (b *Builder) AddPC(nid ndb.NID, ps []Prop, opt PCOptions) ndb.NBTEntry {
	h := NewHeap(ClientSigPC)
	var subs []ndb.SLEntry
	var recs []Record
	allocs := 0

	for _, p := range ps {
		val := make([]byte, 6)
		binary.LittleEndian.PutUint16(val[0:2], uint16(p.Type))
		switch {
		case !p.Type.Variable() && p.Type.Size() <= 4:
			copy(val[2:], p.Data)
		case p.Subnode:
			sub := ndb.MakeNID(ndb.NIDTypeLTP, uint32(len(subs)+1))
			subs = append(subs, ndb.SLEntry{NID: sub, Data: b.AddStream(p.Data)})
			binary.LittleEndian.PutUint32(val[2:], uint32(sub))
		case len(p.Data) == 0:
			// blank HNID
		default:
			if opt.SplitEvery > 0 && allocs > 0 && allocs%opt.SplitEvery == 0 {
				h.NewBlock()
			}
			binary.LittleEndian.PutUint32(val[2:], h.Alloc(p.Data))
			allocs++
		}
		key := binary.LittleEndian.AppendUint16(nil, p.ID)
		recs = append(recs, Record{Key: key, Value: val})
	}

	h.SetRoot(h.AddBTH(2, 6, recs, opt.Fanout))
	e := ndb.NBTEntry{NID: nid, Data: b.AddBlocks(h.Blocks())}
	if len(subs) > 0 {
		e.Sub = b.AddSubnodes(subs)
	}
	b.AddNode(e)
	return e
}

// Column is a TC column
type Column struct {
	ID   uint16
	Type props.Type
}

// Row is a TC row. Cells holds encoded values keyed by property id;
// absent cells are left unset in the existence bitmap.
type Row struct {
	ID    uint32
	Cells map[uint16][]byte
}

// TCOptions tunes AddTC
type TCOptions struct {
	// SubnodeRows stores the row matrix in a subnode instead of the heap
	SubnodeRows bool

	// Fanout caps BTH records per node
	Fanout int
}

// TCLayout reports the computed row layout
type TCLayout struct {
	RowSize int
	End1b   int
	Offsets map[uint16]int
	Bits    map[uint16]int
}

func colWidth(t props.Type) int {
	if t.Variable() {
		return 4
	}
	return t.Size()
}

// AddTC stores a Table Context as node nid. LtpRowId and LtpRowVer
// columns are added in front of cols.
func (b *Builder) AddTC(nid ndb.NID, cols []Column, rows []Row, opt TCOptions) (ndb.NBTEntry, TCLayout) {
	all := []Column{
		{ID: props.PidTagLtpRowId, Type: props.TypeInteger32},
		{ID: props.PidTagLtpRowVer, Type: props.TypeInteger32},
	}
	for _, c := range cols {
		if c.ID != props.PidTagLtpRowId && c.ID != props.PidTagLtpRowVer {
			all = append(all, c)
		}
	}

	lay := TCLayout{Offsets: make(map[uint16]int), Bits: make(map[uint16]int)}
	off := 0
	var rgib [4]int
	for gi, width := range [][]int{{8, 4}, {2}, {1}} {
		for _, c := range all {
			w := colWidth(c.Type)
			for _, want := range width {
				if w == want {
					lay.Offsets[c.ID] = off
					off += w
				}
			}
		}
		rgib[gi] = off
	}
	for i, c := range all {
		lay.Bits[c.ID] = i
	}
	lay.End1b = off
	lay.RowSize = off + (len(all)+7)/8
	rgib[3] = lay.RowSize

	h := NewHeap(ClientSigTC)
	var matrix []byte
	var recs []Record
	for i, r := range rows {
		row := make([]byte, lay.RowSize)
		binary.LittleEndian.PutUint32(row[0:4], r.ID)
		binary.LittleEndian.PutUint32(row[4:8], uint32(i))
		row[lay.End1b] |= 0x80 | 0x40
		for _, c := range all[2:] {
			data, ok := r.Cells[c.ID]
			if !ok {
				continue
			}
			o := lay.Offsets[c.ID]
			if c.Type.Variable() {
				binary.LittleEndian.PutUint32(row[o:], h.Alloc(data))
			} else {
				copy(row[o:o+colWidth(c.Type)], data)
			}
			bit := lay.Bits[c.ID]
			row[lay.End1b+bit/8] |= 1 << (7 - bit%8)
		}
		matrix = append(matrix, row...)
		recs = append(recs, Record{
			Key:   binary.LittleEndian.AppendUint32(nil, r.ID),
			Value: binary.LittleEndian.AppendUint32(nil, uint32(i)),
		})
	}

	var hnidRows uint32
	var subs []ndb.SLEntry
	switch {
	case len(rows) == 0:
	case opt.SubnodeRows:
		perBlock := ndb.MaxBlockPayload / lay.RowSize
		chunks := Chunk(matrix, perBlock*lay.RowSize)
		for i := 0; i < len(chunks)-1; i++ {
			padded := make([]byte, ndb.MaxBlockPayload)
			copy(padded, chunks[i])
			chunks[i] = padded
		}
		sub := ndb.MakeNID(ndb.NIDTypeLTP, 1)
		subs = append(subs, ndb.SLEntry{NID: sub, Data: b.AddBlocks(chunks)})
		hnidRows = uint32(sub)
	default:
		hnidRows = h.Alloc(matrix)
	}

	rowIndex := h.AddBTH(4, 4, recs, opt.Fanout)

	info := make([]byte, 22, 22+8*len(all))
	info[0] = ClientSigTC
	info[1] = byte(len(all))
	for i, v := range rgib {
		binary.LittleEndian.PutUint16(info[2+2*i:], uint16(v))
	}
	binary.LittleEndian.PutUint32(info[10:14], rowIndex)
	binary.LittleEndian.PutUint32(info[14:18], hnidRows)
	for _, c := range all {
		d := make([]byte, 8)
		binary.LittleEndian.PutUint32(d[0:4], uint32(c.ID)<<16|uint32(c.Type))
		binary.LittleEndian.PutUint16(d[4:6], uint16(lay.Offsets[c.ID]))
		d[6] = byte(colWidth(c.Type))
		d[7] = byte(lay.Bits[c.ID])
		info = append(info, d...)
	}
	h.SetRoot(h.Alloc(info))

	e := ndb.NBTEntry{NID: nid, Data: b.AddBlocks(h.Blocks())}
	if len(subs) > 0 {
		e.Sub = b.AddSubnodes(subs)
	}
	b.AddNode(e)
	return e, lay
}

// I32 encodes an Integer32 value
func I32(v int32) []byte {
	return binary.LittleEndian.AppendUint32(nil, uint32(v))
}

// I64 encodes an Integer64 value
func I64(v int64) []byte {
	return binary.LittleEndian.AppendUint64(nil, uint64(v))
}

// Bool encodes a Boolean value
func Bool(v bool) []byte {
	if v {
		return []byte{1}
	}
	return []byte{0}
}

// Time encodes a Time value
func Time(t time.Time) []byte {
	return I64(props.TimeToFiletime(t))
}

// Str encodes a String value
func Str(s string) []byte {
	b, err := props.EncodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

// MVI32 encodes a MultipleInteger32 value
func MVI32(vs ...int32) []byte {
	out := binary.LittleEndian.AppendUint32(nil, uint32(len(vs)))
	for _, v := range vs {
		out = binary.LittleEndian.AppendUint32(out, uint32(v))
	}
	return out
}
