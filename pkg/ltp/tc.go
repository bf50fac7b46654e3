// ABOUTME: Table Context: column descriptors, row index BTH and row matrix
// ABOUTME: Reads cells through the cell existence bitmap

package ltp

import (
	"encoding/binary"
	"sort"

	"github.com/sbridges/pasta/pkg/ndb"
	"github.com/sbridges/pasta/pkg/props"
)

const (
	tcInfoSize    = 22
	tcColDescSize = 8
	rowIDSize     = 4
)

// Column is a TCOLDESC
type Column struct {
	Prop   props.Property
	Offset int // ibData
	Width  int // cbData
	Bit    int // iBit
}

// TCInfo is the TCINFO header
type TCInfo struct {
	End4b    int // end of the 8- and 4-byte group
	End2b    int
	End1b    int
	RowSize  int // end of the cell existence bitmap
	RowIndex HID
	Rows     HNID
	Columns  []Column
}

// TC is a Table Context. It caches the last row matrix block it read
// and is not safe for concurrent use.
type TC struct {
	hn       *HeapOnNode
	sub      *ndb.SubnodeTree
	info     TCInfo
	byID     map[uint16]Column
	rowIndex *BTH

	cachedBlock int
	cached      []byte
}

// OpenTC opens the table context stored in node
func OpenTC(d *ndb.Decoder, node ndb.NBTEntry, catalog *props.Catalog) (*TC, error) {
	hn, err := OpenHeap(d, node.Data)
	if err != nil {
		return nil, err
	}
	if hn.ClientSig() != ClientSigTC {
		return nil, ndb.Corruptf(ndb.CauseTypeCode, -1, "node %s heap is %s, not TC", node.NID, hn.ClientSig())
	}
	if catalog == nil {
		catalog = props.Default()
	}

	raw, err := hn.Load(hn.UserRoot())
	if err != nil {
		return nil, err
	}
	info, err := parseTCInfo(raw, catalog)
	if err != nil {
		return nil, err
	}

	tc := &TC{
		hn:          hn,
		sub:         d.Subnodes(node.Sub),
		info:        info,
		byID:        make(map[uint16]Column, len(info.Columns)),
		cachedBlock: -1,
	}
	for _, c := range info.Columns {
		tc.byID[c.Prop.ID] = c
	}

	rowID, ok := tc.byID[props.PidTagLtpRowId]
	if !ok || rowID.Offset != 0 || rowID.Bit != 0 {
		return nil, ndb.Corruptf(ndb.CauseMismatch, -1, "TC row id column missing or misplaced")
	}
	rowVer, ok := tc.byID[props.PidTagLtpRowVer]
	if !ok || rowVer.Offset != 4 || rowVer.Bit != 1 {
		return nil, ndb.Corruptf(ndb.CauseMismatch, -1, "TC row version column missing or misplaced")
	}

	tc.rowIndex, err = OpenBTH(hn, info.RowIndex)
	if err != nil {
		return nil, err
	}
	if h := tc.rowIndex.Header(); h.KeySize != 4 || h.ValueSize != 4 {
		return nil, ndb.Corruptf(ndb.CauseSize, -1, "TC row index uses %d/%d byte records", h.KeySize, h.ValueSize)
	}
	if info.Rows.Blank() {
		keys, err := tc.rowIndex.Keys()
		if err != nil {
			return nil, err
		}
		if len(keys) != 0 {
			return nil, ndb.Corruptf(ndb.CauseMismatch, -1, "TC has no row matrix but %d row ids", len(keys))
		}
	}
	return tc, nil
}

func parseTCInfo(raw []byte, catalog *props.Catalog) (TCInfo, error) {
	if len(raw) < tcInfoSize {
		return TCInfo{}, ndb.Corruptf(ndb.CauseSize, -1, "TCINFO is %d bytes", len(raw))
	}
	if ClientSig(raw[0]) != ClientSigTC {
		return TCInfo{}, ndb.Corruptf(ndb.CauseMagic, -1, "TCINFO type 0x%02x", raw[0])
	}
	cols := int(raw[1])
	info := TCInfo{
		End4b:    int(binary.LittleEndian.Uint16(raw[2:4])),
		End2b:    int(binary.LittleEndian.Uint16(raw[4:6])),
		End1b:    int(binary.LittleEndian.Uint16(raw[6:8])),
		RowSize:  int(binary.LittleEndian.Uint16(raw[8:10])),
		RowIndex: HID(binary.LittleEndian.Uint32(raw[10:14])),
		Rows:     HNID(binary.LittleEndian.Uint32(raw[14:18])),
	}
	if binary.LittleEndian.Uint32(raw[18:22]) != 0 {
		return info, ndb.Corruptf(ndb.CauseReserved, -1, "TCINFO hidIndex is nonzero")
	}
	if len(raw) != tcInfoSize+tcColDescSize*cols {
		return info, ndb.Corruptf(ndb.CauseSize, -1, "TCINFO with %d columns is %d bytes", cols, len(raw))
	}
	if info.End2b < info.End4b || info.End1b < info.End2b || info.RowSize < info.End1b {
		return info, ndb.Corruptf(ndb.CauseOrder, -1, "TCINFO offsets %d/%d/%d/%d", info.End4b, info.End2b, info.End1b, info.RowSize)
	}
	if info.RowSize < rowIDSize || info.RowSize > ndb.MaxBlockPayload {
		return info, ndb.Corruptf(ndb.CauseSize, -1, "TC row size %d", info.RowSize)
	}

	seen := make(map[uint16]bool, cols)
	for i := 0; i < cols; i++ {
		d := raw[tcInfoSize+tcColDescSize*i:]
		tag := binary.LittleEndian.Uint32(d[0:4])
		id, typ := uint16(tag>>16), props.Type(tag)
		col := Column{
			Offset: int(binary.LittleEndian.Uint16(d[4:6])),
			Width:  int(d[6]),
			Bit:    int(d[7]),
		}

		p, ok := catalog.Lookup(id)
		if !ok {
			return info, ndb.Corruptf(ndb.CauseTypeCode, -1, "TC column tag 0x%08x is not a known property", tag)
		}
		if p.Type != typ {
			return info, ndb.Corruptf(ndb.CauseMismatch, -1, "TC column %s stored as %s", p, typ)
		}
		want := typ.Size()
		if typ.Variable() {
			want = 4
		}
		if col.Width != want {
			return info, ndb.Corruptf(ndb.CauseSize, -1, "TC column %s width %d, expected %d", p, col.Width, want)
		}
		if col.Offset+col.Width > info.End1b {
			return info, ndb.Corruptf(ndb.CauseBounds, -1, "TC column %s at %d+%d past data end %d", p, col.Offset, col.Width, info.End1b)
		}
		if info.End1b+col.Bit/8 >= info.RowSize {
			return info, ndb.Corruptf(ndb.CauseBounds, -1, "TC column %s bit %d outside the existence bitmap", p, col.Bit)
		}
		if seen[id] {
			return info, ndb.Corruptf(ndb.CauseMismatch, -1, "TC column %s repeated", p)
		}
		seen[id] = true
		col.Prop = p
		info.Columns = append(info.Columns, col)
	}
	return info, nil
}

// Info returns the table header
func (tc *TC) Info() TCInfo {
	return tc.info
}

// Columns returns the column properties in descriptor order
func (tc *TC) Columns() []props.Property {
	out := make([]props.Property, len(tc.info.Columns))
	for i, c := range tc.info.Columns {
		out[i] = c.Prop
	}
	return out
}

// RowIDs returns the row ids in row index order
func (tc *TC) RowIDs() ([]uint32, error) {
	keys, err := tc.rowIndex.Keys()
	if err != nil {
		return nil, err
	}
	ids := make([]uint32, len(keys))
	for i, k := range keys {
		ids[i] = binary.LittleEndian.Uint32(k)
	}
	return ids, nil
}

// RowCount returns the number of rows
func (tc *TC) RowCount() (int, error) {
	keys, err := tc.rowIndex.Keys()
	return len(keys), err
}

// RowIndex returns the row matrix position of rowID
func (tc *TC) RowIndex(rowID uint32) (int, bool, error) {
	key := make([]byte, 4)
	binary.LittleEndian.PutUint32(key, rowID)
	val, found, err := tc.rowIndex.Lookup(key)
	if err != nil || !found {
		return 0, false, err
	}
	return int(binary.LittleEndian.Uint32(val)), true, nil
}

// RowsPerBlock returns how many rows fit in one row matrix block
func (tc *TC) RowsPerBlock() int {
	return ndb.MaxBlockPayload / tc.info.RowSize
}

// row returns the bytes of row number n of the row matrix
func (tc *TC) row(n int) ([]byte, error) {
	if tc.info.Rows.Blank() {
		return nil, ndb.Corruptf(ndb.CauseBounds, -1, "TC has no row matrix, asked for row %d", n)
	}
	perBlock := tc.RowsPerBlock()
	block := n / perBlock
	off := (n % perBlock) * tc.info.RowSize

	if tc.cachedBlock != block {
		data, err := tc.rowBlock(block)
		if err != nil {
			return nil, err
		}
		tc.cachedBlock = block
		tc.cached = data
	}

	if off+tc.info.RowSize > len(tc.cached) {
		return nil, ndb.Corruptf(ndb.CauseBounds, -1, "TC row %d beyond row matrix block %d of %d bytes", n, block, len(tc.cached))
	}
	return tc.cached[off : off+tc.info.RowSize], nil
}

// rowBlock fetches block number block of the row matrix
func (tc *TC) rowBlock(block int) ([]byte, error) {
	rows := tc.info.Rows
	if rows.IsHID() {
		if block != 0 {
			return nil, ndb.Corruptf(ndb.CauseBounds, -1, "heap row matrix has one block, asked for %d", block)
		}
		return tc.hn.Load(rows.HID())
	}

	e, found, err := tc.sub.Lookup(rows.NID())
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ndb.Corruptf(ndb.CauseMissing, -1, "row matrix subnode %s not found", rows.NID())
	}
	b, err := tc.hn.Decoder().BlockAt(e.Data, block)
	if err != nil {
		return nil, err
	}
	return b.Data, nil
}

// Get returns the value of column id in row rowID. Missing rows, missing
// columns and unset cells are reported as not found.
func (tc *TC) Get(rowID uint32, id uint16) (props.Value, bool, error) {
	n, found, err := tc.RowIndex(rowID)
	if err != nil || !found {
		return props.Value{}, false, err
	}
	row, err := tc.row(n)
	if err != nil {
		return props.Value{}, false, err
	}
	if got := binary.LittleEndian.Uint32(row[0:4]); got != rowID {
		return props.Value{}, false, ndb.Corruptf(ndb.CauseMismatch, -1, "row %d holds row id %d, expected %d", n, got, rowID)
	}

	col, ok := tc.byID[id]
	if !ok {
		return props.Value{}, false, nil
	}
	ceb := row[tc.info.End1b+col.Bit/8]
	if (ceb>>(7-col.Bit%8))&1 == 0 {
		return props.Value{}, false, nil
	}

	cell := row[col.Offset : col.Offset+col.Width]
	typ := col.Prop.Type
	if !typ.Variable() {
		v, err := typ.Decode(cell)
		return v, err == nil, err
	}

	h := HNID(binary.LittleEndian.Uint32(cell))
	switch {
	case h.Blank():
		return props.Value{}, false, ndb.Corruptf(ndb.CauseMismatch, -1, "row %d column %s is set but blank", rowID, col.Prop)
	case !h.IsHID():
		return props.Value{}, false, ndb.Corruptf(ndb.CauseMismatch, -1, "row %d column %s points at subnode %s", rowID, col.Prop, h.NID())
	}
	data, err := tc.hn.Load(h.HID())
	if err != nil {
		return props.Value{}, false, err
	}
	v, err := typ.Decode(data)
	return v, err == nil, err
}

// Row returns every set cell of rowID, keyed by property id
func (tc *TC) Row(rowID uint32) (map[uint16]props.Value, error) {
	out := make(map[uint16]props.Value)
	ids := make([]uint16, 0, len(tc.byID))
	for id := range tc.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		v, found, err := tc.Get(rowID, id)
		if err != nil {
			return nil, err
		}
		if found {
			out[id] = v
		}
	}
	return out, nil
}
