// ABOUTME: Logical block addressing across the four node data layouts
// ABOUTME: Plain blocks, XBLOCK, XXBLOCK and SLBLOCK/SIBLOCK chains

package ndb

import "encoding/binary"

const (
	btypeXBlock  = 0x01
	btypeSubnode = 0x02

	xblockHeaderSize = 8
	slEntrySize      = 24
	siEntrySize      = 16
)

// chainKind is the decoded (btype, cLevel) pair of an internal block
type chainKind int

const (
	chainXBlock chainKind = iota
	chainXXBlock
	chainSL
	chainSI
)

func (k chainKind) String() string {
	switch k {
	case chainXBlock:
		return "XBLOCK"
	case chainXXBlock:
		return "XXBLOCK"
	case chainSL:
		return "SLBLOCK"
	}
	return "SIBLOCK"
}

// internalBlock is a parsed XBLOCK, XXBLOCK, SLBLOCK or SIBLOCK
type internalBlock struct {
	kind  chainKind
	total uint32 // lcbTotal, X/XX blocks only
	bids  []BID  // X/XX children, SI children
	nids  []NID  // SL and SI keys
	subs  []BID  // SL sub-BIDs
	ib    int64
}

func parseInternal(b *Block) (*internalBlock, error) {
	data := b.Data
	ib := int64(b.Ref.IB)
	if len(data) < xblockHeaderSize {
		return nil, Corruptf(CauseSize, ib, "internal block %s is %d bytes", b.Ref.BID, len(data))
	}

	btype, level := data[0], data[1]
	count := int(binary.LittleEndian.Uint16(data[2:4]))
	out := &internalBlock{ib: ib}

	switch {
	case btype == btypeXBlock && (level == 1 || level == 2):
		out.kind = chainXBlock
		if level == 2 {
			out.kind = chainXXBlock
		}
		out.total = binary.LittleEndian.Uint32(data[4:8])
		if out.total == 0 {
			return nil, Corruptf(CauseSize, ib, "%s %s has zero lcbTotal", out.kind, b.Ref.BID)
		}
		if len(data) < xblockHeaderSize+8*count {
			return nil, Corruptf(CauseSize, ib, "%s %s truncated: %d entries in %d bytes", out.kind, b.Ref.BID, count, len(data))
		}
		out.bids = make([]BID, count)
		for i := range out.bids {
			out.bids[i] = BID(binary.LittleEndian.Uint64(data[xblockHeaderSize+8*i:]))
		}

	case btype == btypeSubnode && level == 0:
		out.kind = chainSL
		if binary.LittleEndian.Uint32(data[4:8]) != 0 {
			return nil, Corruptf(CauseReserved, ib, "SLBLOCK %s padding is nonzero", b.Ref.BID)
		}
		if len(data) < xblockHeaderSize+slEntrySize*count {
			return nil, Corruptf(CauseSize, ib, "SLBLOCK %s truncated", b.Ref.BID)
		}
		out.nids = make([]NID, count)
		out.bids = make([]BID, count)
		out.subs = make([]BID, count)
		for i := 0; i < count; i++ {
			e := data[xblockHeaderSize+slEntrySize*i:]
			out.nids[i] = NID(binary.LittleEndian.Uint64(e[0:8]))
			out.bids[i] = BID(binary.LittleEndian.Uint64(e[8:16]))
			out.subs[i] = BID(binary.LittleEndian.Uint64(e[16:24]))
			if out.bids[i] == 0 {
				return nil, Corruptf(CauseMissing, ib, "SLBLOCK %s entry %d has no data block", b.Ref.BID, i)
			}
			if out.nids[i].Index() == 0 {
				return nil, Corruptf(CauseMismatch, ib, "SLBLOCK %s entry %d has zero nid index", b.Ref.BID, i)
			}
		}

	case btype == btypeSubnode && level == 1:
		out.kind = chainSI
		if binary.LittleEndian.Uint32(data[4:8]) != 0 {
			return nil, Corruptf(CauseReserved, ib, "SIBLOCK %s padding is nonzero", b.Ref.BID)
		}
		if len(data) < xblockHeaderSize+siEntrySize*count {
			return nil, Corruptf(CauseSize, ib, "SIBLOCK %s truncated", b.Ref.BID)
		}
		out.nids = make([]NID, count)
		out.bids = make([]BID, count)
		for i := 0; i < count; i++ {
			e := data[xblockHeaderSize+siEntrySize*i:]
			out.nids[i] = NID(binary.LittleEndian.Uint64(e[0:8]))
			out.bids[i] = BID(binary.LittleEndian.Uint64(e[8:16]))
			if i > 0 && out.nids[i-1] >= out.nids[i] {
				return nil, Corruptf(CauseOrder, ib, "SIBLOCK %s keys out of order at entry %d", b.Ref.BID, i)
			}
		}

	default:
		return nil, Corruptf(CauseTypeCode, ib, "internal block %s has btype %d level %d", b.Ref.BID, btype, level)
	}

	return out, nil
}

// readInternal reads bid and requires it to be an internal block of kind want
func (d *Decoder) readInternal(bid BID, want chainKind) (*internalBlock, error) {
	if !bid.Internal() {
		return nil, Corruptf(CauseMismatch, -1, "expected %s, %s is external", want, bid)
	}
	b, err := d.ReadBlock(bid)
	if err != nil {
		return nil, err
	}
	ib, err := parseInternal(b)
	if err != nil {
		return nil, err
	}
	if ib.kind != want {
		return nil, Corruptf(CauseMismatch, ib.ib, "expected %s, %s is %s", want, bid, ib.kind)
	}
	return ib, nil
}

// checkXBlock verifies every child but the last is a full data block
// and that the children add up to lcbTotal. When x is not the final
// XBLOCK of an XXBLOCK its last child must be full as well.
func (d *Decoder) checkXBlock(x *internalBlock, last bool) error {
	var sum uint64
	for i, child := range x.bids {
		if child.Internal() {
			return Corruptf(CauseMismatch, x.ib, "XBLOCK child %s is internal", child)
		}
		e, found, err := d.bbt.Lookup(child)
		if err != nil {
			return err
		}
		if !found {
			return Corruptf(CauseMissing, x.ib, "XBLOCK child %s not in bbt", child)
		}
		if (i < len(x.bids)-1 || !last) && int(e.Size) != MaxBlockPayload {
			return Corruptf(CauseSize, x.ib, "XBLOCK child %d of %d is %d bytes", i, len(x.bids), e.Size)
		}
		sum += uint64(e.Size)
	}
	if sum != uint64(x.total) {
		return Corruptf(CauseSize, x.ib, "XBLOCK children hold %d bytes, lcbTotal %d", sum, x.total)
	}
	return nil
}

// BlockAt returns logical block index of the data stream rooted at bid
func (d *Decoder) BlockAt(bid BID, index int) (*Block, error) {
	if index < 0 {
		return nil, Corruptf(CauseBounds, -1, "negative block index %d", index)
	}
	if !bid.Internal() {
		if index != 0 {
			return nil, Corruptf(CauseBounds, -1, "block %s has one block, asked for %d", bid, index)
		}
		return d.ReadBlock(bid)
	}

	b, err := d.ReadBlock(bid)
	if err != nil {
		return nil, err
	}
	root, err := parseInternal(b)
	if err != nil {
		return nil, err
	}

	switch root.kind {
	case chainXBlock:
		return d.xblockAt(root, index, true)

	case chainXXBlock:
		for i, child := range root.bids {
			x, err := d.readInternal(child, chainXBlock)
			if err != nil {
				return nil, err
			}
			if index < len(x.bids) {
				return d.xblockAt(x, index, i == len(root.bids)-1)
			}
			index -= len(x.bids)
		}
		return nil, Corruptf(CauseBounds, root.ib, "XXBLOCK %s has no block %d", bid, index)

	case chainSL:
		if index >= len(root.bids) {
			return nil, Corruptf(CauseBounds, root.ib, "SLBLOCK %s has no entry %d", bid, index)
		}
		return d.ReadBlock(root.bids[index])

	default:
		for _, child := range root.bids {
			sl, err := d.readInternal(child, chainSL)
			if err != nil {
				return nil, err
			}
			if index < len(sl.bids) {
				return d.ReadBlock(sl.bids[index])
			}
			index -= len(sl.bids)
		}
		return nil, Corruptf(CauseBounds, root.ib, "SIBLOCK %s has no entry %d", bid, index)
	}
}

func (d *Decoder) xblockAt(x *internalBlock, index int, last bool) (*Block, error) {
	if index >= len(x.bids) {
		return nil, Corruptf(CauseBounds, x.ib, "XBLOCK has no block %d", index)
	}
	if err := d.checkXBlock(x, last); err != nil {
		return nil, err
	}
	return d.ReadBlock(x.bids[index])
}

// BlockCount returns the number of logical blocks rooted at bid
func (d *Decoder) BlockCount(bid BID) (int, error) {
	if !bid.Internal() {
		return 1, nil
	}
	b, err := d.ReadBlock(bid)
	if err != nil {
		return 0, err
	}
	root, err := parseInternal(b)
	if err != nil {
		return 0, err
	}

	switch root.kind {
	case chainXBlock, chainSL:
		return len(root.bids), nil
	}

	want := chainXBlock
	if root.kind == chainSI {
		want = chainSL
	}
	n := 0
	for _, child := range root.bids {
		c, err := d.readInternal(child, want)
		if err != nil {
			return 0, err
		}
		n += len(c.bids)
	}
	return n, nil
}

// ReadStream returns the concatenated payload of a data stream rooted at
// bid: a plain block, an XBLOCK or an XXBLOCK.
func (d *Decoder) ReadStream(bid BID) ([]byte, error) {
	if !bid.Internal() {
		b, err := d.ReadBlock(bid)
		if err != nil {
			return nil, err
		}
		return b.Data, nil
	}

	b, err := d.ReadBlock(bid)
	if err != nil {
		return nil, err
	}
	root, err := parseInternal(b)
	if err != nil {
		return nil, err
	}

	var xblocks []*internalBlock
	switch root.kind {
	case chainXBlock:
		xblocks = append(xblocks, root)
	case chainXXBlock:
		for _, child := range root.bids {
			x, err := d.readInternal(child, chainXBlock)
			if err != nil {
				return nil, err
			}
			xblocks = append(xblocks, x)
		}
	default:
		return nil, Corruptf(CauseMismatch, root.ib, "%s %s is not a data stream", root.kind, bid)
	}

	out := make([]byte, 0, root.total)
	for i, x := range xblocks {
		if err := d.checkXBlock(x, i == len(xblocks)-1); err != nil {
			return nil, err
		}
		for _, child := range x.bids {
			cb, err := d.ReadBlock(child)
			if err != nil {
				return nil, err
			}
			out = append(out, cb.Data...)
		}
	}
	if len(out) != int(root.total) {
		return nil, Corruptf(CauseSize, root.ib, "stream %s is %d bytes, lcbTotal %d", bid, len(out), root.total)
	}
	return out, nil
}
