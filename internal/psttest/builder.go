// Package psttest builds well-formed PST images in memory for tests
package psttest

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/sbridges/pasta/pkg/ndb"
)

const (
	dataStart     = 1024
	maxXBlockBIDs = (ndb.MaxBlockPayload - 8) / 8
	maxSLEntries  = (ndb.MaxBlockPayload - 8) / 24
)

// Builder accumulates blocks and nodes and lays out a PST image
type Builder struct {
	Cipher ndb.Cipher

	// PageFanout caps entries per BBT/NBT page; zero uses page capacity
	PageFanout int

	// XFanout caps BIDs per XBLOCK; zero uses block capacity. XXBLOCKs
	// always hold up to block capacity.
	XFanout int

	// SLFanout caps entries per SLBLOCK/SIBLOCK; zero uses block capacity
	SLFanout int

	img     []byte
	nextBID uint64
	blocks  map[ndb.BID]ndb.BBTEntry
	nodes   map[ndb.NID]ndb.NBTEntry
	nbt     ndb.BRef
	bbt     ndb.BRef
}

// New returns an empty builder
func New() *Builder {
	return &Builder{
		img:     make([]byte, dataStart),
		nextBID: 0x100,
		blocks:  make(map[ndb.BID]ndb.BBTEntry),
		nodes:   make(map[ndb.NID]ndb.NBTEntry),
	}
}

func (b *Builder) allocBID(internal bool) ndb.BID {
	b.nextBID += 4
	bid := ndb.BID(b.nextBID)
	if internal {
		bid |= 0x2
	}
	return bid
}

func (b *Builder) align(n int) {
	for len(b.img)%n != 0 {
		b.img = append(b.img, 0)
	}
}

// AddBlock stores data as an external block, encrypting it with the
// builder cipher
func (b *Builder) AddBlock(data []byte) ndb.BID {
	bid := b.allocBID(false)
	b.writeBlock(bid, b.Cipher.Encode(data))
	return bid
}

// AddInternalBlock stores data as an internal block
func (b *Builder) AddInternalBlock(data []byte) ndb.BID {
	bid := b.allocBID(true)
	b.writeBlock(bid, data)
	return bid
}

func (b *Builder) writeBlock(bid ndb.BID, payload []byte) {
	if len(payload) == 0 || len(payload) > ndb.MaxBlockPayload {
		panic(fmt.Sprintf("psttest: block of %d bytes", len(payload)))
	}
	b.align(64)
	ib := uint64(len(b.img))
	alloc := ndb.BlockAllocSize(len(payload))

	buf := make([]byte, alloc)
	copy(buf, payload)
	t := buf[alloc-ndb.BlockTrailerSize:]
	binary.LittleEndian.PutUint16(t[0:2], uint16(len(payload)))
	binary.LittleEndian.PutUint16(t[2:4], ndb.ComputeSig(ib, uint64(bid)))
	binary.LittleEndian.PutUint32(t[4:8], ndb.CRC(payload))
	binary.LittleEndian.PutUint64(t[8:16], uint64(bid))
	b.img = append(b.img, buf...)

	b.blocks[bid] = ndb.BBTEntry{
		Ref:      ndb.BRef{BID: bid, IB: ib},
		Size:     uint16(len(payload)),
		RefCount: 2,
	}
}

// Entry returns the BBT entry recorded for bid
func (b *Builder) Entry(bid ndb.BID) ndb.BBTEntry {
	return b.blocks[bid]
}

// AddXBlock stores an XBLOCK (level 1) or XXBLOCK (level 2)
func (b *Builder) AddXBlock(level int, children []ndb.BID, total int) ndb.BID {
	buf := make([]byte, 8+8*len(children))
	buf[0] = 0x01
	buf[1] = byte(level)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(len(children)))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(total))
	for i, c := range children {
		binary.LittleEndian.PutUint64(buf[8+8*i:], uint64(c))
	}
	return b.AddInternalBlock(buf)
}

func (b *Builder) xfanout() int {
	if b.XFanout > 0 && b.XFanout < maxXBlockBIDs {
		return b.XFanout
	}
	return maxXBlockBIDs
}

// AddBlocks stores chunks as one logical stream: a plain block, an
// XBLOCK or an XXBLOCK depending on the chunk count
func (b *Builder) AddBlocks(chunks [][]byte) ndb.BID {
	if len(chunks) == 1 {
		return b.AddBlock(chunks[0])
	}

	fan := b.xfanout()
	var xblocks []ndb.BID
	var totals []int
	for start := 0; start < len(chunks); start += fan {
		end := start + fan
		if end > len(chunks) {
			end = len(chunks)
		}
		var bids []ndb.BID
		total := 0
		for _, c := range chunks[start:end] {
			bids = append(bids, b.AddBlock(c))
			total += len(c)
		}
		xblocks = append(xblocks, b.AddXBlock(1, bids, total))
		totals = append(totals, total)
	}
	if len(xblocks) == 1 {
		return xblocks[0]
	}
	if len(xblocks) > maxXBlockBIDs {
		panic("psttest: stream too large for an XXBLOCK")
	}
	sum := 0
	for _, t := range totals {
		sum += t
	}
	return b.AddXBlock(2, xblocks, sum)
}

// AddStream splits data into full blocks and stores it as one stream
func (b *Builder) AddStream(data []byte) ndb.BID {
	return b.AddBlocks(Chunk(data, ndb.MaxBlockPayload))
}

// Chunk splits data into pieces of at most n bytes
func Chunk(data []byte, n int) [][]byte {
	var out [][]byte
	for len(data) > n {
		out = append(out, data[:n])
		data = data[n:]
	}
	return append(out, data)
}

func (b *Builder) slfanout() int {
	if b.SLFanout > 0 && b.SLFanout < maxSLEntries {
		return b.SLFanout
	}
	return maxSLEntries
}

// AddSubnodes stores a subnode tree: one SLBLOCK, or SLBLOCKs under an
// SIBLOCK when the entries exceed the fanout
func (b *Builder) AddSubnodes(entries []ndb.SLEntry) ndb.BID {
	sorted := append([]ndb.SLEntry{}, entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].NID < sorted[j].NID })

	fan := b.slfanout()
	type child struct {
		key ndb.NID
		bid ndb.BID
	}
	var children []child
	for start := 0; start < len(sorted); start += fan {
		end := start + fan
		if end > len(sorted) {
			end = len(sorted)
		}
		part := sorted[start:end]
		buf := make([]byte, 8+24*len(part))
		buf[0], buf[1] = 0x02, 0x00
		binary.LittleEndian.PutUint16(buf[2:4], uint16(len(part)))
		for i, e := range part {
			o := buf[8+24*i:]
			binary.LittleEndian.PutUint64(o[0:8], uint64(e.NID))
			binary.LittleEndian.PutUint64(o[8:16], uint64(e.Data))
			binary.LittleEndian.PutUint64(o[16:24], uint64(e.Sub))
		}
		children = append(children, child{key: part[0].NID, bid: b.AddInternalBlock(buf)})
	}
	if len(children) == 1 {
		return children[0].bid
	}

	buf := make([]byte, 8+16*len(children))
	buf[0], buf[1] = 0x02, 0x01
	binary.LittleEndian.PutUint16(buf[2:4], uint16(len(children)))
	for i, c := range children {
		o := buf[8+16*i:]
		binary.LittleEndian.PutUint64(o[0:8], uint64(c.key))
		binary.LittleEndian.PutUint64(o[8:16], uint64(c.bid))
	}
	return b.AddInternalBlock(buf)
}

// AddNode records an NBT entry
func (b *Builder) AddNode(e ndb.NBTEntry) {
	b.nodes[e.NID] = e
}

// Node returns a recorded NBT entry
func (b *Builder) Node(nid ndb.NID) ndb.NBTEntry {
	return b.nodes[nid]
}

// Roots returns the NBT and BBT root references written by Bytes
func (b *Builder) Roots() (nbt, bbt ndb.BRef) {
	return b.nbt, b.bbt
}

// Bytes lays out both B+Trees and the header and returns the image.
// Bytes may be called once.
func (b *Builder) Bytes() []byte {
	bids := make([]ndb.BID, 0, len(b.blocks))
	for bid := range b.blocks {
		bids = append(bids, bid)
	}
	sort.Slice(bids, func(i, j int) bool { return bids[i] < bids[j] })
	bbtKeys := make([]uint64, len(bids))
	bbtLeaves := make([][]byte, len(bids))
	for i, bid := range bids {
		e := b.blocks[bid]
		raw := make([]byte, ndb.BBTEntrySize)
		binary.LittleEndian.PutUint64(raw[0:8], uint64(e.Ref.BID))
		binary.LittleEndian.PutUint64(raw[8:16], e.Ref.IB)
		binary.LittleEndian.PutUint16(raw[16:18], e.Size)
		binary.LittleEndian.PutUint16(raw[18:20], e.RefCount)
		bbtKeys[i], bbtLeaves[i] = uint64(bid), raw
	}

	nids := make([]ndb.NID, 0, len(b.nodes))
	for nid := range b.nodes {
		nids = append(nids, nid)
	}
	sort.Slice(nids, func(i, j int) bool { return nids[i] < nids[j] })
	nbtKeys := make([]uint64, len(nids))
	nbtLeaves := make([][]byte, len(nids))
	for i, nid := range nids {
		e := b.nodes[nid]
		raw := make([]byte, ndb.NBTEntrySize)
		binary.LittleEndian.PutUint64(raw[0:8], uint64(e.NID))
		binary.LittleEndian.PutUint64(raw[8:16], uint64(e.Data))
		binary.LittleEndian.PutUint64(raw[16:24], uint64(e.Sub))
		binary.LittleEndian.PutUint32(raw[24:28], uint32(e.Parent))
		nbtKeys[i], nbtLeaves[i] = uint64(nid), raw
	}

	b.bbt = b.buildTree(ndb.PageTypeBBT, ndb.BBTEntrySize, bbtKeys, bbtLeaves)
	b.nbt = b.buildTree(ndb.PageTypeNBT, ndb.NBTEntrySize, nbtKeys, nbtLeaves)
	b.align(ndb.PageSize)

	b.writeHeader()
	return b.img
}

func (b *Builder) pageFanout(entSize int) int {
	limit := 488 / entSize
	if b.PageFanout > 0 && b.PageFanout < limit {
		return b.PageFanout
	}
	return limit
}

func (b *Builder) buildTree(ptype ndb.PageType, leafSize int, keys []uint64, leaves [][]byte) ndb.BRef {
	type ref struct {
		key uint64
		ref ndb.BRef
	}

	var level []ref
	fan := b.pageFanout(leafSize)
	for start := 0; start == 0 || start < len(leaves); start += fan {
		end := start + fan
		if end > len(leaves) {
			end = len(leaves)
		}
		var first uint64
		if start < len(keys) {
			first = keys[start]
		}
		level = append(level, ref{key: first, ref: b.writePage(ptype, 0, leafSize, leaves[start:end])})
	}

	depth := 0
	fan = b.pageFanout(ndb.BTEntrySize)
	for len(level) > 1 {
		depth++
		var next []ref
		for start := 0; start < len(level); start += fan {
			end := start + fan
			if end > len(level) {
				end = len(level)
			}
			var entries [][]byte
			for _, r := range level[start:end] {
				raw := make([]byte, ndb.BTEntrySize)
				binary.LittleEndian.PutUint64(raw[0:8], r.key)
				binary.LittleEndian.PutUint64(raw[8:16], uint64(r.ref.BID))
				binary.LittleEndian.PutUint64(raw[16:24], r.ref.IB)
				entries = append(entries, raw)
			}
			next = append(next, ref{key: level[start].key, ref: b.writePage(ptype, depth, ndb.BTEntrySize, entries)})
		}
		level = next
	}
	return level[0].ref
}

func (b *Builder) writePage(ptype ndb.PageType, level, entSize int, entries [][]byte) ndb.BRef {
	b.align(ndb.PageSize)
	ib := uint64(len(b.img))
	bid := b.allocBID(false)

	page := make([]byte, ndb.PageSize)
	for i, e := range entries {
		copy(page[i*entSize:], e)
	}
	page[488] = byte(len(entries))
	page[489] = byte(488 / entSize)
	page[490] = byte(entSize)
	page[491] = byte(level)
	SealPage(page, ptype, ib, bid)

	b.img = append(b.img, page...)
	return ndb.BRef{BID: bid, IB: ib}
}

// SealPage writes a valid trailer for a page stored at ib
func SealPage(page []byte, ptype ndb.PageType, ib uint64, bid ndb.BID) {
	t := page[ndb.PageDataSize:]
	t[0], t[1] = byte(ptype), byte(ptype)
	var sig uint16
	if ptype.Signed() {
		sig = ndb.ComputeSig(ib, uint64(bid))
	}
	binary.LittleEndian.PutUint16(t[2:4], sig)
	binary.LittleEndian.PutUint32(t[4:8], ndb.CRC(page[:ndb.PageDataSize]))
	binary.LittleEndian.PutUint64(t[8:16], uint64(bid))
}

func (b *Builder) writeHeader() {
	h := b.img[:ndb.HeaderSize]
	copy(h[0:4], "!BDN")
	copy(h[8:10], "SM")
	binary.LittleEndian.PutUint16(h[10:12], ndb.VersionUnicode)
	binary.LittleEndian.PutUint16(h[12:14], 19)
	h[14], h[15] = 1, 1
	binary.LittleEndian.PutUint64(h[32:40], b.nextBID+4) // bidNextP
	binary.LittleEndian.PutUint32(h[40:44], 1)           // dwUnique

	root := h[180:252]
	binary.LittleEndian.PutUint64(root[4:12], uint64(len(b.img)))
	binary.LittleEndian.PutUint64(root[12:20], 0x4400)
	binary.LittleEndian.PutUint64(root[36:44], uint64(b.nbt.BID))
	binary.LittleEndian.PutUint64(root[44:52], b.nbt.IB)
	binary.LittleEndian.PutUint64(root[52:60], uint64(b.bbt.BID))
	binary.LittleEndian.PutUint64(root[60:68], b.bbt.IB)
	root[68] = 2 // fAMapValid

	h[512] = 0x80
	h[513] = byte(b.Cipher)
	binary.LittleEndian.PutUint64(h[516:524], b.nextBID+8) // bidNextB
	SealHeader(b.img)
}

// SealHeader recomputes both header CRCs in place
func SealHeader(img []byte) {
	binary.LittleEndian.PutUint32(img[4:8], ndb.CRC(img[8:8+471]))
	binary.LittleEndian.PutUint32(img[524:528], ndb.CRC(img[8:8+516]))
}
