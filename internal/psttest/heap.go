package psttest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/sbridges/pasta/pkg/ndb"
)

// Heap client signatures
const (
	ClientSigTC  = 0x7C
	ClientSigBTH = 0xB5
	ClientSigPC  = 0xBC
)

// Heap lays out Heap-on-Node blocks
type Heap struct {
	sig    byte
	root   uint32
	blocks [][][]byte
}

// NewHeap returns an empty heap with one block
func NewHeap(clientSig byte) *Heap {
	return &Heap{sig: clientSig, blocks: [][][]byte{nil}}
}

func heapHeaderSize(block int) int {
	switch {
	case block == 0:
		return 12
	case block == 8 || (block > 8 && (block-8)%128 == 0):
		return 66
	}
	return 2
}

func heapBlockSize(block int, allocs [][]byte) int {
	n := heapHeaderSize(block)
	for _, a := range allocs {
		n += len(a)
	}
	n += n % 2
	return n + 4 + 2*(len(allocs)+1)
}

// Alloc stores data and returns its HID, opening a new block when the
// current one is full
func (h *Heap) Alloc(data []byte) uint32 {
	cur := len(h.blocks) - 1
	if heapBlockSize(cur, append(h.blocks[cur], data)) > ndb.MaxBlockPayload {
		if len(h.blocks[cur]) == 0 {
			panic(fmt.Sprintf("psttest: allocation of %d bytes does not fit a heap block", len(data)))
		}
		h.NewBlock()
		cur++
	}
	h.blocks[cur] = append(h.blocks[cur], append([]byte{}, data...))
	return uint32(cur)<<16 | uint32(len(h.blocks[cur]))<<5
}

// NewBlock starts a new heap block
func (h *Heap) NewBlock() {
	h.blocks = append(h.blocks, nil)
}

// SetRoot sets hidUserRoot
func (h *Heap) SetRoot(hid uint32) {
	h.root = hid
}

// Blocks serializes the heap. Every block but the last fills a whole
// data block so the stream can be chained through an XBLOCK.
func (h *Heap) Blocks() [][]byte {
	out := make([][]byte, len(h.blocks))
	for i, allocs := range h.blocks {
		hdr := heapHeaderSize(i)
		buf := make([]byte, hdr)
		offs := []uint16{uint16(hdr)}
		for _, a := range allocs {
			buf = append(buf, a...)
			offs = append(offs, uint16(len(buf)))
		}
		if len(buf)%2 != 0 {
			buf = append(buf, 0)
		}
		mapSize := 4 + 2*len(offs)
		if i < len(h.blocks)-1 {
			for len(buf)+mapSize < ndb.MaxBlockPayload {
				buf = append(buf, 0)
			}
		}
		ibHnpm := len(buf)
		binary.LittleEndian.PutUint16(buf[0:2], uint16(ibHnpm))
		if i == 0 {
			buf[2] = 0xEC
			buf[3] = h.sig
			binary.LittleEndian.PutUint32(buf[4:8], h.root)
		}

		pm := make([]byte, mapSize)
		binary.LittleEndian.PutUint16(pm[0:2], uint16(len(allocs)))
		for j, o := range offs {
			binary.LittleEndian.PutUint16(pm[4+2*j:], o)
		}
		out[i] = append(buf, pm...)
	}
	return out
}

// Record is a BTH key/value pair
type Record struct {
	Key   []byte
	Value []byte
}

// AddBTH stores a BTree-on-Heap and returns the HID of its header.
// fanout caps records per node; zero means 64.
func (h *Heap) AddBTH(keySize, valueSize int, recs []Record, fanout int) uint32 {
	if fanout <= 0 {
		fanout = 64
	}
	sorted := append([]Record{}, recs...)
	sort.Slice(sorted, func(i, j int) bool { return bytes.Compare(sorted[i].Key, sorted[j].Key) < 0 })

	type node struct {
		key []byte
		hid uint32
	}
	var level []node
	for start := 0; start < len(sorted); start += fanout {
		end := start + fanout
		if end > len(sorted) {
			end = len(sorted)
		}
		var buf []byte
		for _, r := range sorted[start:end] {
			if len(r.Key) != keySize || len(r.Value) != valueSize {
				panic("psttest: BTH record size mismatch")
			}
			buf = append(buf, r.Key...)
			buf = append(buf, r.Value...)
		}
		level = append(level, node{key: sorted[start].Key, hid: h.Alloc(buf)})
	}

	levels := 0
	for len(level) > 1 {
		levels++
		var next []node
		for start := 0; start < len(level); start += fanout {
			end := start + fanout
			if end > len(level) {
				end = len(level)
			}
			var buf []byte
			for _, n := range level[start:end] {
				buf = append(buf, n.key...)
				buf = binary.LittleEndian.AppendUint32(buf, n.hid)
			}
			next = append(next, node{key: level[start].key, hid: h.Alloc(buf)})
		}
		level = next
	}

	var root uint32
	if len(level) == 1 {
		root = level[0].hid
	}
	hdr := []byte{0xB5, byte(keySize), byte(valueSize), byte(levels), 0, 0, 0, 0}
	binary.LittleEndian.PutUint32(hdr[4:8], root)
	return h.Alloc(hdr)
}
