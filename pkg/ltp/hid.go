// Package ltp implements the lists, tables and properties layer of a PST
// file: Heap-on-Node, BTree-on-Heap, Property Context and Table Context.
package ltp

import (
	"fmt"

	"github.com/sbridges/pasta/pkg/ndb"
)

// HID is a heap allocation handle
type HID uint32

// Type returns the low five bits, which must be NIDTypeHID
func (h HID) Type() ndb.NIDType {
	return ndb.NIDType(h & 0x1F)
}

// Index returns the 1-based allocation slot
func (h HID) Index() int {
	return int(h>>5) & 0x7FF
}

// BlockIndex returns the 0-based logical block holding the allocation
func (h HID) BlockIndex() int {
	return int(h >> 16)
}

// MakeHID builds a handle for slot index in block
func MakeHID(block, index int) HID {
	return HID(uint32(block)<<16 | uint32(index)<<5)
}

func (h HID) String() string {
	return fmt.Sprintf("hid(0x%08x block=%d index=%d)", uint32(h), h.BlockIndex(), h.Index())
}

func (h HID) validate() error {
	if h.Type() != ndb.NIDTypeHID {
		return ndb.Corruptf(ndb.CauseTypeCode, -1, "%s has type %s", h, h.Type())
	}
	if h.Index() == 0 {
		return ndb.Corruptf(ndb.CauseBounds, -1, "%s has zero index", h)
	}
	return nil
}

// HNID is either a HID or a NID, told apart by the low five bits
type HNID uint32

// Blank reports a zero HNID
func (h HNID) Blank() bool {
	return h == 0
}

// IsHID reports whether the value is a heap handle
func (h HNID) IsHID() bool {
	return h != 0 && h&0x1F == 0
}

// HID returns the value as a heap handle
func (h HNID) HID() HID {
	return HID(h)
}

// NID returns the value as a subnode id
func (h HNID) NID() ndb.NID {
	return ndb.NID(h)
}
