package ndb

import (
	"encoding/binary"
	"fmt"
)

// BID is a 64-bit block identifier
type BID uint64

// Internal reports whether the block holds metadata rather than payload
func (b BID) Internal() bool {
	return b&0x2 != 0
}

// Valid reports whether the reserved low bit is clear
func (b BID) Valid() bool {
	return b&0x1 == 0
}

func (b BID) String() string {
	return fmt.Sprintf("0x%x", uint64(b))
}

// BRef locates a block or page in the file
type BRef struct {
	BID BID
	IB  uint64 // absolute file offset
}

// BRefSize is the on-disk size of a BRef
const BRefSize = 16

func parseBRef(b []byte) BRef {
	return BRef{
		BID: BID(binary.LittleEndian.Uint64(b[0:8])),
		IB:  binary.LittleEndian.Uint64(b[8:16]),
	}
}

func (r BRef) String() string {
	return fmt.Sprintf("{bid=%s ib=0x%x}", r.BID, r.IB)
}

// NID is a 32-bit node identifier: a 5-bit type and a 27-bit index
type NID uint32

// Type returns the node type tag
func (n NID) Type() NIDType {
	return NIDType(n & 0x1F)
}

// Index returns the node index
func (n NID) Index() uint32 {
	return uint32(n) >> 5
}

func (n NID) String() string {
	return fmt.Sprintf("0x%x(%s)", uint32(n), n.Type())
}

// MakeNID combines a type and an index
func MakeNID(t NIDType, index uint32) NID {
	return NID(index<<5 | uint32(t))
}

// NIDType is the low five bits of a NID
type NIDType uint8

const (
	NIDTypeHID                 NIDType = 0x00
	NIDTypeInternal            NIDType = 0x01
	NIDTypeNormalFolder        NIDType = 0x02
	NIDTypeSearchFolder        NIDType = 0x03
	NIDTypeNormalMessage       NIDType = 0x04
	NIDTypeAttachment          NIDType = 0x05
	NIDTypeSearchUpdateQueue   NIDType = 0x06
	NIDTypeSearchCriteria      NIDType = 0x07
	NIDTypeAssocMessage        NIDType = 0x08
	NIDTypeContentsTableIndex  NIDType = 0x0A
	NIDTypeReceiveFolderTable  NIDType = 0x0B
	NIDTypeOutgoingQueueTable  NIDType = 0x0C
	NIDTypeHierarchyTable      NIDType = 0x0D
	NIDTypeContentsTable       NIDType = 0x0E
	NIDTypeAssocContentsTable  NIDType = 0x0F
	NIDTypeSearchContentsTable NIDType = 0x10
	NIDTypeAttachmentTable     NIDType = 0x11
	NIDTypeRecipientTable      NIDType = 0x12
	NIDTypeSearchTableIndex    NIDType = 0x13
	NIDTypeLTP                 NIDType = 0x1F
)

var nidTypeNames = map[NIDType]string{
	NIDTypeHID:                 "HID",
	NIDTypeInternal:            "INTERNAL",
	NIDTypeNormalFolder:        "NORMAL_FOLDER",
	NIDTypeSearchFolder:        "SEARCH_FOLDER",
	NIDTypeNormalMessage:       "NORMAL_MESSAGE",
	NIDTypeAttachment:          "ATTACHMENT",
	NIDTypeSearchUpdateQueue:   "SEARCH_UPDATE_QUEUE",
	NIDTypeSearchCriteria:      "SEARCH_CRITERIA_OBJECT",
	NIDTypeAssocMessage:        "ASSOC_MESSAGE",
	NIDTypeContentsTableIndex:  "CONTENTS_TABLE_INDEX",
	NIDTypeReceiveFolderTable:  "RECEIVE_FOLDER_TABLE",
	NIDTypeOutgoingQueueTable:  "OUTGOING_QUEUE_TABLE",
	NIDTypeHierarchyTable:      "HIERARCHY_TABLE",
	NIDTypeContentsTable:       "CONTENTS_TABLE",
	NIDTypeAssocContentsTable:  "ASSOC_CONTENTS_TABLE",
	NIDTypeSearchContentsTable: "SEARCH_CONTENTS_TABLE",
	NIDTypeAttachmentTable:     "ATTACHMENT_TABLE",
	NIDTypeRecipientTable:      "RECIPIENT_TABLE",
	NIDTypeSearchTableIndex:    "SEARCH_TABLE_INDEX",
	NIDTypeLTP:                 "LTP",
}

// Known reports whether the type code is defined
func (t NIDType) Known() bool {
	_, ok := nidTypeNames[t]
	return ok
}

func (t NIDType) String() string {
	if name, ok := nidTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("NIDType(0x%02x)", uint8(t))
}

// Well-known node ids
const (
	NIDMessageStore      NID = 0x21
	NIDNameToIDMap       NID = 0x61
	NIDRootFolder        NID = 0x122
	NIDHierarchyTemplate NID = 0x60D
	NIDContentsTemplate  NID = 0x60E
	NIDAssocTemplate     NID = 0x60F
)
