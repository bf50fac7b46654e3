// Package props holds the property type codecs and the catalog of
// well-known property identifiers.
package props

import (
	"encoding/binary"
	"fmt"
	"time"

	"golang.org/x/text/encoding/unicode"

	"github.com/sbridges/pasta/pkg/ndb"
)

// Type is a property type tag
type Type uint16

const (
	TypeInteger32         Type = 0x0003
	TypeBoolean           Type = 0x000B
	TypeInteger64         Type = 0x0014
	TypeString            Type = 0x001F
	TypeTime              Type = 0x0040
	TypeBinary            Type = 0x0102
	TypeMultipleInteger32 Type = 0x1003
)

// filetimeEpochDelta is the number of 100ns intervals between 1601-01-01 and 1970-01-01
const filetimeEpochDelta = 116444736000000000

type typeInfo struct {
	name   string
	size   int // 0 for variable size
	decode func([]byte, *Value) error
}

var typeTable = map[Type]typeInfo{
	TypeInteger32:         {"Integer32", 4, decodeInteger32},
	TypeBoolean:           {"Boolean", 1, decodeBoolean},
	TypeInteger64:         {"Integer64", 8, decodeInteger64},
	TypeString:            {"String", 0, decodeString},
	TypeTime:              {"Time", 8, decodeTime},
	TypeBinary:            {"Binary", 0, decodeBinary},
	TypeMultipleInteger32: {"MultipleInteger32", 0, decodeMultipleInteger32},
}

// Known reports whether the type has a codec
func (t Type) Known() bool {
	_, ok := typeTable[t]
	return ok
}

// Size returns the fixed width of the type, or 0 when it is variable
func (t Type) Size() int {
	return typeTable[t].size
}

// Variable reports whether values of the type have no fixed width
func (t Type) Variable() bool {
	return t.Size() == 0
}

func (t Type) String() string {
	if info, ok := typeTable[t]; ok {
		return info.name
	}
	return fmt.Sprintf("Type(0x%04x)", uint16(t))
}

// Decode interprets b as a value of type t
func (t Type) Decode(b []byte) (Value, error) {
	info, ok := typeTable[t]
	if !ok {
		return Value{}, ndb.Corruptf(ndb.CauseTypeCode, -1, "unknown property type 0x%04x", uint16(t))
	}
	v := Value{Type: t}
	if err := info.decode(b, &v); err != nil {
		return Value{}, err
	}
	return v, nil
}

func wantLen(t Type, b []byte, n int) error {
	if len(b) != n {
		return ndb.Corruptf(ndb.CauseSize, -1, "%s value is %d bytes, expected %d", t, len(b), n)
	}
	return nil
}

func decodeInteger32(b []byte, v *Value) error {
	if err := wantLen(TypeInteger32, b, 4); err != nil {
		return err
	}
	v.Int32 = int32(binary.LittleEndian.Uint32(b))
	return nil
}

// decodeBoolean accepts one byte or a zero-padded inline slot
func decodeBoolean(b []byte, v *Value) error {
	if len(b) == 0 || len(b) > 4 {
		return ndb.Corruptf(ndb.CauseSize, -1, "Boolean value is %d bytes", len(b))
	}
	for _, c := range b[1:] {
		if c != 0 {
			return ndb.Corruptf(ndb.CauseReserved, -1, "Boolean value % x has nonzero padding", b)
		}
	}
	switch b[0] {
	case 0:
		v.Bool = false
	case 1:
		v.Bool = true
	default:
		return ndb.Corruptf(ndb.CauseTypeCode, -1, "Boolean value 0x%02x", b[0])
	}
	return nil
}

func decodeInteger64(b []byte, v *Value) error {
	if err := wantLen(TypeInteger64, b, 8); err != nil {
		return err
	}
	v.Int64 = int64(binary.LittleEndian.Uint64(b))
	return nil
}

func decodeTime(b []byte, v *Value) error {
	if err := wantLen(TypeTime, b, 8); err != nil {
		return err
	}
	ft := int64(binary.LittleEndian.Uint64(b))
	v.Int64 = ft
	v.Time = FiletimeToTime(ft)
	return nil
}

// FiletimeToTime converts 100ns intervals since 1601 to a UTC time
func FiletimeToTime(ft int64) time.Time {
	d := ft - filetimeEpochDelta
	return time.Unix(d/10000000, (d%10000000)*100).UTC()
}

// TimeToFiletime is the inverse of FiletimeToTime
func TimeToFiletime(t time.Time) int64 {
	return t.Unix()*10000000 + int64(t.Nanosecond())/100 + filetimeEpochDelta
}

func decodeString(b []byte, v *Value) error {
	if len(b)%2 != 0 {
		return ndb.Corruptf(ndb.CauseSize, -1, "String value has odd length %d", len(b))
	}
	out, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(b)
	if err != nil {
		return ndb.Corruptf(ndb.CauseTypeCode, -1, "String value: %v", err)
	}
	v.Str = string(out)
	return nil
}

// EncodeString returns the UTF-16LE form of s
func EncodeString(s string) ([]byte, error) {
	return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(s))
}

func decodeBinary(b []byte, v *Value) error {
	v.Bytes = append([]byte{}, b...)
	return nil
}

func decodeMultipleInteger32(b []byte, v *Value) error {
	if len(b) < 4 {
		return ndb.Corruptf(ndb.CauseSize, -1, "MultipleInteger32 value is %d bytes", len(b))
	}
	n := binary.LittleEndian.Uint32(b)
	if uint64(len(b)) != 4+4*uint64(n) {
		return ndb.Corruptf(ndb.CauseSize, -1, "MultipleInteger32 count %d in %d bytes", n, len(b))
	}
	v.Int32s = make([]int32, n)
	for i := range v.Int32s {
		v.Int32s[i] = int32(binary.LittleEndian.Uint32(b[4+4*i:]))
	}
	return nil
}
