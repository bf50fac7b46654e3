package props

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// Value is a decoded property value. Only the field matching Type is set.
type Value struct {
	Type   Type
	Bool   bool
	Int32  int32
	Int64  int64 // Integer64, and the raw FILETIME for Time
	Time   time.Time
	Str    string
	Bytes  []byte
	Int32s []int32
}

// Interface returns the value as a plain Go value
func (v Value) Interface() interface{} {
	switch v.Type {
	case TypeBoolean:
		return v.Bool
	case TypeInteger32:
		return v.Int32
	case TypeInteger64:
		return v.Int64
	case TypeTime:
		return v.Time
	case TypeString:
		return v.Str
	case TypeBinary:
		return v.Bytes
	case TypeMultipleInteger32:
		return v.Int32s
	}
	return nil
}

func (v Value) String() string {
	switch v.Type {
	case TypeBoolean:
		return strconv.FormatBool(v.Bool)
	case TypeInteger32:
		return strconv.FormatInt(int64(v.Int32), 10)
	case TypeInteger64:
		return strconv.FormatInt(v.Int64, 10)
	case TypeTime:
		return v.Time.Format(time.RFC3339)
	case TypeString:
		return strconv.Quote(v.Str)
	case TypeBinary:
		return hex.EncodeToString(v.Bytes)
	case TypeMultipleInteger32:
		return fmt.Sprint(v.Int32s)
	}
	return "<invalid>"
}
