// Package ndb implements the node database layer of a PST file: pages,
// the block and node B+Trees, block decoding and subnode trees.
package ndb

import (
	"errors"
	"fmt"
)

var (
	// ErrCorrupt indicates a structural violation of the file format
	ErrCorrupt = errors.New("ndb: corrupt file")

	// ErrUnsupported indicates a valid but unsupported variant
	ErrUnsupported = errors.New("ndb: unsupported format")

	// ErrDepthExceeded indicates a walk deeper than the configured bound
	ErrDepthExceeded = errors.New("ndb: depth exceeded")
)

// Cause classifies a corruption
type Cause string

const (
	CauseMagic     Cause = "magic"
	CauseCRC       Cause = "crc"
	CauseSignature Cause = "signature"
	CauseSize      Cause = "size"
	CauseOrder     Cause = "order"
	CauseTypeCode  Cause = "type_code"
	CauseReserved  Cause = "reserved"
	CauseBounds    Cause = "bounds"
	CauseMismatch  Cause = "mismatch"
	CauseMissing   Cause = "missing"
	CauseDepth     Cause = "depth"
)

// CorruptError carries the cause and location of a corruption
type CorruptError struct {
	Cause  Cause
	Offset int64 // absolute file offset, or -1 when not known
	Detail string
}

func (e *CorruptError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("ndb: corrupt file: %s at 0x%x: %s", e.Cause, e.Offset, e.Detail)
	}
	return fmt.Sprintf("ndb: corrupt file: %s: %s", e.Cause, e.Detail)
}

// Unwrap returns ErrCorrupt
func (e *CorruptError) Unwrap() error {
	return ErrCorrupt
}

// Is reports depth violations as ErrDepthExceeded as well
func (e *CorruptError) Is(target error) bool {
	return target == ErrDepthExceeded && e.Cause == CauseDepth
}

// Corruptf builds a CorruptError
func Corruptf(cause Cause, off int64, format string, args ...interface{}) error {
	return &CorruptError{Cause: cause, Offset: off, Detail: fmt.Sprintf(format, args...)}
}

// CauseOf returns the cause of a corruption error, or "" for other errors
func CauseOf(err error) Cause {
	var ce *CorruptError
	if errors.As(err, &ce) {
		return ce.Cause
	}
	return ""
}

func unsupportedf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrUnsupported}, args...)...)
}
