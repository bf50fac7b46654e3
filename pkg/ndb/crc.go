package ndb

import (
	"hash/crc32"

	"github.com/google/uuid"
)

// CRC computes the PST CRC-32: the reflected IEEE polynomial seeded
// with zero and without the final inversion.
func CRC(p []byte) uint32 {
	return ^crc32.Update(0xFFFFFFFF, crc32.IEEETable, p)
}

// ComputeSig folds the XOR of a file offset and a BID into 16 bits
func ComputeSig(ib uint64, bid uint64) uint16 {
	ib ^= bid
	return uint16(ib>>16) ^ uint16(ib)
}

// ParseGUID decodes the mixed-endian on-disk GUID layout
func ParseGUID(b []byte) uuid.UUID {
	var u uuid.UUID
	u[0], u[1], u[2], u[3] = b[3], b[2], b[1], b[0]
	u[4], u[5] = b[5], b[4]
	u[6], u[7] = b[7], b[6]
	copy(u[8:], b[8:16])
	return u
}
