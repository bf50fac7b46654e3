package ndb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbridges/pasta/internal/psttest"
	"github.com/sbridges/pasta/pkg/ndb"
)

func sealedPage(ptype ndb.PageType, ib uint64, bid ndb.BID) []byte {
	page := pattern(ndb.PageSize, 3)
	psttest.SealPage(page, ptype, ib, bid)
	return page
}

func TestParsePageTrailer(t *testing.T) {
	page := sealedPage(ndb.PageTypeNBT, 0x4400, 0x24)
	tr, err := ndb.ParsePageTrailer(page, 0x4400)
	require.NoError(t, err)
	assert.Equal(t, ndb.PageTypeNBT, tr.Type)
	assert.Equal(t, ndb.BID(0x24), tr.BID)
	assert.Equal(t, ndb.ComputeSig(0x4400, 0x24), tr.Sig)
	assert.Equal(t, ndb.CRC(page[:ndb.PageDataSize]), tr.CRC)
}

func TestParsePageTrailerUnsignedType(t *testing.T) {
	page := sealedPage(ndb.PageTypeAMap, 0x4400, 0x30)
	tr, err := ndb.ParsePageTrailer(page, 0x4400)
	require.NoError(t, err)
	assert.Equal(t, uint16(0), tr.Sig)

	// unsigned page types must carry a zero signature
	page[ndb.PageDataSize+2] = 1
	_, err = ndb.ParsePageTrailer(page, 0x4400)
	requireCause(t, err, ndb.CauseSignature)
}

func TestParsePageTrailerCorruption(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p []byte)
		ib     uint64
		cause  ndb.Cause
	}{
		{"repeated type differs", func(p []byte) { p[ndb.PageDataSize+1] = 0x81 }, 0x4400, ndb.CauseTypeCode},
		{"unknown type", func(p []byte) { p[ndb.PageDataSize], p[ndb.PageDataSize+1] = 0x90, 0x90 }, 0x4400, ndb.CauseTypeCode},
		{"data byte flipped", func(p []byte) { p[10] ^= 0xFF }, 0x4400, ndb.CauseCRC},
		{"crc flipped", func(p []byte) { p[ndb.PageDataSize+4] ^= 0x01 }, 0x4400, ndb.CauseCRC},
		{"read from another offset", func(p []byte) {}, 0x4600, ndb.CauseSignature},
		{"signature flipped", func(p []byte) { p[ndb.PageDataSize+2] ^= 0x01 }, 0x4400, ndb.CauseSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := sealedPage(ndb.PageTypeBBT, 0x4400, 0x24)
			tt.mutate(page)
			_, err := ndb.ParsePageTrailer(page, tt.ib)
			requireCause(t, err, tt.cause)
		})
	}
}

func TestParsePageTrailerShortPage(t *testing.T) {
	_, err := ndb.ParsePageTrailer(make([]byte, 100), 0)
	requireCause(t, err, ndb.CauseSize)
}
