package ltp_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sbridges/pasta/internal/psttest"
	"github.com/sbridges/pasta/pkg/ndb"
	"github.com/sbridges/pasta/pkg/pstio"
)

func decoder(t *testing.T, b *psttest.Builder) *ndb.Decoder {
	t.Helper()
	src := pstio.FromBytes(b.Bytes())
	h, err := ndb.ParseHeader(src)
	require.NoError(t, err)
	bbt := ndb.NewBBT(src, h.Root.BBT, 0, nil)
	return ndb.NewDecoder(src, bbt, h.Cipher, ndb.DecoderConfig{})
}

// addHeap stores h as the data of a new node and returns the data BID
func addHeap(b *psttest.Builder, h *psttest.Heap) ndb.BID {
	return b.AddBlocks(h.Blocks())
}

func fill(n int, seed byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = seed + byte(i%13)
	}
	return out
}

func requireCause(t *testing.T, err error, cause ndb.Cause) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, ndb.ErrCorrupt)
	require.Equal(t, cause, ndb.CauseOf(err), "error: %v", err)
}
