package ndb_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sbridges/pasta/internal/psttest"
	"github.com/sbridges/pasta/pkg/ndb"
	"github.com/sbridges/pasta/pkg/pstio"
)

// fixture is an opened synthetic image
type fixture struct {
	img    []byte
	src    *pstio.Cursor
	header *ndb.Header
	bbt    *ndb.BBT
	nbt    *ndb.NBT
	dec    *ndb.Decoder
}

func open(t *testing.T, b *psttest.Builder) *fixture {
	t.Helper()
	return openImage(t, b.Bytes())
}

func openImage(t *testing.T, img []byte) *fixture {
	t.Helper()
	src := pstio.FromBytes(img)
	h, err := ndb.ParseHeader(src)
	require.NoError(t, err)

	f := &fixture{img: img, src: src, header: h}
	f.bbt = ndb.NewBBT(src, h.Root.BBT, 0, nil)
	f.nbt = ndb.NewNBT(src, h.Root.NBT, 0, nil)
	f.dec = ndb.NewDecoder(src, f.bbt, h.Cipher, ndb.DecoderConfig{})
	return f
}

// pattern returns n deterministic bytes
func pattern(n, seed int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte((i*7 + seed) % 251)
	}
	return out
}

func requireCause(t *testing.T, err error, cause ndb.Cause) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, ndb.ErrCorrupt)
	require.Equal(t, cause, ndb.CauseOf(err), "error: %v", err)
}

// countingRecorder counts decode events
type countingRecorder struct {
	pages   map[string]int
	blocks  map[string]int
	lookups map[string]int
	causes  map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		pages:   make(map[string]int),
		blocks:  make(map[string]int),
		lookups: make(map[string]int),
		causes:  make(map[string]int),
	}
}

func (r *countingRecorder) PageRead(tree string) {
	r.pages[tree]++
}

func (r *countingRecorder) BlockRead(kind string) {
	r.blocks[kind]++
}

func (r *countingRecorder) Corruption(cause string) {
	r.causes[cause]++
}

func (r *countingRecorder) Lookup(tree string, found bool, _ time.Duration) {
	if found {
		r.lookups[tree+"/hit"]++
	} else {
		r.lookups[tree+"/miss"]++
	}
}
