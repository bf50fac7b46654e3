package pst_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbridges/pasta/internal/logger"
	"github.com/sbridges/pasta/internal/psttest"
	"github.com/sbridges/pasta/pkg/ndb"
	"github.com/sbridges/pasta/pkg/props"
	"github.com/sbridges/pasta/pkg/pst"
)

var (
	hierarchyNID = ndb.MakeNID(ndb.NIDTypeHierarchyTable, 0x9)
	messageNID   = ndb.MakeNID(ndb.NIDTypeNormalMessage, 0x5)
)

func fill(n int, seed byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = seed + byte(i%13)
	}
	return out
}

// storeBuilder adds one of each node kind: a PC with a subnode value, a
// TC, a BTH heap and a plain stream with two subnodes
func storeBuilder() *psttest.Builder {
	b := psttest.New()
	b.Cipher = ndb.CipherPermute

	b.AddPC(ndb.NIDMessageStore, []psttest.Prop{
		{ID: props.PidTagDisplayName, Type: props.TypeString, Data: psttest.Str("Personal Folders")},
		{ID: props.PidTagRecordKey, Type: props.TypeBinary, Data: fill(16, 9)},
		{ID: props.PidTagSubject, Type: props.TypeString, Data: psttest.Str(string(bytes.Repeat([]byte("s"), 9000))), Subnode: true},
	}, psttest.PCOptions{})

	b.AddTC(hierarchyNID, []psttest.Column{
		{ID: props.PidTagDisplayName, Type: props.TypeString},
		{ID: props.PidTagContentCount, Type: props.TypeInteger32},
	}, []psttest.Row{
		{ID: uint32(ndb.NIDRootFolder), Cells: map[uint16][]byte{
			props.PidTagDisplayName:  psttest.Str("Top of Personal Folders"),
			props.PidTagContentCount: psttest.I32(3),
		}},
		{ID: 0x8022, Cells: map[uint16][]byte{
			props.PidTagDisplayName: psttest.Str("Deleted Items"),
		}},
	}, psttest.TCOptions{})

	h := psttest.NewHeap(psttest.ClientSigBTH)
	h.SetRoot(h.AddBTH(4, 4, []psttest.Record{
		{Key: []byte{1, 0, 0, 0}, Value: []byte{10, 0, 0, 0}},
		{Key: []byte{2, 0, 0, 0}, Value: []byte{20, 0, 0, 0}},
		{Key: []byte{3, 0, 0, 0}, Value: []byte{30, 0, 0, 0}},
	}, 0))
	b.AddNode(ndb.NBTEntry{NID: ndb.NIDNameToIDMap, Data: b.AddBlocks(h.Blocks())})

	sub := b.AddSubnodes([]ndb.SLEntry{
		{NID: ndb.MakeNID(ndb.NIDTypeLTP, 1), Data: b.AddStream(fill(100, 1))},
		{NID: ndb.MakeNID(ndb.NIDTypeAttachment, 2), Data: b.AddStream(fill(300, 2))},
	})
	b.AddNode(ndb.NBTEntry{
		NID:    messageNID,
		Data:   b.AddStream(fill(20000, 0)),
		Sub:    sub,
		Parent: ndb.NIDRootFolder,
	})
	return b
}

func store(t *testing.T) (*psttest.Builder, []byte) {
	t.Helper()
	b := storeBuilder()
	return b, b.Bytes()
}

func TestOpenBytes(t *testing.T) {
	_, img := store(t)
	r, err := pst.OpenBytes(img)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, ndb.CipherPermute, r.Header().Cipher)
	assert.NotNil(t, r.Catalog())

	e, found, err := r.Node(messageNID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, ndb.NIDRootFolder, e.Parent)

	blk, err := r.Block(e.Data)
	require.NoError(t, err)
	assert.Equal(t, e.Data, blk.Ref.BID)

	_, found, err = r.Node(ndb.NIDRootFolder)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestOpenFile(t *testing.T) {
	_, img := store(t)
	path := filepath.Join(t.TempDir(), "store.pst")
	require.NoError(t, os.WriteFile(path, img, 0o644))

	r, err := pst.Open(path)
	require.NoError(t, err)
	pc, err := r.PC(ndb.NIDMessageStore)
	require.NoError(t, err)
	v, found, err := pc.Get(props.PidTagDisplayName)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Personal Folders", v.Str)
	require.NoError(t, r.Close())

	_, err = pst.Open(filepath.Join(t.TempDir(), "missing.pst"))
	assert.Error(t, err)

	bad := append([]byte{}, img...)
	bad[0] = 'X'
	badPath := filepath.Join(t.TempDir(), "bad.pst")
	require.NoError(t, os.WriteFile(badPath, bad, 0o644))
	_, err = pst.Open(badPath)
	require.ErrorIs(t, err, ndb.ErrCorrupt)
	assert.Contains(t, err.Error(), badPath)
}

func TestPCAndTC(t *testing.T) {
	_, img := store(t)
	r, err := pst.OpenBytes(img)
	require.NoError(t, err)
	defer r.Close()

	pc, err := r.PC(ndb.NIDMessageStore)
	require.NoError(t, err)
	v, found, err := pc.Get(props.PidTagSubject)
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, v.Str, 9000)

	tc, err := r.TC(hierarchyNID)
	require.NoError(t, err)
	n, err := tc.RowCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	v, found, err = tc.Get(uint32(ndb.NIDRootFolder), props.PidTagContentCount)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int32(3), v.Int32)

	hn, err := r.Heap(ndb.NIDNameToIDMap)
	require.NoError(t, err)
	assert.Equal(t, "BTH", hn.ClientSig().String())

	subs, err := r.Subnodes(messageNID)
	require.NoError(t, err)
	entries, err := subs.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestNodeNotFound(t *testing.T) {
	_, img := store(t)
	r, err := pst.OpenBytes(img)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.PC(ndb.NIDRootFolder)
	assert.ErrorIs(t, err, pst.ErrNodeNotFound)
	_, err = r.TC(ndb.NIDRootFolder)
	assert.ErrorIs(t, err, pst.ErrNodeNotFound)
	_, err = r.Heap(ndb.NIDRootFolder)
	assert.ErrorIs(t, err, pst.ErrNodeNotFound)
	_, err = r.Subnodes(ndb.NIDRootFolder)
	assert.ErrorIs(t, err, pst.ErrNodeNotFound)
	assert.NotErrorIs(t, err, ndb.ErrCorrupt)
}

func TestWrongNodeKind(t *testing.T) {
	_, img := store(t)
	r, err := pst.OpenBytes(img)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.PC(hierarchyNID)
	require.ErrorIs(t, err, ndb.ErrCorrupt)
	assert.Equal(t, ndb.CauseTypeCode, ndb.CauseOf(err))

	_, err = r.TC(messageNID)
	require.ErrorIs(t, err, ndb.ErrCorrupt)
	assert.Equal(t, ndb.CauseMagic, ndb.CauseOf(err))
}

func TestOpenUnsupported(t *testing.T) {
	_, img := store(t)
	bad := append([]byte{}, img...)
	bad[10] = 14
	psttest.SealHeader(bad)

	_, err := pst.OpenBytes(bad)
	require.ErrorIs(t, err, ndb.ErrUnsupported)
}

func TestDebugLogging(t *testing.T) {
	_, img := store(t)
	var buf bytes.Buffer
	log := logger.NewLogger(logger.Config{Level: "debug", Output: &buf})

	r, err := pst.OpenBytes(img, pst.WithLogger(*log.GetZerolog()))
	require.NoError(t, err)
	defer r.Close()
	_, err = r.PC(ndb.NIDMessageStore)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"event":"open"`)
	assert.Contains(t, out, `"cipher":"permute"`)
	assert.Contains(t, out, `"component":"ndb"`)
	assert.Contains(t, out, `"message":"block read"`)
	assert.Contains(t, out, `"component":"ltp"`)
	assert.Contains(t, out, `"operation":"pc"`)
}
