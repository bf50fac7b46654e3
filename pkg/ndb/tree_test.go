package ndb_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbridges/pasta/internal/psttest"
	"github.com/sbridges/pasta/pkg/ndb"
)

func TestBBTLookupRoundTrip(t *testing.T) {
	for _, fanout := range []int{0, 2, 3, 7} {
		b := psttest.New()
		b.PageFanout = fanout
		var bids []ndb.BID
		for i := 0; i < 60; i++ {
			bids = append(bids, b.AddBlock(pattern(10+i, i)))
		}
		f := open(t, b)

		for _, bid := range bids {
			e, found, err := f.bbt.Lookup(bid)
			require.NoError(t, err)
			require.True(t, found, "fanout %d bid %s", fanout, bid)
			assert.Equal(t, b.Entry(bid), e)

			// the reserved bit is ignored when searching
			e, found, err = f.bbt.Lookup(bid | 1)
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, bid, e.Ref.BID)
		}

		entries, err := f.bbt.Entries()
		require.NoError(t, err)
		require.Len(t, entries, len(bids))
		for i, e := range entries {
			assert.Equal(t, bids[i], e.Ref.BID)
		}
	}
}

func TestBBTLookupMiss(t *testing.T) {
	b := psttest.New()
	b.PageFanout = 2
	for i := 0; i < 9; i++ {
		b.AddBlock(pattern(16, i))
	}
	f := open(t, b)

	for _, bid := range []ndb.BID{0x4, 0x102, 0x10A, 0xFFFFFFF0} {
		_, found, err := f.bbt.Lookup(bid)
		require.NoError(t, err)
		assert.False(t, found, "bid %s", bid)
	}
}

func TestEmptyTrees(t *testing.T) {
	f := open(t, psttest.New())

	_, found, err := f.nbt.Lookup(ndb.NIDMessageStore)
	require.NoError(t, err)
	assert.False(t, found)

	nodes, err := f.nbt.Entries()
	require.NoError(t, err)
	assert.Empty(t, nodes)

	blocks, err := f.bbt.Entries()
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestNBTLookup(t *testing.T) {
	b := psttest.New()
	b.PageFanout = 2
	want := make(map[ndb.NID]ndb.NBTEntry)
	for i := 1; i <= 30; i++ {
		e := ndb.NBTEntry{
			NID:    ndb.MakeNID(ndb.NIDTypeNormalMessage, uint32(i)),
			Data:   b.AddBlock(pattern(32, i)),
			Parent: ndb.NIDRootFolder,
		}
		b.AddNode(e)
		want[e.NID] = e
	}
	f := open(t, b)

	for nid, e := range want {
		got, found, err := f.nbt.Lookup(nid)
		require.NoError(t, err)
		require.True(t, found, "nid %s", nid)
		if diff := cmp.Diff(e, got); diff != "" {
			t.Errorf("entry mismatch (-want +got):\n%s", diff)
		}
	}

	_, found, err := f.nbt.Lookup(ndb.MakeNID(ndb.NIDTypeNormalMessage, 31))
	require.NoError(t, err)
	assert.False(t, found)

	// smaller than every key in the root
	_, found, err = f.nbt.Lookup(ndb.NIDMessageStore)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestWalkPreOrder(t *testing.T) {
	b := psttest.New()
	b.PageFanout = 2
	for i := 1; i <= 8; i++ {
		b.AddNode(ndb.NBTEntry{
			NID:  ndb.MakeNID(ndb.NIDTypeNormalFolder, uint32(i)),
			Data: b.AddBlock(pattern(8, i)),
		})
	}
	f := open(t, b)

	type visit struct {
		depth int
		level int
	}
	var pages []visit
	var nids []ndb.NID
	err := f.nbt.Walk(func(depth int, p *ndb.BTPage) error {
		pages = append(pages, visit{depth, p.Level})
		return nil
	}, func(e ndb.NBTEntry) error {
		nids = append(nids, e.NID)
		return nil
	})
	require.NoError(t, err)

	// 8 entries, 2 per page: 4 leaves, 2 intermediates, 1 root
	want := []visit{
		{0, 2},
		{1, 1}, {2, 0}, {2, 0},
		{1, 1}, {2, 0}, {2, 0},
	}
	if diff := cmp.Diff(want, pages, cmp.AllowUnexported(visit{})); diff != "" {
		t.Errorf("page order mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, nids, 8)
	for i := 1; i < len(nids); i++ {
		assert.Less(t, uint32(nids[i-1]), uint32(nids[i]))
	}
}

func TestDepthBound(t *testing.T) {
	b := psttest.New()
	b.PageFanout = 2
	var last ndb.BID
	for i := 0; i < 20; i++ {
		last = b.AddBlock(pattern(8, i))
	}
	f := open(t, b)

	shallow := ndb.NewBBT(f.src, f.header.Root.BBT, 2, nil)
	_, _, err := shallow.Lookup(last)
	require.ErrorIs(t, err, ndb.ErrDepthExceeded)
	requireCause(t, err, ndb.CauseDepth)

	err = shallow.Walk(nil, func(ndb.BBTEntry) error { return nil })
	require.ErrorIs(t, err, ndb.ErrDepthExceeded)

	_, found, err := f.bbt.Lookup(last)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestTreeRecorder(t *testing.T) {
	b := psttest.New()
	bid := b.AddBlock(pattern(8, 1))
	f := open(t, b)

	rec := newCountingRecorder()
	bbt := ndb.NewBBT(f.src, f.header.Root.BBT, 0, rec)
	_, _, err := bbt.Lookup(bid)
	require.NoError(t, err)
	_, _, err = bbt.Lookup(0x4)
	require.NoError(t, err)

	assert.Equal(t, 2, rec.pages["bbt"])
	assert.Equal(t, 1, rec.lookups["bbt/hit"])
	assert.Equal(t, 1, rec.lookups["bbt/miss"])
}

func TestTreePageCorruption(t *testing.T) {
	b := psttest.New()
	bid := b.AddBlock(pattern(8, 1))
	img := b.Bytes()
	_, bbtRoot := b.Roots()

	t.Run("entry byte flipped", func(t *testing.T) {
		bad := append([]byte{}, img...)
		bad[bbtRoot.IB+20] ^= 0xFF
		f := openImage(t, bad)
		_, _, err := f.bbt.Lookup(bid)
		requireCause(t, err, ndb.CauseCRC)
	})

	t.Run("wrong tree type", func(t *testing.T) {
		f := openImage(t, img)
		nbt := ndb.NewNBT(f.src, bbtRoot, 0, nil)
		_, _, err := nbt.Lookup(ndb.NIDMessageStore)
		requireCause(t, err, ndb.CauseTypeCode)
	})

	t.Run("bid mismatch", func(t *testing.T) {
		f := openImage(t, img)
		ref := bbtRoot
		ref.BID += 4
		bbt := ndb.NewBBT(f.src, ref, 0, nil)
		_, _, err := bbt.Lookup(bid)
		require.ErrorIs(t, err, ndb.ErrCorrupt)
	})

	t.Run("bad entry count", func(t *testing.T) {
		bad := append([]byte{}, img...)
		page := bad[bbtRoot.IB : bbtRoot.IB+ndb.PageSize]
		page[488] = 30
		psttest.SealPage(page, ndb.PageTypeBBT, bbtRoot.IB, bbtRoot.BID)
		f := openImage(t, bad)
		_, _, err := f.bbt.Lookup(bid)
		requireCause(t, err, ndb.CauseSize)
	})
}
