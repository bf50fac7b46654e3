package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbridges/pasta/internal/psttest"
	"github.com/sbridges/pasta/pkg/ndb"
	"github.com/sbridges/pasta/pkg/props"
	"github.com/sbridges/pasta/pkg/pst"
)

func TestParseNID(t *testing.T) {
	tests := []struct {
		in      string
		want    ndb.NID
		wantErr bool
	}{
		{"0x21", ndb.NIDMessageStore, false},
		{"290", ndb.NIDRootFolder, false},
		{"0x61", ndb.NIDNameToIDMap, false},
		{"nid", 0, true},
		{"0x100000000", 0, true},
	}
	for _, tt := range tests {
		got, err := parseNID(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func openFixture(t *testing.T) *pst.Reader {
	t.Helper()
	b := psttest.New()
	b.AddPC(ndb.NIDMessageStore, []psttest.Prop{
		{ID: props.PidTagDisplayName, Type: props.TypeString, Data: psttest.Str("Archive")},
		{ID: props.PidTagContentCount, Type: props.TypeInteger32, Data: psttest.I32(4)},
	}, psttest.PCOptions{})
	b.AddTC(ndb.MakeNID(ndb.NIDTypeHierarchyTable, 1), []psttest.Column{
		{ID: props.PidTagDisplayName, Type: props.TypeString},
	}, []psttest.Row{
		{ID: 0x8022, Cells: map[uint16][]byte{props.PidTagDisplayName: psttest.Str("Inbox")}},
	}, psttest.TCOptions{})

	r, err := pst.OpenBytes(b.Bytes())
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestPrintNodes(t *testing.T) {
	r := openFixture(t)
	var buf bytes.Buffer
	require.NoError(t, printNodes(&buf, r))
	assert.Contains(t, buf.String(), "NID")
	assert.Contains(t, buf.String(), "0x21(INTERNAL)")
	assert.Contains(t, buf.String(), "HIERARCHY_TABLE")
}

func TestPrintPC(t *testing.T) {
	r := openFixture(t)
	var buf bytes.Buffer
	require.NoError(t, printPC(&buf, r, ndb.NIDMessageStore))
	assert.Contains(t, buf.String(), "DisplayName")
	assert.Contains(t, buf.String(), "Archive")
	assert.Contains(t, buf.String(), "ContentCount")
}

func TestPrintTC(t *testing.T) {
	r := openFixture(t)
	var buf bytes.Buffer
	require.NoError(t, printTC(&buf, r, ndb.MakeNID(ndb.NIDTypeHierarchyTable, 1)))
	assert.Contains(t, buf.String(), "LtpRowId")
	assert.Contains(t, buf.String(), "Inbox")
	assert.Contains(t, buf.String(), "1 rows\n")

	err := printTC(&buf, r, ndb.NIDMessageStore)
	assert.ErrorIs(t, err, ndb.ErrCorrupt)
}
