package props

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	require.Equal(t, len(knownProperties), c.Len())

	p, ok := c.Lookup(PidTagDisplayName)
	require.True(t, ok)
	assert.Equal(t, TypeString, p.Type)
	assert.Equal(t, "DisplayName", p.Name)
	assert.Equal(t, uint32(0x3001001F), p.Tag())

	p, ok = c.Lookup(PidTagLtpRowId)
	require.True(t, ok)
	assert.Equal(t, TypeInteger32, p.Type)

	_, ok = c.Lookup(0x7FFE)
	assert.False(t, ok)
	assert.Equal(t, "0x7ffe", c.Name(0x7FFE))
	assert.Equal(t, "Subject", c.Name(PidTagSubject))
}

func TestCatalogEntriesAreConsistent(t *testing.T) {
	seen := make(map[uint16]bool)
	for _, p := range Default().All() {
		assert.False(t, seen[p.ID], "duplicate id 0x%04x", p.ID)
		seen[p.ID] = true
		assert.True(t, p.Type.Known(), p.Name)
		assert.NotEmpty(t, p.Name)
	}
}

func TestNewCatalogRejects(t *testing.T) {
	_, err := NewCatalog([]Property{
		{0x1000, TypeString, "A"},
		{0x1000, TypeInteger32, "B"},
	})
	assert.Error(t, err)

	_, err = NewCatalog([]Property{{0x1000, Type(0x0005), "Double"}})
	assert.Error(t, err)

	c, err := NewCatalog([]Property{{0x1000, TypeString, "A"}})
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
}

func TestCatalogAllIsACopy(t *testing.T) {
	c := Default()
	all := c.All()
	all[0].Name = "changed"
	assert.NotEqual(t, "changed", c.All()[0].Name)
}
