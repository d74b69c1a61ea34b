package reporec

import (
	"strings"
	"testing"

	"github.com/alecthomas/assert"
)

// identity ignores display fields on purpose: a renamed or re-owned
// repository must still compare as the same repository
func TestSameRepositoryIgnoresDisplayFields(t *testing.T) {
	a := Record{ID: 1, ModuleID: 10, ParentModuleID: 0, Name: "repo-a", OwnerID: 100, GUIDHigh: 7, GUIDLow: 5}
	b := Record{ID: 1, ModuleID: 11, ParentModuleID: 3, Name: "renamed", OwnerID: 200, GUIDHigh: 7, GUIDLow: 5}
	assert.True(t, SameRepository(&a, &b))
	assert.Equal(t, a.Identity(), b.Identity())
	assert.NotEqual(t, a, b)

	c := b
	c.GUIDLow = 6
	assert.False(t, SameRepository(&a, &c))
	c = b
	c.GUIDHigh = 8
	assert.False(t, SameRepository(&a, &c))
	c = b
	c.ID = 2
	assert.False(t, SameRepository(&a, &c))
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, Empty.IsEmpty())
	r := Record{Name: "zero identity", OwnerID: 3}
	// known ambiguity: zero ID and guid looks like Empty
	assert.True(t, r.IsEmpty())
	r.GUIDLow = 1
	assert.False(t, r.IsEmpty())
}

func TestGUID(t *testing.T) {
	guid := [16]byte{0x80, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 0xff}
	var r Record
	r.SetGUID(guid)
	assert.True(t, r.GUIDHigh < 0)
	assert.Equal(t, int64(0x08090a0b0c0d0eff), r.GUIDLow)
	assert.Equal(t, guid, r.GUID())

	r = Record{ID: 2, Name: "x", GUIDHigh: 0, GUIDLow: 6}
	s := r.String()
	assert.True(t, strings.Contains(s, "00000000-0000-0000-0000-000000000006"), "s: %s", s)
}
