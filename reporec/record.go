// Package reporec defines the on-disk layout of a repository catalog record
// and encodes / decodes single records.
//
// A record is laid out as (all integers little-endian):
//
//	[4B ID][4B ModuleID][4B ParentModuleID]
//	[uvarint len][len bytes of UTF-8 Name]
//	[4B OwnerID][8B GUIDHigh][8B GUIDLow]
//
// There is no header, padding or checksum. A catalog file is a plain
// concatenation of records.
package reporec

import (
	"encoding/binary"
	"fmt"
)

// Record describes a single repository entry in the catalog
type Record struct {
	ID             uint32 `json:"id"`
	ModuleID       uint32 `json:"module_id"`
	ParentModuleID uint32 `json:"parent_module_id"`
	Name           string `json:"name"`
	OwnerID        uint32 `json:"owner_id"`
	// high and low 64 bits of a 128-bit guid
	GUIDHigh int64 `json:"guid_high"`
	GUIDLow  int64 `json:"guid_low"`
}

// Identity is the part of a Record that decides if two records
// describe the same repository
type Identity struct {
	ID       uint32
	GUIDHigh int64
	GUIDLow  int64
}

// Empty is returned by single-record lookups when nothing was found
var Empty = Record{}

// Identity returns the identity of r. It's comparable so can be used as a map key.
func (r *Record) Identity() Identity {
	return Identity{
		ID:       r.ID,
		GUIDHigh: r.GUIDHigh,
		GUIDLow:  r.GUIDLow,
	}
}

// SameRepository returns true if a and b have the same ID and GUID.
// ModuleID, ParentModuleID, Name and OwnerID are ignored: a renamed
// repository is still the same repository.
func SameRepository(a, b *Record) bool {
	return a.ID == b.ID && a.GUIDHigh == b.GUIDHigh && a.GUIDLow == b.GUIDLow
}

// IsEmpty returns true if r has the identity of Empty.
// Note: a real record with zero ID and zero GUID is indistinguishable
// from Empty. Lookups return a separate found flag for that reason.
func (r *Record) IsEmpty() bool {
	return SameRepository(r, &Empty)
}

// GUID returns the 128-bit guid as 16 big-endian bytes
func (r *Record) GUID() [16]byte {
	var res [16]byte
	binary.BigEndian.PutUint64(res[:8], uint64(r.GUIDHigh))
	binary.BigEndian.PutUint64(res[8:], uint64(r.GUIDLow))
	return res
}

// SetGUID splits 16 big-endian bytes into GUIDHigh and GUIDLow
func (r *Record) SetGUID(guid [16]byte) {
	r.GUIDHigh = int64(binary.BigEndian.Uint64(guid[:8]))
	r.GUIDLow = int64(binary.BigEndian.Uint64(guid[8:]))
}

func (r *Record) String() string {
	g := r.GUID()
	return fmt.Sprintf("repo %d '%s' (module: %d, parent: %d, owner: %d, guid: %x-%x-%x-%x-%x)",
		r.ID, r.Name, r.ModuleID, r.ParentModuleID, r.OwnerID, g[0:4], g[4:6], g[6:8], g[8:10], g[10:])
}
