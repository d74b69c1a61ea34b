package repostore

import "github.com/violetaGitHub/gitmastersamples/reporec"

// Matcher decides if a record should be returned by FindAll / FindFirst.
// A nil Matcher matches all records.
type Matcher interface {
	Matches(rec *reporec.Record) bool
}

// MatchFunc adapts a function to Matcher. nil MatchFunc matches everything.
type MatchFunc func(rec *reporec.Record) bool

func (f MatchFunc) Matches(rec *reporec.Record) bool {
	if f == nil {
		return true
	}
	return f(rec)
}

type matchAll struct{}

func (matchAll) Matches(*reporec.Record) bool { return true }

type byID uint32

func (id byID) Matches(rec *reporec.Record) bool {
	return rec.ID == uint32(id)
}

type byName string

func (name byName) Matches(rec *reporec.Record) bool {
	return rec.Name == string(name)
}

type byIdentity reporec.Identity

func (id byIdentity) Matches(rec *reporec.Record) bool {
	return rec.Identity() == reporec.Identity(id)
}

// All matches every record
func All() Matcher {
	return matchAll{}
}

// ByID matches records with a given ID
func ByID(id uint32) Matcher {
	return byID(id)
}

// ByName matches records whose Name is exactly name.
// Comparison is case-sensitive, no normalization is done.
func ByName(name string) Matcher {
	return byName(name)
}

// ByIdentity matches records describing the same repository as rec
// i.e. with the same ID and GUID. See reporec.SameRepository
func ByIdentity(rec *reporec.Record) Matcher {
	return byIdentity(rec.Identity())
}

func matches(m Matcher, rec *reporec.Record) bool {
	return m == nil || m.Matches(rec)
}
