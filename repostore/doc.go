// Package repostore stores a catalog of repository records in a single
// append-only file.
//
// # File format
//
// The file is a concatenation of records encoded with package reporec.
// There's no header and no separator. A missing file is the same as
// an empty catalog.
//
// # Basic Usage
//
//	s := repostore.New("repositories.bin")
//	rec := reporec.Record{ID: 1, Name: "repo-a", GUIDLow: 5}
//	err := s.Append(&rec)
//
//	// all records, in the order they were appended
//	records, errFn := s.Records()
//	for rec := range records {
//	    // ...
//	}
//	if err := errFn(); err != nil {
//	    // ...
//	}
//
//	// only the first match
//	rec, found, err := s.FindFirst(repostore.ByName("repo-a"))
//
//	// all matches
//	recs, err := s.ReadAll(repostore.ByID(1))
//
// Records are never updated in place. To change a record, append a new
// version. Compact() drops old versions of the same repository.
//
// # Thread Safety
//
// Append, Rewrite and Compact on the same Store are serialized with a mutex.
// Nothing protects the file from other processes or other Store values
// with the same Path: a scan that races with an append might see a partial
// record at the end of the file and fail with reporec.ErrTruncatedRecord.
package repostore
