package repostore

import (
	"bufio"
	"encoding/json"
	"io"
	"iter"
	"slices"

	"github.com/tidwall/pretty"
	"github.com/violetaGitHub/gitmastersamples/atomicfile"
	"github.com/violetaGitHub/gitmastersamples/log"
	"github.com/violetaGitHub/gitmastersamples/reporec"
)

func (s *Store) rewrite(recs iter.Seq[reporec.Record]) (int, error) {
	f, err := atomicfile.New(s.FileSystem(), s.Path)
	if err != nil {
		return 0, err
	}
	defer f.Cancel()

	w := bufio.NewWriter(f)
	var buf []byte
	n := 0
	if recs == nil {
		recs = func(func(reporec.Record) bool) {}
	}
	for rec := range recs {
		buf, err = reporec.AppendEncoded(buf[:0], &rec)
		if err != nil {
			return 0, err
		}
		if _, err = w.Write(buf); err != nil {
			return 0, err
		}
		n++
	}
	if err = w.Flush(); err != nil {
		return 0, err
	}
	return n, f.Close()
}

// Rewrite atomically replaces the content of the catalog file with recs.
// If any record can't be encoded or writing fails, the file is unchanged.
// nil recs leaves an empty file.
func (s *Store) Rewrite(recs iter.Seq[reporec.Record]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.rewrite(recs)
	return err
}

// Compact removes obsolete records: for every repository (see
// reporec.SameRepository) only the most recently appended record is kept.
// Kept records are ordered by when they were last appended.
// The file is rewritten atomically. A missing file stays missing.
func (s *Store) Compact() (kept int, dropped int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.ReadAll(nil)
	if err != nil {
		return 0, 0, err
	}
	if len(recs) == 0 {
		return 0, 0, nil
	}
	last := map[reporec.Identity]int{}
	for i := range recs {
		last[recs[i].Identity()] = i
	}
	var res []reporec.Record
	for i := range recs {
		if last[recs[i].Identity()] == i {
			res = append(res, recs[i])
		}
	}
	_, err = s.rewrite(slices.Values(res))
	if log.IfErrf(err, "repostore.Compact('%s') failed with '%s'", s.Path, err) {
		return 0, 0, err
	}
	kept = len(res)
	dropped = len(recs) - kept
	log.Event("repostore.compact", "path", s.Path, "kept", kept, "dropped", dropped)
	return kept, dropped, nil
}

// Dump writes all records as indented JSON array, for debugging
func (s *Store) Dump(w io.Writer) error {
	recs, err := s.ReadAll(nil)
	if err != nil {
		return err
	}
	if recs == nil {
		recs = []reporec.Record{}
	}
	d, err := json.Marshal(recs)
	if err != nil {
		return err
	}
	_, err = w.Write(pretty.Pretty(d))
	return err
}
