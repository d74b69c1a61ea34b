package repostore

import (
	"bufio"
	"errors"
	"io"
	"iter"
	"os"
	"sync"

	"github.com/spf13/afero"
	"github.com/violetaGitHub/gitmastersamples/log"
	"github.com/violetaGitHub/gitmastersamples/reporec"
)

type Store struct {
	// path of the catalog file
	Path string
	// filesystem the catalog lives in. nil means OS filesystem
	Fs afero.Fs
	// if true, will call file.Sync() after every append
	SyncWrite bool

	// serializes writers within the process. Scans don't lock
	mu sync.Mutex
}

// New returns a Store for catalog file at path on the OS filesystem
func New(path string) *Store {
	return &Store{
		Path: path,
	}
}

// FileSystem returns the filesystem the catalog lives in
func (s *Store) FileSystem() afero.Fs {
	if s.Fs == nil {
		return afero.NewOsFs()
	}
	return s.Fs
}

func appendToFile(fs afero.Fs, path string, data []byte, sync bool) error {
	file, err := fs.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	_, err = file.Write(data)
	if err == nil && sync {
		err = file.Sync()
	}
	errClose := file.Close()
	if err != nil {
		return err
	}
	return errClose
}

// Append appends rec at the end of the catalog file, creating the file
// if needed. If rec can't be encoded (reporec.ErrEncoding), nothing is written.
func (s *Store) Append(rec *reporec.Record) error {
	d, err := reporec.Encode(rec)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err = appendToFile(s.FileSystem(), s.Path, d, s.SyncWrite); err != nil {
		return err
	}
	log.Verbosef("repostore: appended %s to '%s'\n", rec, s.Path)
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Records returns an iterator over all records in the file, in the order
// they were appended. Every range over the iterator reads the file again.
// Records are decoded as the iteration progresses so breaking out of the
// loop early skips decoding the rest.
// A missing file has no records and is not an error.
// Call the returned error function after iteration to check for errors.
// If the file ends with a partial record, all whole records are returned and
// the error is *reporec.TruncatedError with the offset of the partial record.
func (s *Store) Records() (iter.Seq[reporec.Record], func() error) {
	var iterErr error

	seq := func(yield func(reporec.Record) bool) {
		iterErr = nil
		file, err := s.FileSystem().Open(s.Path)
		if err != nil {
			if !os.IsNotExist(err) {
				iterErr = err
			}
			return
		}
		defer file.Close()

		cr := &countingReader{r: file}
		br := bufio.NewReader(cr)
		for {
			// position of the record within the file
			off := cr.n - int64(br.Buffered())
			var rec reporec.Record
			err = reporec.Decode(br, &rec)
			if err == io.EOF {
				return
			}
			if err != nil {
				var te *reporec.TruncatedError
				if errors.As(err, &te) {
					te.Offset = off
					log.Event("repostore.truncated", "path", s.Path, "offset", off, "field", te.Field)
				}
				iterErr = err
				return
			}
			if !yield(rec) {
				return
			}
		}
	}

	return seq, func() error { return iterErr }
}

// FindAll is like Records but only returns records matched by m.
// nil m matches all records.
func (s *Store) FindAll(m Matcher) (iter.Seq[reporec.Record], func() error) {
	records, errFn := s.Records()
	seq := func(yield func(reporec.Record) bool) {
		for rec := range records {
			if !matches(m, &rec) {
				continue
			}
			if !yield(rec) {
				return
			}
		}
	}
	return seq, errFn
}

// ReadAll returns all records matched by m, in file order.
// On error returns records read so far and the error.
func (s *Store) ReadAll(m Matcher) ([]reporec.Record, error) {
	var res []reporec.Record
	records, errFn := s.FindAll(m)
	for rec := range records {
		res = append(res, rec)
	}
	return res, errFn()
}

// FindFirst returns the first record matched by m.
// The bool is false if no record matches or the file doesn't exist, in which
// case returned record is reporec.Empty.
// Records after the first match are not read.
func (s *Store) FindFirst(m Matcher) (reporec.Record, bool, error) {
	records, errFn := s.FindAll(m)
	for rec := range records {
		return rec, true, nil
	}
	return reporec.Empty, false, errFn()
}
