// Package snapshot saves and restores compressed copies of a repository
// catalog. Compression is picked based on file extension:
// .zst / .zstd for zstd and .br for brotli.
package snapshot

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"github.com/violetaGitHub/gitmastersamples/atomicfile"
	"github.com/violetaGitHub/gitmastersamples/log"
	"github.com/violetaGitHub/gitmastersamples/reporec"
	"github.com/violetaGitHub/gitmastersamples/repostore"
)

// ErrUnknownFormat is returned for snapshot paths with unsupported extension
var ErrUnknownFormat = errors.New("unknown snapshot format")

type format int

const (
	formatZstd format = iota + 1
	formatBrotli
)

func formatFromPath(path string) (format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".zst", ".zstd":
		return formatZstd, nil
	case ".br":
		return formatBrotli, nil
	}
	return 0, fmt.Errorf("%w: '%s'", ErrUnknownFormat, path)
}

func newCompressor(f format, w io.Writer) (io.WriteCloser, error) {
	if f == formatBrotli {
		return brotli.NewWriterLevel(w, brotli.BestCompression), nil
	}
	// zstd.SpeedBestCompression is much slower and not much better
	return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
}

func newDecompressor(f format, r io.Reader) (io.ReadCloser, error) {
	if f == formatBrotli {
		return io.NopCloser(brotli.NewReader(r)), nil
	}
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return zr.IOReadCloser(), nil
}

func writeSnapshot(s *repostore.Store, w io.Writer) (int, error) {
	records, errFn := s.Records()
	var buf []byte
	var err error
	n := 0
	for rec := range records {
		buf, err = reporec.AppendEncoded(buf[:0], &rec)
		if err != nil {
			return 0, err
		}
		if _, err = w.Write(buf); err != nil {
			return 0, err
		}
		n++
	}
	if err = errFn(); err != nil {
		return 0, err
	}
	return n, nil
}

func export(s *repostore.Store, dstPath string) (int, error) {
	f, err := formatFromPath(dstPath)
	if err != nil {
		return 0, err
	}
	af, err := atomicfile.New(s.FileSystem(), dstPath)
	if err != nil {
		return 0, err
	}
	defer af.Cancel()

	cw, err := newCompressor(f, af)
	if err != nil {
		return 0, err
	}
	n, err := writeSnapshot(s, cw)
	errClose := cw.Close()
	if err != nil {
		return 0, err
	}
	if errClose != nil {
		return 0, errClose
	}
	if err = af.Close(); err != nil {
		return 0, err
	}
	return n, nil
}

// Export writes all records of s, compressed, to dstPath in the same
// filesystem. dstPath is replaced atomically.
// A catalog with a truncated record is not exported.
// Returns number of exported records.
func Export(s *repostore.Store, dstPath string) (int, error) {
	n, err := export(s, dstPath)
	if log.IfErrf(err, "snapshot.Export('%s', '%s') failed with '%s'", s.Path, dstPath, err) {
		return 0, err
	}
	log.Event("snapshot.export", "catalog", s.Path, "snapshot", dstPath, "records", n)
	return n, nil
}

func readSnapshot(s *repostore.Store, srcPath string) ([]reporec.Record, error) {
	f, err := formatFromPath(srcPath)
	if err != nil {
		return nil, err
	}
	file, err := s.FileSystem().Open(srcPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	dr, err := newDecompressor(f, file)
	if err != nil {
		return nil, err
	}
	defer dr.Close()

	var res []reporec.Record
	br := bufio.NewReader(dr)
	for {
		var rec reporec.Record
		err = reporec.Decode(br, &rec)
		if err == io.EOF {
			return res, nil
		}
		if err != nil {
			return nil, fmt.Errorf("snapshot '%s' record %d: %w", srcPath, len(res), err)
		}
		res = append(res, rec)
	}
}

// Import replaces content of the catalog with records from snapshot
// at srcPath. The whole snapshot is decoded before the catalog is
// touched so a corrupted snapshot leaves the catalog unchanged.
// Returns number of imported records.
func Import(s *repostore.Store, srcPath string) (int, error) {
	recs, err := readSnapshot(s, srcPath)
	if err == nil {
		err = s.Rewrite(slices.Values(recs))
	}
	if log.IfErrf(err, "snapshot.Import('%s', '%s') failed with '%s'", s.Path, srcPath, err) {
		return 0, err
	}
	log.Event("snapshot.import", "catalog", s.Path, "snapshot", srcPath, "records", len(recs))
	return len(recs), nil
}
