package atomicfile

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

var (
	// ErrCancelled is returned by calls subsequent to Cancel()
	ErrCancelled = errors.New("cancelled")

	_ io.WriteCloser = &File{}
)

// File is written to a temporary file in the destination directory
// and renamed to the destination path on successful Close().
// If anything fails, the temporary file is removed and the
// destination is left untouched.
type File struct {
	fs      afero.Fs
	dstPath string
	dir     string
	tmpFile afero.File
	tmpPath string
	// first error we encountered
	err error
}

// New creates a File that will atomically replace path in fs when closed.
// If fs is nil, uses the OS filesystem
func New(fs afero.Fs, path string) (*File, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	dir, name := filepath.Split(path)
	if name == "" {
		return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrInvalid}
	}
	if dir == "" {
		dir = "."
	}
	// creating temp file in the same directory fails early if
	// the destination can't be created and makes rename atomic
	tmpFile, err := afero.TempFile(fs, dir, name+".tmp")
	if err != nil {
		return nil, err
	}
	return &File{
		fs:      fs,
		dstPath: path,
		dir:     dir,
		tmpFile: tmpFile,
		tmpPath: tmpFile.Name(),
	}, nil
}

func (f *File) setErr(err error) error {
	if err == nil {
		return nil
	}
	if f.err == nil {
		f.err = err
	}
	_ = f.Close()
	return err
}

// Write writes to the temporary file
func (f *File) Write(d []byte) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	if f.tmpFile == nil {
		return 0, os.ErrClosed
	}
	n, err := f.tmpFile.Write(d)
	return n, f.setErr(err)
}

// Cancel removes the temporary file if we didn't Close
// the file yet. Destination file will not be touched.
// Meant to be used with defer, to clean up on early return or panic.
// Cancel after Close is a no-op.
func (f *File) Cancel() {
	if f == nil || f.tmpFile == nil {
		return
	}
	f.err = ErrCancelled
	_ = f.Close()
}

// Close syncs and closes the temporary file and renames it to
// destination path. Can be called multiple times, returns the
// first error encountered
func (f *File) Close() error {
	if f.tmpFile == nil {
		return f.err
	}
	tmpFile := f.tmpFile
	f.tmpFile = nil

	errSync := tmpFile.Sync()
	errClose := tmpFile.Close()

	renamed := false
	defer func() {
		if !renamed {
			_ = f.fs.Remove(f.tmpPath)
		}
	}()

	if f.err != nil {
		return f.err
	}
	err := errSync
	if err == nil {
		err = errClose
	}
	if err == nil {
		err = f.fs.Rename(f.tmpPath, f.dstPath)
		renamed = err == nil
	}
	if renamed {
		// best effort: persist the rename
		if d, _ := f.fs.Open(f.dir); d != nil {
			_ = d.Sync()
			_ = d.Close()
		}
	}
	f.err = err
	return err
}
