/*
Package atomicfile writes files so that readers see either the old or
the new content, never a partially written file.

Data is written to a temporary file next to the destination. Close()
syncs it and renames it over the destination. If Write() or Close()
fails, or Cancel() is called, the temporary file is removed.

	func writeCatalog(fs afero.Fs, path string, d []byte) error {
		w, err := atomicfile.New(fs, path)
		if err != nil {
			return err
		}
		// no-op after a successful Close()
		defer w.Cancel()

		if _, err = w.Write(d); err != nil {
			return err
		}
		return w.Close()
	}

The filesystem is an afero.Fs so that the same code works on disk
and in memory (in tests).
*/
package atomicfile
