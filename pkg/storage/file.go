package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	errs "pagegrab/pkg/errors"
)

// WriteFile streams r into path. Data lands in a temporary file next to the
// destination and is renamed into place, so readers never observe a partial
// image. An existing file at path is replaced.
func WriteFile(path string, r io.Reader) (int64, error) {
	out, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, errs.Wrap(errs.KindFileWrite, err, "failed to create temporary file").WithURL(path)
	}
	tempFile := out.Name()

	n, err := io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return n, errs.Wrap(errs.KindFileWrite, err, "failed to write image data").WithURL(path)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return n, errs.Wrap(errs.KindFileWrite, closeErr, "failed to close file").WithURL(path)
	}

	if err := os.Chmod(tempFile, 0644); err != nil {
		os.Remove(tempFile)
		return n, errs.Wrap(errs.KindFileWrite, err, "failed to set file mode").WithURL(path)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return n, errs.Wrap(errs.KindFileWrite, fmt.Errorf("rename %s: %w", tempFile, err), "failed to move file into place").WithURL(path)
	}

	return n, nil
}
