package aesutils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// CreateDir creates a directory and all of its parents. A dangling symlink
// gets a more helpful error, as it usually means a volume is not mounted.
func CreateDir(dir string, perm fs.FileMode) error {
	err := os.MkdirAll(dir, perm)
	if err == nil {
		return nil
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) && os.IsExist(err) {
		link, lerr := os.Readlink(pathErr.Path)
		if lerr == nil {
			err = fmt.Errorf("is symlink %s -> %s mounted?",
				pathErr.Path, link)
		}
	}

	return fmt.Errorf("failed to create directory '%s': %w", dir, err)
}
