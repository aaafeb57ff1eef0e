package filesystem

import (
	"fmt"
	"io/fs"
)

func errNoBackend(path string) error {
	return fmt.Errorf("no filesystem backend for %s: %w", path, fs.ErrNotExist)
}

func errOutsideRoot(path, root string) error {
	return fmt.Errorf("%s is outside %s: %w", path, root, fs.ErrPermission)
}
