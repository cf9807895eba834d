// Package fsutil provides small filesystem helpers shared by the
// configuration and storage layers.
package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ReadScoped reads a file by opening a root at the file's directory,
// which confines the access and rejects path traversal.
func ReadScoped(path string) ([]byte, error) {
	cleaned := filepath.Clean(path)
	dir := filepath.Dir(cleaned)
	base := filepath.Base(cleaned)
	if base == "" || base == "." || base == string(filepath.Separator) {
		return nil, fmt.Errorf("invalid file path: %q", path)
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, err
	}
	defer root.Close()

	file, err := root.Open(base)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}

// EnsureDir creates dir and any missing parents with owner-only group
// access. A dir that already exists is left untouched.
func EnsureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o750)
}
