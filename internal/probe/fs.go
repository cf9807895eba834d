package probe

import (
	"context"
	"os"
)

// Filesystem answers existence checks against the local filesystem.
// The zero value is ready to use.
type Filesystem struct{}

// FileExists reports whether path exists (file or directory, matching the
// semantics of a plain existence check).
func (Filesystem) FileExists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// DirectoryExists reports whether path exists and is a directory.
func (Filesystem) DirectoryExists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}
