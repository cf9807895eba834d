package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/hugo-lorenzo-mato/aideconf/internal/fsutil"
)

// AtomicWrite writes data to a file atomically. A crash mid-write never
// leaves a truncated configuration file behind.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := fsutil.EnsureDir(dir); err != nil {
		return err
	}

	perm := os.FileMode(0o600)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	return renameio.WriteFile(path, data, perm)
}

// CalculateETag returns a quoted strong ETag for content.
func CalculateETag(content []byte) string {
	sum := sha256.Sum256(content)
	return fmt.Sprintf("%q", hex.EncodeToString(sum[:]))
}
