package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadScoped(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("agent:\n  steps: 20\n"), 0o600))

	data, err := ReadScoped(path)
	require.NoError(t, err)
	assert.Equal(t, "agent:\n  steps: 20\n", string(data))
}

func TestReadScoped_Missing(t *testing.T) {
	_, err := ReadScoped(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestReadScoped_Traversal(t *testing.T) {
	dir := t.TempDir()
	secret := filepath.Join(dir, "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("keep out"), 0o600))
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o750))

	// Clean collapses the traversal before the root is opened, so the
	// read targets the parent file directly and still succeeds. A
	// symlink escaping the directory must fail instead.
	link := filepath.Join(sub, "link.yaml")
	require.NoError(t, os.Symlink(secret, link))
	_, err := ReadScoped(link)
	assert.Error(t, err)
}

func TestReadScoped_InvalidPath(t *testing.T) {
	_, err := ReadScoped("/")
	assert.Error(t, err)
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")
	require.NoError(t, EnsureDir(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Idempotent.
	require.NoError(t, EnsureDir(dir))
	require.NoError(t, EnsureDir(""))
	require.NoError(t, EnsureDir("."))
}
