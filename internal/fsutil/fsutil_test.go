package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePathExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	resolved, err := ResolvePath("~/Photos")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "Photos"), resolved)
}

func TestResolvePathRejectsEmpty(t *testing.T) {
	_, err := ResolvePath("")
	assert.Error(t, err)
}

func TestEnsureDirCreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")
	require.NoError(t, EnsureDir(dir))
	assert.True(t, DirExists(dir))
}

func TestFileExistsDistinguishesDirs(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "tag.json")
	require.NoError(t, os.WriteFile(file, []byte("{}"), 0o644))

	assert.True(t, FileExists(file))
	assert.False(t, FileExists(dir))
	assert.True(t, DirExists(dir))
	assert.False(t, DirExists(file))
}
