package fileutil

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.json")

	require.NoError(t, WriteFileAtomic(path, []byte("[]\n"), 0o644))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(got))

	require.NoError(t, WriteFileAtomic(path, []byte("[{}]\n"), 0o644))
	got, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[{}]\n", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestWriteAtomicFailureKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.webp")
	require.NoError(t, os.WriteFile(path, []byte("original"), 0o644))

	err := WriteAtomic(path, 0o644, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return errors.New("encoder exploded")
	})
	require.Error(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "original", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "project.json")
	dst := filepath.Join(dir, "project.json.bak")
	require.NoError(t, os.WriteFile(src, []byte(`[{"name":"A"}]`), 0o600))

	require.NoError(t, CopyFile(src, dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, `[{"name":"A"}]`, string(got))
}

func TestExistsAndIsRegular(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.png")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	assert.True(t, Exists(file))
	assert.True(t, IsRegular(file))
	assert.True(t, Exists(dir))
	assert.False(t, IsRegular(dir))
	assert.False(t, Exists(filepath.Join(dir, "missing.png")))
}
