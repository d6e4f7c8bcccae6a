package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	root := filepath.Join(t.TempDir(), "uploads")

	store, err := New(root)
	require.NoError(t, err)

	info, err := os.Stat(store.Root())
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = New("")
	assert.ErrorIs(t, err, ErrRootEmpty)
}

func TestSaveAndRemove(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	content := "hello document"

	path, size, err := store.Save(strings.NewReader(content), "report.PDF")
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), size)
	assert.True(t, strings.HasPrefix(path, store.Root()))
	assert.True(t, strings.HasSuffix(path, ".pdf"), "extension is kept, lowercased")

	stored, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(stored))

	assert.True(t, store.Exists(path))

	require.NoError(t, store.Remove(path))
	assert.False(t, store.Exists(path))

	// removing an already removed file is a no-op
	require.NoError(t, store.Remove(path))
}

func TestSave_StrangeExtension(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	path, _, err := store.Save(strings.NewReader("x"), "weird.name.pd f")
	require.NoError(t, err)

	base := filepath.Base(path)
	assert.NotContains(t, base, " ")
	assert.NotContains(t, base, "..")
}

func TestSave_UniqueNames(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	first, _, err := store.Save(strings.NewReader("a"), "same.txt")
	require.NoError(t, err)

	second, _, err := store.Save(strings.NewReader("b"), "same.txt")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestRemove_OutsideRoot(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	other := filepath.Join(t.TempDir(), "victim.txt")
	require.NoError(t, os.WriteFile(other, []byte("keep me"), 0o600))

	assert.ErrorIs(t, store.Remove(other), ErrOutsideRoot)
	assert.False(t, store.Exists(other))

	// the file outside the root is untouched
	_, err = os.Stat(other)
	assert.NoError(t, err)
}
