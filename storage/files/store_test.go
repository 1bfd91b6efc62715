package files

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveAndOpen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "files")
	store, err := NewStore(dir)
	require.NoError(t, err)
	assert.DirExists(t, dir)

	path, size, err := store.Save(3, "report.pdf", strings.NewReader("%PDF-1.4 hello"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "3-report.pdf"), path)
	assert.Equal(t, int64(14), size)

	f, err := store.Open(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, int64(14), f.Size())

	buf := make([]byte, 5)
	_, err = f.ReadAt(buf, 9)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf))
}

func TestStore_SaveStripsDirectories(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	path, _, err := store.Save(1, "../../etc/evil.pdf", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.Dir(), "1-evil.pdf"), path)

	path, _, err = store.Save(2, `C:\Users\me\doc.pdf`, strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.Dir(), "2-doc.pdf"), path)
}

func TestStore_SaveEmptyName(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = store.Save(1, "", strings.NewReader("x"))
	assert.ErrorIs(t, err, core.ErrEmptyFilename)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestStore_SaveReadError(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = store.Save(1, "a.pdf", io.MultiReader(strings.NewReader("partial"), failingReader{}))
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(store.Dir(), "1-a.pdf"))
}

func TestStore_OpenMissing(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Open(filepath.Join(store.Dir(), "missing.pdf"))
	assert.ErrorIs(t, err, storage.ErrFileNotFound)
	assert.NotErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_Remove(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	path, _, err := store.Save(1, "a.pdf", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, store.Remove(path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Remove(path))
	assert.NoError(t, store.Remove(""))
}
