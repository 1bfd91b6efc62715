package badger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "index")
	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
	assert.FileExists(t, filepath.Join(dir, manifestFile))
}

func TestOpenBackend_PathIsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("not a directory"), 0644))

	backend, err := OpenBackend(path, false)
	assert.Error(t, err)
	assert.Nil(t, backend)
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)

	assert.False(t, backend.IsClosed())

	err = backend.Close()
	require.NoError(t, err)

	assert.True(t, backend.IsClosed())
}

func TestWithTx(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	t.Run("write then read", func(t *testing.T) {
		err := backend.WithTx(func(tx *badger.Txn) error {
			if err := tx.Set([]byte("k"), []byte("v")); err != nil {
				return err
			}
			return tx.Commit()
		}, true)
		require.NoError(t, err)

		var got []byte
		err = backend.WithTx(func(tx *badger.Txn) error {
			item, err := tx.Get([]byte("k"))
			if err != nil {
				return err
			}
			got, err = item.ValueCopy(nil)
			return err
		}, false)
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), got)
	})

	t.Run("error discards writes", func(t *testing.T) {
		err := backend.WithTx(func(tx *badger.Txn) error {
			if err := tx.Set([]byte("discarded"), []byte("v")); err != nil {
				return err
			}
			return assert.AnError
		}, true)
		assert.Equal(t, assert.AnError, err)

		err = backend.WithTx(func(tx *badger.Txn) error {
			_, err := tx.Get([]byte("discarded"))
			return err
		}, false)
		assert.ErrorIs(t, err, badger.ErrKeyNotFound)
	})
}

func TestWriteBatch(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	wb := backend.NewWriteBatch()
	defer wb.Cancel()
	for i := 0; i < 100; i++ {
		require.NoError(t, wb.Set(makeChunkKey(i), []byte{byte(i)}))
	}
	require.NoError(t, wb.Flush())

	count := 0
	err = backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	require.NoError(t, err)
	assert.Equal(t, 100, count)
}

func TestMakeChunkKey_Ordering(t *testing.T) {
	// Big-endian encoding keeps lexical key order equal to numeric order.
	assert.Less(t, string(makeChunkKey(1)), string(makeChunkKey(2)))
	assert.Less(t, string(makeChunkKey(255)), string(makeChunkKey(256)))
	assert.Less(t, string(makeChunkKey(9)), string(makeChunkKey(10)))
}
