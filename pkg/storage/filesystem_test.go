package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageReadWrite(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Read("allStudentRequests")
	require.ErrorIs(t, err, ErrNotExist)

	require.NoError(t, store.Write("allStudentRequests", []byte(`[]`)))
	require.NoError(t, store.Write("allStudentRequests", []byte(`[{"id":"a"}]`)))

	data, err := store.Read("allStudentRequests")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"a"}]`, string(data))

	_, err = store.Read("otherKey")
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestLocalStorageSanitisesKeys(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	require.NoError(t, store.Write("../escape", []byte("x")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".._escape.json", entries[0].Name())
	_, err = os.Stat(filepath.Join(filepath.Dir(dir), "escape.json"))
	assert.True(t, os.IsNotExist(err))
}
