package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveTempOpenDelete(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := store.SaveTemp("scans", ".csv", []byte("id,barcode\n"))
	require.NoError(t, err)
	assert.Equal(t, ".csv", filepath.Ext(name))

	f, err := store.Open(name)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, store.Delete(name))
	_, err = store.Open(name)
	assert.Error(t, err)

	// deleting twice is not an error
	assert.NoError(t, store.Delete(name))
}

func TestResolveStaysInsideBaseDir(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	path, err := store.Path("../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.baseDir, "etc", "passwd"), path)
}

func TestCleanupOlderThan(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	oldName, err := store.SaveTemp("old", ".pdf", []byte("x"))
	require.NoError(t, err)
	freshName, err := store.SaveTemp("fresh", ".pdf", []byte("y"))
	require.NoError(t, err)

	oldPath, err := store.Path(oldName)
	require.NoError(t, err)
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(oldPath, past, past))

	deleted, err := store.CleanupOlderThan(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{oldName}, deleted)

	freshPath, err := store.Path(freshName)
	require.NoError(t, err)
	_, err = os.Stat(freshPath)
	assert.NoError(t, err)
}
