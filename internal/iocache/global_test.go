package iocache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/huangsam/skillmine/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetManager(t *testing.T) {
	t.Helper()
	initOnce = sync.Once{}
	closeOnce = sync.Once{}
	Manager = &CacheStoreManager{}
}

func TestInitStores(t *testing.T) {
	t.Run("sqlite", func(t *testing.T) {
		resetManager(t)
		dir := t.TempDir()
		cachePath := filepath.Join(dir, "cache.db")
		runsPath := filepath.Join(dir, "runs.db")

		require.NoError(t, InitStores(schema.SQLiteBackend, cachePath, schema.SQLiteBackend, runsPath))
		assert.NotNil(t, Manager.GetCommitStore())
		assert.NotNil(t, Manager.GetRunStore())

		// Repeated initialization is a no-op.
		require.NoError(t, InitStores(schema.NoneBackend, "", schema.NoneBackend, ""))
		status, err := Manager.GetCommitStore().GetStatus()
		require.NoError(t, err)
		assert.Equal(t, "sqlite", status.Backend)

		CloseStores()
		CloseStores()
		assert.FileExists(t, cachePath)
		assert.FileExists(t, runsPath)
	})

	t.Run("runs disabled", func(t *testing.T) {
		resetManager(t)
		require.NoError(t, InitStores(schema.NoneBackend, "", "", ""))
		assert.NotNil(t, Manager.GetCommitStore())
		assert.Nil(t, Manager.GetRunStore())
		CloseStores()
	})

	t.Run("bad backend", func(t *testing.T) {
		resetManager(t)
		err := InitStores(schema.DatabaseBackend("oracle"), "", "", "")
		assert.Error(t, err)
	})
}

func TestCacheStoreManagerConcurrency(t *testing.T) {
	mgr := &CacheStoreManager{commits: &CacheStoreImpl{backend: schema.NoneBackend}}
	var wg sync.WaitGroup
	for range 20 {
		wg.Go(func() {
			assert.NotNil(t, mgr.GetCommitStore())
			assert.Nil(t, mgr.GetRunStore())
		})
	}
	wg.Wait()
}

func TestClearStores(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.db")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	require.NoError(t, ClearCache(schema.SQLiteBackend, path, ""))
	assert.NoFileExists(t, path)
	// Missing files are fine.
	require.NoError(t, ClearCache(schema.SQLiteBackend, path, ""))
	require.NoError(t, ClearRuns(schema.SQLiteBackend, filepath.Join(dir, "runs.db"), ""))

	assert.Error(t, ClearCache(schema.SQLiteBackend, "", ""))
	assert.NoError(t, ClearCache(schema.NoneBackend, "", ""))
	assert.NoError(t, ClearRuns(schema.NoneBackend, "", ""))
	assert.Error(t, ClearRuns(schema.DatabaseBackend("oracle"), "", ""))
}
