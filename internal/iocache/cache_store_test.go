package iocache

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huangsam/skillmine/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCacheStore(t *testing.T) *CacheStoreImpl {
	t.Helper()
	store, err := NewCacheStore(commitTable, schema.SQLiteBackend, filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store.(*CacheStoreImpl)
}

func TestCacheStoreSetGet(t *testing.T) {
	store := newTestCacheStore(t)

	_, _, _, err := store.Get("numstat:missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, store.Set("numstat:abc", []byte("3\t1\ta.py\n"), 1, 1700000000))
	value, version, ts, err := store.Get("numstat:abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("3\t1\ta.py\n"), value)
	assert.Equal(t, 1, version)
	assert.Equal(t, int64(1700000000), ts)

	// Overwrite
	require.NoError(t, store.Set("numstat:abc", []byte("5\t0\tb.py\n"), 2, 1700000100))
	value, version, _, err = store.Get("numstat:abc")
	require.NoError(t, err)
	assert.Equal(t, "5\t0\tb.py\n", string(value))
	assert.Equal(t, 2, version)
}

func TestCacheStoreGetStatus(t *testing.T) {
	store := newTestCacheStore(t)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Zero(t, status.TotalEntries)

	require.NoError(t, store.Set("a", []byte("x"), 1, 100))
	require.NoError(t, store.Set("b", []byte("y"), 1, 300))

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalEntries)
	assert.Equal(t, int64(300), status.LastEntryTime.Unix())
	assert.Equal(t, int64(100), status.OldestEntryTime.Unix())
	assert.Positive(t, status.TableSizeBytes)
}

func TestCacheStoreNoneBackend(t *testing.T) {
	store, err := NewCacheStore(commitTable, schema.NoneBackend, "")
	require.NoError(t, err)

	_, _, _, err = store.Get("k")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, store.Set("k", []byte("v"), 1, 1))

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestNewCacheStoreErrors(t *testing.T) {
	_, err := NewCacheStore("bad-name", schema.SQLiteBackend, "")
	assert.Error(t, err)

	_, err = NewCacheStore(commitTable, schema.DatabaseBackend("oracle"), "")
	assert.Error(t, err)
}

func TestCreateCacheTableQuery(t *testing.T) {
	tests := []struct {
		backend schema.DatabaseBackend
		want    string
	}{
		{schema.MySQLBackend, "MEDIUMBLOB"},
		{schema.PostgreSQLBackend, "BYTEA"},
		{schema.SQLiteBackend, "BLOB"},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			q := createCacheTableQuery(commitTable, tt.backend)
			assert.Contains(t, q, tt.want)
			assert.True(t, strings.Contains(q, "cache_key"))
		})
	}
}

func TestUpsertQuery(t *testing.T) {
	mysqlStore := &CacheStoreImpl{tableName: commitTable, backend: schema.MySQLBackend}
	assert.Contains(t, mysqlStore.upsertQuery(), "ON DUPLICATE KEY UPDATE")
	pgStore := &CacheStoreImpl{tableName: commitTable, backend: schema.PostgreSQLBackend}
	assert.Contains(t, pgStore.upsertQuery(), "ON CONFLICT (cache_key)")
	liteStore := &CacheStoreImpl{tableName: commitTable, backend: schema.SQLiteBackend}
	assert.Contains(t, liteStore.upsertQuery(), "INSERT OR REPLACE")
}
