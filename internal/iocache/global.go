package iocache

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/huangsam/skillmine/internal/contract"
	"github.com/huangsam/skillmine/schema"
)

// commitTable is the name of the table holding cached per-commit git output.
const commitTable = "commit_cache"

// Global Manager instance for main logic.
var (
	Manager   = &CacheStoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// InitStores initializes the global manager with the commit cache and the run ledger.
// An empty backend leaves the corresponding store unset.
func InitStores(cacheBackend schema.DatabaseBackend, cacheConnStr string, runsBackend schema.DatabaseBackend, runsConnStr string) error {
	var initErr error

	initOnce.Do(func() {
		var (
			commits contract.CacheStore
			runs    contract.RunStore
			err     error
		)
		if cacheBackend != "" {
			commits, err = NewCacheStore(commitTable, cacheBackend, cacheConnStr)
			if err != nil {
				initErr = fmt.Errorf("failed to initialize commit cache: %w", err)
				return
			}
		}
		if runsBackend != "" {
			runs, err = NewRunStore(runsBackend, runsConnStr)
			if err != nil {
				if commits != nil {
					_ = commits.Close()
				}
				initErr = fmt.Errorf("failed to initialize run ledger: %w", err)
				return
			}
		}

		Manager.Lock()
		defer Manager.Unlock()
		Manager.commits = commits
		Manager.runs = runs
	})

	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() {
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.commits != nil {
			_ = Manager.commits.Close()
		}
		if Manager.runs != nil {
			_ = Manager.runs.Close()
		}
	})
}

// ClearCache removes the commit cache.
// SQLite deletes the database file, server backends drop the table.
func ClearCache(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		return removeDBFile(dbFilePath)
	case schema.MySQLBackend, schema.PostgreSQLBackend:
		return dropSQLTables(backend, connStr, commitTable)
	case schema.NoneBackend:
		return nil
	default:
		return fmt.Errorf("unsupported cache backend for clearing: %s", backend)
	}
}

// ClearRuns removes the run ledger, including the migration bookkeeping table.
func ClearRuns(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		return removeDBFile(dbFilePath)
	case schema.MySQLBackend, schema.PostgreSQLBackend:
		tables := append([]string{"schema_migrations"}, runTables...)
		return dropSQLTables(backend, connStr, tables...)
	case schema.NoneBackend:
		return nil
	default:
		return fmt.Errorf("unsupported runs backend for clearing: %s", backend)
	}
}

func removeDBFile(dbFilePath string) error {
	if dbFilePath == "" {
		return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
	}
	if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
	}
	return nil
}

// dropSQLTables connects to the server and drops each table if it exists.
func dropSQLTables(backend schema.DatabaseBackend, connStr string, tables ...string) error {
	db, err := openDB(backend, connStr, "")
	if err != nil {
		return err
	}
	defer func(db *sql.DB) { _ = db.Close() }(db)

	for _, table := range tables {
		if err := validateTableName(table); err != nil {
			return err
		}
		query := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTableName(table, backend))
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}
