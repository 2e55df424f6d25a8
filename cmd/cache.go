package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/skillmine/internal/contract"
	"github.com/huangsam/skillmine/internal/iocache"
	"github.com/huangsam/skillmine/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cacheConfig loads the cache backend settings without opening any store.
func cacheConfig() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(viper.GetString("cache-backend"))
	connStr := viper.GetString("cache-db-connect")
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr
	return nil
}

// cacheSetupWrapper opens the commit cache for cache commands (no run ledger).
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	if err := cacheConfig(); err != nil {
		return err
	}
	if err := iocache.InitStores(cfg.CacheBackend, cfg.CacheDBConnect, "", ""); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	return nil
}

// cacheCmd focused on cache management.
//
// Note: Cache subcommands use minimal initialization instead of the full
// sharedSetup used by build. This avoids repository validation for simple
// cache operations.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the per-commit git output cache",
	Long: `Manage the cache of per-commit numstat output that speeds up repeated builds.

Commit ids are immutable, so cached entries never go stale unless history is rewritten.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached data

Examples:
  skillmine cache status
  skillmine cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached git output",
	Long: `Delete all cached git output from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache table

Examples:
  skillmine cache clear

  # Clear MySQL cache (set connection string via env variable)
  SKILLMINE_CACHE_BACKEND=mysql SKILLMINE_CACHE_DB_CONNECT="..." skillmine cache clear`,
	PreRunE: func(_ *cobra.Command, _ []string) error { return cacheConfig() },
	Run: func(_ *cobra.Command, _ []string) {
		dbFile := contract.GetCacheDBFilePath()
		if cfg.CacheBackend == schema.SQLiteBackend && cfg.CacheDBConnect != "" {
			dbFile = cfg.CacheDBConnect
		}
		if err := iocache.ClearCache(cfg.CacheBackend, dbFile, cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show the backend, entry count, newest and oldest entries and storage size
of the commit cache.

Examples:
  skillmine cache status`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetCommitStore()
		if store == nil {
			contract.LogFatal("Failed to get cache status", fmt.Errorf("cache backend is not configured"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(os.Stdout, status)
	},
}
