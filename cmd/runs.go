package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/skillmine/internal/contract"
	"github.com/huangsam/skillmine/internal/iocache"
	"github.com/huangsam/skillmine/schema"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runsConfig loads the run ledger settings without opening the store, so
// migrations and clearing work on a fresh or broken database.
func runsConfig() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backendStr := viper.GetString("runs-backend")
	backend := lo.Ternary(backendStr == "", schema.NoneBackend, schema.DatabaseBackend(backendStr))
	connStr := viper.GetString("runs-db-connect")
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return fmt.Errorf("invalid runs backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.RunsBackend = backend
	cfg.RunsDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// runsSetupWrapper opens the run ledger for runs commands (no commit cache).
func runsSetupWrapper(_ *cobra.Command, _ []string) error {
	if err := runsConfig(); err != nil {
		return err
	}
	if err := iocache.InitStores("", "", cfg.RunsBackend, cfg.RunsDBConnect); err != nil {
		return fmt.Errorf("failed to initialize run ledger: %w", err)
	}
	return nil
}

// runsCmd focused on run ledger management.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage the ledger of build runs and repository outcomes",
	Long: `Manage the run ledger written by build when --runs-backend is set.

The ledger stores:
- One row per build run (start, end, duration, configuration)
- One row per repository outcome (state, users, duration, error)
- Per user, language and month line counts and significant contributions

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled, the default)

Subcommands:
  status  - Show ledger statistics
  clear   - Remove all ledger data
  export  - Write the ledger to Parquet files
  migrate - Move the ledger schema to a version`,
}

// runsClearCmd clears the run ledger.
var runsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all run ledger data",
	Long: `Delete all run ledger data, including the migration history.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the ledger tables

Examples:
  SKILLMINE_RUNS_BACKEND=sqlite skillmine runs clear`,
	PreRunE: func(_ *cobra.Command, _ []string) error { return runsConfig() },
	Run: func(_ *cobra.Command, _ []string) {
		dbFile := lo.Ternary(cfg.RunsDBConnect != "" && cfg.RunsBackend == schema.SQLiteBackend, cfg.RunsDBConnect, contract.GetRunsDBFilePath())
		if err := iocache.ClearRuns(cfg.RunsBackend, dbFile, cfg.RunsDBConnect); err != nil {
			contract.LogFatal("Failed to clear run ledger", err)
		}
		fmt.Println("Run ledger cleared successfully.")
	},
}

// runsStatusCmd shows run ledger status.
var runsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display run ledger statistics",
	Long: `Show the number of runs, the latest run, repository outcomes by failure and
the size of each ledger table.

Examples:
  skillmine runs status --runs-backend sqlite`,
	PreRunE: runsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetRunStore()
		if store == nil {
			contract.LogFatal("Failed to get run status", fmt.Errorf("runs backend is not configured"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get run status", err)
		}
		iocache.PrintRunStatus(os.Stdout, status)
	},
}

// runsExportCmd exports the ledger to Parquet.
var runsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the run ledger to Parquet files",
	Long: `Write the ledger to three Parquet files sharing the --output-file prefix:
<prefix>.runs.parquet, <prefix>.repo_outcomes.parquet and <prefix>.monthly_stats.parquet.

Examples:
  skillmine runs export --runs-backend sqlite --output-file ledger`,
	PreRunE: runsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExportRuns(os.Stdout, iocache.Manager.GetRunStore(), cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export run ledger", err)
		}
	},
}

// runsMigrateCmd moves the ledger schema.
var runsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back run ledger schema migrations",
	Long: `Move the run ledger schema to --target-version.

-1 applies every migration, 0 rolls everything back, any other value
migrates up or down to that version.

Examples:
  skillmine runs migrate --runs-backend sqlite
  skillmine runs migrate --runs-backend postgresql --target-version 2`,
	PreRunE: func(_ *cobra.Command, _ []string) error { return runsConfig() },
	Run: func(_ *cobra.Command, _ []string) {
		target := viper.GetInt("target-version")
		result, err := iocache.MigrateRuns(cfg.RunsBackend, cfg.RunsDBConnect, target)
		if err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
		if !result.Changed {
			fmt.Printf("Run ledger already at version %d.\n", result.To)
			return
		}
		fmt.Printf("Migrated run ledger from version %d to %d.\n", result.From, result.To)
	},
}
