// Package cmd defines the command-line interface for skillmine.
package cmd

import (
	"github.com/huangsam/skillmine/internal/contract"
	"github.com/huangsam/skillmine/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(authorsCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the runs subcommands to the parent runs command
	runsCmd.AddCommand(runsClearCmd)
	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Commit cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("runs-backend", "", "Run ledger backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("runs-db-connect", "", "Database connection string for the run ledger (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().String("git-timeout", contract.DefaultGitTimeout.String(), "Timeout for each git invocation")
	rootCmd.PersistentFlags().String("input-path", "", "Directory whose immediate subdirectories are git repositories")
	rootCmd.PersistentFlags().String("repo-list", "", "File with one repository path per line")
	rootCmd.PersistentFlags().String("output-path", "", "Directory for checkpoints, profiles and the merged profile")
	rootCmd.PersistentFlags().String("authors", "", "Comma-separated author emails; 'self' means git config user.email")
	rootCmd.PersistentFlags().String("team", "", "Team name recorded in the merged profile")
	rootCmd.PersistentFlags().Int("num-years", contract.DefaultNumYears, "Lookback window in years")
	rootCmd.PersistentFlags().Int("min-months", contract.DefaultMinMonths, "Minimum distinct active months per author")
	rootCmd.PersistentFlags().Bool("compress-output", false, "Gzip the merged profile")
	rootCmd.PersistentFlags().String("pprof", "", "Enable profiling and write profiles to files with this prefix")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of buildCmd to Viper
	buildCmd.Flags().Int("parallel-mode", contract.NoParallel, "Partition index, -1 to claim every repository through touch files, -2 to disable")
	buildCmd.Flags().Int("partitions", contract.DefaultPartitions, "Number of partitions when parallel-mode is a partition index")
	buildCmd.Flags().Bool("skip-scoring", false, "Stop after raw statistics, leaving them in tmp-stats")
	buildCmd.Flags().Bool("start-from-tmp", false, "Score the raw statistics already in tmp-stats")
	buildCmd.Flags().Bool("keep-repo-name", false, "Do not anonymize repository names and paths")
	buildCmd.Flags().Bool("keep-private-data", false, "Keep code snippets and imports in the final profiles")
	buildCmd.Flags().String("filter-list", "", "TSV file of repo<TAB>user pairs to exclude")
	buildCmd.Flags().String("exclude", "", "Comma-separated doublestar patterns of paths to ignore")
	buildCmd.Flags().Bool("exclude-vendored", false, "Ignore vendored and generated paths")
	buildCmd.Flags().Bool("progress", false, "Show a progress bar over repositories")
	buildCmd.Flags().Int("batch-size", contract.DefaultBatchSize, "Inputs per classifier request")
	buildCmd.Flags().Int("skill-prediction-limit", contract.DefaultPredictionLimit, "Predictions kept per classifier input")
	buildCmd.Flags().String("profile-version", contract.DefaultProfileVersion, "Version stamped on each profile record")
	if err := viper.BindPFlags(buildCmd.Flags()); err != nil {
		contract.LogFatal("Error binding build flags", err)
	}

	authorsCmd.Flags().Int("limit", 0, "Number of authors to list (0 = all)")
	if err := viper.BindPFlags(authorsCmd.Flags()); err != nil {
		contract.LogFatal("Error binding authors flags", err)
	}

	// Bind all flags of runsMigrateCmd to Viper
	runsMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(runsMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding runs migrate flags", err)
	}
}
