package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/huangsam/skillmine/internal/contract"
	"github.com/huangsam/skillmine/internal/iocache"
	"github.com/huangsam/skillmine/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// pprofPrefix is the file prefix for CPU and heap profiles, empty when disabled.
var pprofPrefix string

// cacheManager is the global persistence manager instance.
var cacheManager contract.CacheManager

// startProfiling starts CPU profiling if enabled.
func startProfiling() error {
	if pprofPrefix == "" {
		return nil
	}
	cpuFile, err := os.Create(pprofPrefix + ".cpu.prof")
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(cpuFile); err != nil {
		_ = cpuFile.Close()
		return fmt.Errorf("could not start CPU profile: %w", err)
	}
	return nil
}

// stopProfiling stops profiling and writes the heap profile.
func stopProfiling() error {
	if pprofPrefix == "" {
		return nil
	}
	pprof.StopCPUProfile()

	memFile, err := os.Create(pprofPrefix + ".mem.prof")
	if err != nil {
		return fmt.Errorf("could not create memory profile: %w", err)
	}
	defer func() { _ = memFile.Close() }()

	if err := pprof.WriteHeapProfile(memFile); err != nil {
		return fmt.Errorf("could not write memory profile: %w", err)
	}
	_, err = fmt.Fprintf(os.Stderr, "Profiling complete. Use 'go tool pprof %s.cpu.prof' to analyze.\n", pprofPrefix)
	return err
}

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:   "skillmine",
	Short: "Mine Git history into per-developer skill profiles.",
	Long: `Skillmine walks the commit history of many repositories, measures what each
author contributed per language and month, optionally scores the significant
snippets with external skill classifiers, and merges everything into profiles.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig sets up the config file lookup, ENV variables and defaults.
func initConfig() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".skillmine") // Name of config file (without extension)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	viper.SetEnvPrefix("SKILLMINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("color", "yes")
	viper.SetDefault("cache-backend", schema.SQLiteBackend)
	viper.SetDefault("cache-db-connect", "")
	viper.SetDefault("runs-backend", "")
	viper.SetDefault("runs-db-connect", "")
	viper.SetDefault("log-level", "info")
	viper.SetDefault("log-format", "text")
	viper.SetDefault("num-years", contract.DefaultNumYears)
	viper.SetDefault("min-months", contract.DefaultMinMonths)
	viper.SetDefault("parallel-mode", contract.NoParallel)
	viper.SetDefault("partitions", contract.DefaultPartitions)
	viper.SetDefault("batch-size", contract.DefaultBatchSize)
	viper.SetDefault("skill-prediction-limit", contract.DefaultPredictionLimit)
	viper.SetDefault("profile-version", contract.DefaultProfileVersion)
}

// sharedSetup unmarshals config and runs validation.
func sharedSetup(ctx context.Context, _ *cobra.Command, _ []string) error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// Run all validation and complex parsing; this populates the global cfg.
	client := contract.NewLocalGitClient(contract.DefaultGitTimeout)
	if err := contract.ProcessAndValidate(ctx, cfg, client, input); err != nil {
		return err
	}
	if err := contract.ConfigureLogger(os.Stderr, cfg.LogFormat, cfg.LogLevel); err != nil {
		return err
	}

	pprofPrefix = strings.TrimSpace(viper.GetString("pprof"))
	if err := startProfiling(); err != nil {
		return fmt.Errorf("failed to start profiling: %w", err)
	}

	// Initialize persistence layer with validated config
	if err := iocache.InitStores(cfg.CacheBackend, cfg.CacheDBConnect, cfg.RunsBackend, cfg.RunsDBConnect); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}
	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// loadConfigFile reads the config file if present and applies the logging flags.
func loadConfigFile() error {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return contract.ConfigureLogger(os.Stderr, viper.GetString("log-format"), viper.GetString("log-level"))
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	rootCtx = ctx
	return rootCmd.ExecuteContext(ctx)
}

// SetCacheManager sets the global cache manager.
func SetCacheManager(mgr contract.CacheManager) {
	cacheManager = mgr
}

// StopProfiling stops profiling if enabled.
func StopProfiling() error {
	return stopProfiling()
}
