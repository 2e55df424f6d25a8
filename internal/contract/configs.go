package contract

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/skillmine/schema"
	"github.com/samber/lo"
)

// Default values for configuration.
const (
	DefaultMinLinesAdded            = 5
	DefaultSigContributionLineLimit = 10
	DefaultReformatCharLimit        = 10
	DefaultTooBigToAnalyzeLimit     = 10000 // characters per diff section
	DefaultMaxDiffSize              = 5000  // added lines per commit
	DefaultMinSnippetLines          = 10
	DefaultChunkCharLimit           = 768
	DefaultMinChunkCharLimit        = 50
	DefaultMinMonths                = 3
	DefaultNumYears                 = 5
	DefaultPredictionLimit          = 3
	DefaultBatchSize                = 20
	DefaultPartitions               = 2
	DefaultGitTimeout               = 5 * time.Minute
	DefaultProfileVersion           = "1.0"
	KillSwitchInterval              = 10 // repositories between kill switch checks

	// AllPartitions claims repositories through touch files without hash partitioning.
	AllPartitions = -1

	// NoParallel disables touch files and partitioning entirely.
	NoParallel = -2

	// SelfAuthor is replaced by the configured git user.email.
	SelfAuthor = "self"
)

// ErrMissingInput is returned when a command needs repositories and none were given.
var ErrMissingInput = errors.New("either --input-path or --repo-list is required")

// ErrMissingOutput is returned when a command needs an output directory and none was given.
var ErrMissingOutput = errors.New("--output-path is required")

// Thresholds are the fixed numeric limits of the significance pipeline.
type Thresholds struct {
	MinLinesAdded            int
	SigContributionLineLimit int
	ReformatCharLimit        int
	TooBigToAnalyzeLimit     int
	MaxDiffSize              int
	MinSnippetLines          int
	ChunkCharLimit           int
	MinChunkCharLimit        int
}

// DefaultThresholds returns the thresholds used when nothing is configured.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinLinesAdded:            DefaultMinLinesAdded,
		SigContributionLineLimit: DefaultSigContributionLineLimit,
		ReformatCharLimit:        DefaultReformatCharLimit,
		TooBigToAnalyzeLimit:     DefaultTooBigToAnalyzeLimit,
		MaxDiffSize:              DefaultMaxDiffSize,
		MinSnippetLines:          DefaultMinSnippetLines,
		ChunkCharLimit:           DefaultChunkCharLimit,
		MinChunkCharLimit:        DefaultMinChunkCharLimit,
	}
}

// ModelConfig describes one external classifier.
type ModelConfig struct {
	Name     string           `mapstructure:"name"`
	Type     schema.ModelType `mapstructure:"type"`
	Command  []string         `mapstructure:"command"`
	MinScore float64          `mapstructure:"min_score"`
}

// Tag is the key under which the model's scores are stored in a month bucket.
func (m ModelConfig) Tag() string {
	return string(m.Type) + "::" + m.Name
}

// Config holds the runtime configuration for a run.
// This struct remains the "final, validated" config.
type Config struct {
	InputPath  string
	RepoList   string
	OutputPath string

	Authors        []string
	Team           string
	LookbackMonths int
	MinMonths      int

	Partition       int // NoParallel, AllPartitions or 0..Partitions-1
	Partitions      int
	SkipScoring     bool
	StartFromTmp    bool
	KeepRepoName    bool
	KeepPrivateData bool
	CompressOutput  bool
	FilterList      string
	Excludes        []string // doublestar patterns
	ExcludeVendored bool
	Progress        bool

	Thresholds      Thresholds
	Models          []ModelConfig
	BatchSize       int
	PredictionLimit int
	ProfileVersion  string
	GitTimeout      time.Duration

	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	RunsBackend   schema.DatabaseBackend
	RunsDBConnect string // Please use env var as this is plaintext

	LogLevel  string
	LogFormat string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	Output         string `mapstructure:"output"`
	OutputFile     string `mapstructure:"output-file"`
	Width          int    `mapstructure:"width"`
	Color          string `mapstructure:"color"`
	CacheBackend   string `mapstructure:"cache-backend"`
	CacheDBConnect string `mapstructure:"cache-db-connect"`
	RunsBackend    string `mapstructure:"runs-backend"`
	RunsDBConnect  string `mapstructure:"runs-db-connect"`
	LogLevel       string `mapstructure:"log-level"`
	LogFormat      string `mapstructure:"log-format"`
	GitTimeout     string `mapstructure:"git-timeout"`

	// --- Fields shared by build, merge, authors ---
	InputPath  string `mapstructure:"input-path"`
	RepoList   string `mapstructure:"repo-list"`
	OutputPath string `mapstructure:"output-path"`
	Authors    string `mapstructure:"authors"`
	Team       string `mapstructure:"team"`
	NumYears   int    `mapstructure:"num-years"`
	MinMonths  int    `mapstructure:"min-months"`

	// --- Fields from buildCmd.Flags() ---
	ParallelMode    int    `mapstructure:"parallel-mode"`
	Partitions      int    `mapstructure:"partitions"`
	SkipScoring     bool   `mapstructure:"skip-scoring"`
	StartFromTmp    bool   `mapstructure:"start-from-tmp"`
	KeepRepoName    bool   `mapstructure:"keep-repo-name"`
	KeepPrivateData bool   `mapstructure:"keep-private-data"`
	CompressOutput  bool   `mapstructure:"compress-output"`
	FilterList      string `mapstructure:"filter-list"`
	Exclude         string `mapstructure:"exclude"`
	ExcludeVendored bool   `mapstructure:"exclude-vendored"`
	Progress        bool   `mapstructure:"progress"`
	BatchSize       int    `mapstructure:"batch-size"`
	PredictionLimit int    `mapstructure:"skill-prediction-limit"`
	ProfileVersion  string `mapstructure:"profile-version"`

	// --- Thresholds ---
	MinLinesAdded            int `mapstructure:"min-lines-added"`
	SigContributionLineLimit int `mapstructure:"sig-contribution-line-limit"`
	ReformatCharLimit        int `mapstructure:"reformat-char-limit"`
	TooBigToAnalyzeLimit     int `mapstructure:"too-big-to-analyze-limit"`
	MaxDiffSize              int `mapstructure:"max-diff-size"`
	MinSnippetLines          int `mapstructure:"min-snippet-lines"`
	ChunkCharLimit           int `mapstructure:"chunk-char-limit"`
	MinChunkCharLimit        int `mapstructure:"min-chunk-char-limit"`

	// --- Classifiers from config file ---
	Models []ModelConfig `mapstructure:"models"`
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processThresholds(cfg, input); err != nil {
		return err
	}
	if err := processModels(cfg, input); err != nil {
		return err
	}
	if err := resolveAuthors(ctx, cfg, client, input); err != nil {
		return err
	}
	return nil
}

// RequireRepos reports an error when no repository source was configured.
func (c *Config) RequireRepos() error {
	if c.InputPath == "" && c.RepoList == "" && !c.StartFromTmp {
		return ErrMissingInput
	}
	return nil
}

// RequireOutput reports an error when no output directory was configured.
func (c *Config) RequireOutput() error {
	if c.OutputPath == "" {
		return ErrMissingOutput
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and run ledger backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	cfg.RunsBackend = schema.DatabaseBackend(strings.ToLower(input.RunsBackend))
	if cfg.RunsBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.RunsBackend]; !ok {
		return fmt.Errorf("invalid runs backend '%s'. must be sqlite, mysql, postgresql, none", input.RunsBackend)
	}
	cfg.RunsDBConnect = input.RunsDBConnect
	if err := ValidateDatabaseConnectionString(cfg.RunsBackend, cfg.RunsDBConnect); err != nil {
		return err
	}

	// Both stores live in separate SQLite files
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.RunsBackend == schema.SQLiteBackend {
		cachePath := lo.Ternary(cfg.CacheDBConnect != "", cfg.CacheDBConnect, GetCacheDBFilePath())
		runsPath := lo.Ternary(cfg.RunsDBConnect != "", cfg.RunsDBConnect, GetRunsDBFilePath())
		if cachePath == runsPath {
			return fmt.Errorf("cache and runs storage must use different SQLite database files. Both resolve to %q", cachePath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates all non-threshold fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.InputPath = strings.TrimSpace(input.InputPath)
	cfg.RepoList = strings.TrimSpace(input.RepoList)
	cfg.OutputPath = strings.TrimSpace(input.OutputPath)
	cfg.Team = strings.TrimSpace(input.Team)
	cfg.SkipScoring = input.SkipScoring
	cfg.StartFromTmp = input.StartFromTmp
	cfg.KeepRepoName = input.KeepRepoName
	cfg.KeepPrivateData = input.KeepPrivateData
	cfg.CompressOutput = input.CompressOutput
	cfg.FilterList = input.FilterList
	cfg.ExcludeVendored = input.ExcludeVendored
	cfg.Progress = input.Progress
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.LogLevel = lo.Ternary(input.LogLevel != "", input.LogLevel, "info")
	cfg.LogFormat = lo.Ternary(input.LogFormat != "", input.LogFormat, "text")
	cfg.ProfileVersion = lo.Ternary(input.ProfileVersion != "", input.ProfileVersion, DefaultProfileVersion)

	colors, err := ParseBoolString(lo.Ternary(input.Color != "", input.Color, "yes"))
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.NumYears <= 0 {
		return fmt.Errorf("num-years must be greater than 0 (received %d)", input.NumYears)
	}
	cfg.LookbackMonths = input.NumYears * 12

	if input.MinMonths < 0 {
		return fmt.Errorf("min-months cannot be negative (received %d)", input.MinMonths)
	}
	cfg.MinMonths = input.MinMonths

	cfg.Partitions = input.Partitions
	if cfg.Partitions <= 0 {
		return fmt.Errorf("partitions must be greater than 0 (received %d)", input.Partitions)
	}
	if input.ParallelMode != AllPartitions && input.ParallelMode != NoParallel && (input.ParallelMode < 0 || input.ParallelMode >= cfg.Partitions) {
		return fmt.Errorf("parallel-mode must be -2 (off), -1 (all) or between 0 and %d (received %d)", cfg.Partitions-1, input.ParallelMode)
	}
	cfg.Partition = input.ParallelMode

	if input.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0 (received %d)", input.BatchSize)
	}
	cfg.BatchSize = input.BatchSize

	if input.PredictionLimit <= 0 {
		return fmt.Errorf("skill-prediction-limit must be greater than 0 (received %d)", input.PredictionLimit)
	}
	cfg.PredictionLimit = input.PredictionLimit

	cfg.GitTimeout = DefaultGitTimeout
	if input.GitTimeout != "" {
		d, err := time.ParseDuration(input.GitTimeout)
		if err != nil {
			return fmt.Errorf("invalid git-timeout %q: %w", input.GitTimeout, err)
		}
		if d < 0 {
			return fmt.Errorf("git-timeout cannot be negative (received %s)", d)
		}
		cfg.GitTimeout = d
	}

	cfg.Output = schema.OutputMode(strings.ToLower(lo.Ternary(input.Output != "", input.Output, string(schema.TextOut))))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", cfg.Output)
	}

	if cfg.StartFromTmp && cfg.OutputPath == "" {
		return fmt.Errorf("--start-from-tmp requires --output-path")
	}

	cfg.Excludes = nil
	for p := range strings.SplitSeq(input.Exclude, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			cfg.Excludes = append(cfg.Excludes, trimmed)
		}
	}
	return nil
}

// processThresholds copies the numeric limits, falling back to defaults for unset values.
func processThresholds(cfg *Config, input *ConfigRawInput) error {
	def := DefaultThresholds()
	pick := func(v, d int) int { return lo.Ternary(v > 0, v, d) }
	cfg.Thresholds = Thresholds{
		MinLinesAdded:            pick(input.MinLinesAdded, def.MinLinesAdded),
		SigContributionLineLimit: pick(input.SigContributionLineLimit, def.SigContributionLineLimit),
		ReformatCharLimit:        pick(input.ReformatCharLimit, def.ReformatCharLimit),
		TooBigToAnalyzeLimit:     pick(input.TooBigToAnalyzeLimit, def.TooBigToAnalyzeLimit),
		MaxDiffSize:              pick(input.MaxDiffSize, def.MaxDiffSize),
		MinSnippetLines:          pick(input.MinSnippetLines, def.MinSnippetLines),
		ChunkCharLimit:           pick(input.ChunkCharLimit, def.ChunkCharLimit),
		MinChunkCharLimit:        pick(input.MinChunkCharLimit, def.MinChunkCharLimit),
	}
	if cfg.Thresholds.MinChunkCharLimit >= cfg.Thresholds.ChunkCharLimit {
		return fmt.Errorf("min-chunk-char-limit (%d) must be below chunk-char-limit (%d)",
			cfg.Thresholds.MinChunkCharLimit, cfg.Thresholds.ChunkCharLimit)
	}
	return nil
}

// processModels validates the classifier definitions from the config file.
func processModels(cfg *Config, input *ConfigRawInput) error {
	cfg.Models = nil
	seen := make(map[string]struct{})
	for i, m := range input.Models {
		m.Type = schema.ModelType(strings.ToLower(string(m.Type)))
		if _, ok := schema.ValidModelTypes[m.Type]; !ok {
			return fmt.Errorf("models[%d]: invalid type '%s'. must be c2s, i2s, life_of_py", i, m.Type)
		}
		if m.Name == "" {
			return fmt.Errorf("models[%d]: name is required", i)
		}
		if len(m.Command) == 0 {
			return fmt.Errorf("models[%d] %s: command is required", i, m.Name)
		}
		if _, dup := seen[m.Tag()]; dup {
			return fmt.Errorf("models[%d]: duplicate model %s", i, m.Tag())
		}
		seen[m.Tag()] = struct{}{}
		cfg.Models = append(cfg.Models, m)
	}
	return nil
}

// resolveAuthors parses the author filter, replacing "self" with the configured git email.
func resolveAuthors(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	var authors []string
	for a := range strings.SplitSeq(input.Authors, ",") {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if a == SelfAuthor {
			email, err := client.GetUserEmail(ctx, ".")
			if err != nil {
				return fmt.Errorf("cannot resolve %q author from git config user.email: %w", SelfAuthor, err)
			}
			if email == "" {
				return fmt.Errorf("cannot resolve %q author: git config user.email is empty", SelfAuthor)
			}
			a = email
		}
		authors = append(authors, a)
	}
	cfg.Authors = lo.Uniq(authors)
	return nil
}

// Parallel reports whether independent workers coordinate through touch files.
func (c *Config) Parallel() bool {
	return c.Partition != NoParallel
}

// ConfigParams returns the values recorded with each run in the ledger.
func (c *Config) ConfigParams() map[string]any {
	return map[string]any{
		"input_path":      c.InputPath,
		"repo_list":       c.RepoList,
		"output_path":     c.OutputPath,
		"authors":         c.Authors,
		"team":            c.Team,
		"lookback_months": c.LookbackMonths,
		"min_months":      c.MinMonths,
		"partition":       c.Partition,
		"partitions":      c.Partitions,
		"skip_scoring":    c.SkipScoring,
		"start_from_tmp":  c.StartFromTmp,
		"models":          lo.Map(c.Models, func(m ModelConfig, _ int) string { return m.Tag() }),
	}
}

// Clone returns a copy of the config whose slices can be modified independently.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Authors = slices.Clone(c.Authors)
	clone.Excludes = slices.Clone(c.Excludes)
	if c.Models != nil {
		clone.Models = make([]ModelConfig, len(c.Models))
		for i, m := range c.Models {
			m.Command = slices.Clone(m.Command)
			clone.Models[i] = m
		}
	}
	return &clone
}
