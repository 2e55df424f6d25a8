package contract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/huangsam/skillmine/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validInput returns a raw input that passes validation, for tests to tweak.
func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		Output:          "text",
		Color:           "yes",
		CacheBackend:    "sqlite",
		InputPath:       "/repos",
		OutputPath:      "/out",
		NumYears:        DefaultNumYears,
		MinMonths:       DefaultMinMonths,
		ParallelMode:    AllPartitions,
		Partitions:      DefaultPartitions,
		BatchSize:       DefaultBatchSize,
		PredictionLimit: DefaultPredictionLimit,
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
	}{
		{"valid minimal config", func(*ConfigRawInput) {}, false},
		{"invalid output", func(in *ConfigRawInput) { in.Output = "xml" }, true},
		{"invalid color", func(in *ConfigRawInput) { in.Color = "maybe" }, true},
		{"zero years", func(in *ConfigRawInput) { in.NumYears = 0 }, true},
		{"negative min months", func(in *ConfigRawInput) { in.MinMonths = -1 }, true},
		{"partition out of range", func(in *ConfigRawInput) { in.ParallelMode = 2 }, true},
		{"partition in range", func(in *ConfigRawInput) { in.ParallelMode = 1 }, false},
		{"parallel disabled", func(in *ConfigRawInput) { in.ParallelMode = NoParallel }, false},
		{"partition below disabled", func(in *ConfigRawInput) { in.ParallelMode = -3 }, true},
		{"zero batch size", func(in *ConfigRawInput) { in.BatchSize = 0 }, true},
		{"bad git timeout", func(in *ConfigRawInput) { in.GitTimeout = "soon" }, true},
		{"negative git timeout", func(in *ConfigRawInput) { in.GitTimeout = "-1s" }, true},
		{"start from tmp without output", func(in *ConfigRawInput) { in.StartFromTmp = true; in.OutputPath = "" }, true},
		{"invalid cache backend", func(in *ConfigRawInput) { in.CacheBackend = "redis" }, true},
		{"mysql without dsn", func(in *ConfigRawInput) { in.CacheBackend = "mysql" }, true},
		{"same sqlite file", func(in *ConfigRawInput) {
			in.RunsBackend = "sqlite"
			in.CacheDBConnect = "/tmp/x.db"
			in.RunsDBConnect = "/tmp/x.db"
		}, true},
		{"chunk limits inverted", func(in *ConfigRawInput) { in.ChunkCharLimit = 40 }, true},
		{"invalid model type", func(in *ConfigRawInput) {
			in.Models = []ModelConfig{{Name: "m", Type: "gpt", Command: []string{"x"}}}
		}, true},
		{"model without command", func(in *ConfigRawInput) {
			in.Models = []ModelConfig{{Name: "m", Type: schema.CodeToSkill}}
		}, true},
		{"duplicate model", func(in *ConfigRawInput) {
			m := ModelConfig{Name: "m", Type: schema.CodeToSkill, Command: []string{"x"}}
			in.Models = []ModelConfig{m, m}
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(in)
			cfg := &Config{}
			err := ProcessAndValidate(context.Background(), cfg, &MockGitClient{}, in)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProcessAndValidate_Defaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(context.Background(), cfg, &MockGitClient{}, validInput()))

	assert.Equal(t, DefaultThresholds(), cfg.Thresholds)
	assert.Equal(t, 60, cfg.LookbackMonths)
	assert.Equal(t, DefaultGitTimeout, cfg.GitTimeout)
	assert.Equal(t, DefaultProfileVersion, cfg.ProfileVersion)
	assert.Equal(t, AllPartitions, cfg.Partition)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Authors)
}

func TestProcessAndValidate_Overrides(t *testing.T) {
	in := validInput()
	in.TooBigToAnalyzeLimit = 200
	in.MinSnippetLines = 3
	in.GitTimeout = "90s"
	in.Exclude = "vendor/**, **/*.pb.go ,"
	in.Models = []ModelConfig{{Name: "py", Type: "C2S", Command: []string{"python", "serve.py"}}}

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(context.Background(), cfg, &MockGitClient{}, in))
	assert.Equal(t, 200, cfg.Thresholds.TooBigToAnalyzeLimit)
	assert.Equal(t, 3, cfg.Thresholds.MinSnippetLines)
	assert.Equal(t, DefaultMinLinesAdded, cfg.Thresholds.MinLinesAdded)
	assert.Equal(t, 90*time.Second, cfg.GitTimeout)
	assert.Equal(t, []string{"vendor/**", "**/*.pb.go"}, cfg.Excludes)
	require.Len(t, cfg.Models, 1)
	assert.Equal(t, "c2s::py", cfg.Models[0].Tag())
}

func TestResolveAuthors(t *testing.T) {
	ctx := context.Background()

	t.Run("self is replaced and duplicates dropped", func(t *testing.T) {
		client := &MockGitClient{}
		client.On("GetUserEmail", ctx, ".").Return("me@x.io", nil).Once()
		in := validInput()
		in.Authors = "self, a@x.io,me@x.io,a@x.io"
		cfg := &Config{}
		require.NoError(t, ProcessAndValidate(ctx, cfg, client, in))
		assert.Equal(t, []string{"me@x.io", "a@x.io"}, cfg.Authors)
		client.AssertExpectations(t)
	})

	t.Run("self without git email fails", func(t *testing.T) {
		client := &MockGitClient{}
		client.On("GetUserEmail", ctx, ".").Return("", errors.New("exit 1")).Once()
		in := validInput()
		in.Authors = "self"
		assert.Error(t, ProcessAndValidate(ctx, &Config{}, client, in))
	})
}

func TestRequireReposAndOutput(t *testing.T) {
	cfg := &Config{}
	assert.ErrorIs(t, cfg.RequireRepos(), ErrMissingInput)
	assert.ErrorIs(t, cfg.RequireOutput(), ErrMissingOutput)

	cfg.RepoList = "repos.txt"
	cfg.OutputPath = "/out"
	assert.NoError(t, cfg.RequireRepos())
	assert.NoError(t, cfg.RequireOutput())

	assert.NoError(t, (&Config{StartFromTmp: true}).RequireRepos())
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	assert.NoError(t, ValidateDatabaseConnectionString(schema.SQLiteBackend, ""))
	assert.NoError(t, ValidateDatabaseConnectionString(schema.MySQLBackend, "u:p@tcp(localhost:3306)/db"))
	assert.Error(t, ValidateDatabaseConnectionString(schema.MySQLBackend, "u:p@localhost/db"))
	assert.NoError(t, ValidateDatabaseConnectionString(schema.PostgreSQLBackend, "host=localhost dbname=x"))
	assert.Error(t, ValidateDatabaseConnectionString(schema.PostgreSQLBackend, "host=localhost"))
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{
		Authors:  []string{"a@x.com"},
		Excludes: []string{"**/gen/**"},
		Models:   []ModelConfig{{Name: "m", Type: schema.CodeToSkill, Command: []string{"run"}}},
	}
	clone := cfg.Clone()
	clone.Authors[0] = "b@x.com"
	clone.Excludes = append(clone.Excludes, "x")
	clone.Models[0].Command[0] = "other"

	assert.Equal(t, "a@x.com", cfg.Authors[0])
	assert.Len(t, cfg.Excludes, 1)
	assert.Equal(t, "run", cfg.Models[0].Command[0])
}
