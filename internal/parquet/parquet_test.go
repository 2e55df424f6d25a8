package parquet

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/skillmine/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaColumns(t *testing.T) {
	tests := []struct {
		name    string
		model   any
		columns []string
	}{
		{"runs", new(Run), []string{"run_id", "start_time", "end_time", "run_duration_ms", "total_repos", "config_params"}},
		{"outcomes", new(RepoOutcome), []string{"run_id", "repo_key", "state", "users", "duration_ms", "error_text", "recorded_at"}},
		{"monthly", new(MonthlyStat), []string{"run_id", "repo_key", "user_email", "lang", "month", "lines_added", "lines_deleted", "too_big_to_analyze", "sig_contributions"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := parquet.SchemaOf(tt.model)
			for _, col := range tt.columns {
				_, ok := s.Lookup(col)
				assert.True(t, ok, "column %s", col)
			}
		})
	}
}

func TestWriteRunsParquet(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Second)
	dur, total := int64(90000), int64(12)
	params := `{"partitions":2}`

	records := []schema.RunRecord{
		{RunID: 1, StartTime: start, EndTime: &end, RunDurationMs: &dur, TotalRepos: &total, ConfigParams: &params},
		{RunID: 2, StartTime: end},
	}
	path := filepath.Join(t.TempDir(), "runs.parquet")
	require.NoError(t, WriteRunsParquet(ConvertRunRecords(records), path))

	rows, err := parquet.ReadFile[Run](path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].RunID)
	require.NotNil(t, rows[0].TotalRepos)
	assert.Equal(t, int64(12), *rows[0].TotalRepos)
	assert.Nil(t, rows[1].EndTime)
	assert.Nil(t, rows[1].ConfigParams)
}

func TestWriteOutcomesAndMonthlyStats(t *testing.T) {
	dir := t.TempDir()
	msg := "git log: exit status 128"
	outcomes := ConvertRepoOutcomeRecords([]schema.RepoOutcomeRecord{
		{RunID: 1, RepoKey: "widget", State: "done", Users: 3, DurationMs: 1200, RecordedAt: time.Unix(1700000000, 0).UTC()},
		{RunID: 1, RepoKey: "broken", State: "failed", ErrorText: &msg, RecordedAt: time.Unix(1700000001, 0).UTC()},
	})
	outPath := filepath.Join(dir, "outcomes.parquet")
	require.NoError(t, WriteRepoOutcomesParquet(outcomes, outPath))

	gotOutcomes, err := parquet.ReadFile[RepoOutcome](outPath)
	require.NoError(t, err)
	require.Len(t, gotOutcomes, 2)
	require.NotNil(t, gotOutcomes[1].ErrorText)
	assert.Equal(t, msg, *gotOutcomes[1].ErrorText)

	stats := ConvertMonthlyStatRecords([]schema.MonthlyStatRecord{
		{RunID: 1, RepoKey: "widget", UserEmail: "dev@example.com", Lang: "py", Month: 202401, LinesAdded: 40, SigContributions: 2},
	})
	statsPath := filepath.Join(dir, "monthly.parquet")
	require.NoError(t, WriteMonthlyStatsParquet(stats, statsPath))

	gotStats, err := parquet.ReadFile[MonthlyStat](statsPath)
	require.NoError(t, err)
	assert.Equal(t, stats, gotStats)
}

func TestWriteParquetBadPath(t *testing.T) {
	err := WriteRunsParquet(nil, filepath.Join(t.TempDir(), "missing", "runs.parquet"))
	assert.Error(t, err)
}
