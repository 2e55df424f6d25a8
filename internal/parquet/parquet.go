// Package parquet exports the run ledger to Parquet files
// using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/skillmine/schema"
	"github.com/parquet-go/parquet-go"
)

// Run maps to the skillmine_runs table.
type Run struct {
	RunID         int64      `parquet:"run_id,snappy"`
	StartTime     time.Time  `parquet:"start_time,snappy"`
	EndTime       *time.Time `parquet:"end_time,optional,snappy"`
	RunDurationMs *int64     `parquet:"run_duration_ms,optional,snappy"`
	TotalRepos    *int64     `parquet:"total_repos,optional,snappy"`

	// ConfigParams is the JSON-encoded configuration of the run
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// RepoOutcome maps to the skillmine_repo_outcomes table.
type RepoOutcome struct {
	RunID      int64     `parquet:"run_id,snappy"`
	RepoKey    string    `parquet:"repo_key,snappy,dict"`
	State      string    `parquet:"state,snappy,dict"`
	Users      int64     `parquet:"users,snappy"`
	DurationMs int64     `parquet:"duration_ms,snappy"`
	ErrorText  *string   `parquet:"error_text,optional,snappy"`
	RecordedAt time.Time `parquet:"recorded_at,snappy"`
}

// MonthlyStat maps to the skillmine_monthly_stats table.
type MonthlyStat struct {
	RunID     int64  `parquet:"run_id,snappy"`
	RepoKey   string `parquet:"repo_key,snappy,dict"`
	UserEmail string `parquet:"user_email,snappy,dict"`
	Lang      string `parquet:"lang,snappy,dict"`

	// Month is the yyyymm bucket
	Month            int64 `parquet:"month,snappy"`
	LinesAdded       int64 `parquet:"lines_added,snappy"`
	LinesDeleted     int64 `parquet:"lines_deleted,snappy"`
	TooBigToAnalyze  int64 `parquet:"too_big_to_analyze,snappy"`
	SigContributions int64 `parquet:"sig_contributions,snappy"`
}

// WriteRunsParquet writes run rows to outputPath.
func WriteRunsParquet(data []Run, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteRepoOutcomesParquet writes repository outcome rows to outputPath.
func WriteRepoOutcomesParquet(data []RepoOutcome, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteMonthlyStatsParquet writes monthly counter rows to outputPath.
func WriteMonthlyStatsParquet(data []MonthlyStat, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet infers the schema from T's struct tags and writes every row.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertRunRecords converts ledger rows for export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, r := range records {
		result[i] = Run{
			RunID:         r.RunID,
			StartTime:     r.StartTime,
			EndTime:       r.EndTime,
			RunDurationMs: r.RunDurationMs,
			TotalRepos:    r.TotalRepos,
			ConfigParams:  r.ConfigParams,
		}
	}
	return result
}

// ConvertRepoOutcomeRecords converts ledger rows for export.
func ConvertRepoOutcomeRecords(records []schema.RepoOutcomeRecord) []RepoOutcome {
	result := make([]RepoOutcome, len(records))
	for i, r := range records {
		result[i] = RepoOutcome{
			RunID:      r.RunID,
			RepoKey:    r.RepoKey,
			State:      r.State,
			Users:      r.Users,
			DurationMs: r.DurationMs,
			ErrorText:  r.ErrorText,
			RecordedAt: r.RecordedAt,
		}
	}
	return result
}

// ConvertMonthlyStatRecords converts ledger rows for export.
func ConvertMonthlyStatRecords(records []schema.MonthlyStatRecord) []MonthlyStat {
	result := make([]MonthlyStat, len(records))
	for i, r := range records {
		result[i] = MonthlyStat(r)
	}
	return result
}
