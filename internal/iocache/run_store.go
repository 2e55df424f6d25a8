package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/huangsam/skillmine/internal/contract"
	"github.com/huangsam/skillmine/schema"
)

// Table names of the run ledger.
const (
	runsTable         = "skillmine_runs"
	repoOutcomesTable = "skillmine_repo_outcomes"
	monthlyStatsTable = "skillmine_monthly_stats"
)

// runTables lists the ledger tables in dependency order.
var runTables = []string{runsTable, repoOutcomesTable, monthlyStatsTable}

// RunStoreImpl records batch runs, per-repository outcomes and monthly counters.
type RunStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.RunStore = &RunStoreImpl{} // Compile-time check

// NewRunStore opens the run ledger and migrates it to the latest schema.
func NewRunStore(backend schema.DatabaseBackend, connStr string) (contract.RunStore, error) {
	if backend == schema.NoneBackend {
		return &RunStoreImpl{backend: backend}, nil
	}
	if _, err := MigrateRuns(backend, connStr, LatestVersion); err != nil {
		return nil, fmt.Errorf("failed to migrate run ledger: %w", err)
	}
	db, err := openDB(backend, connStr, contract.GetRunsDBFilePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open run ledger: %w", err)
	}
	return &RunStoreImpl{db: db, backend: backend}, nil
}

func (rs *RunStoreImpl) disabled() bool {
	return rs.backend == schema.NoneBackend || rs.db == nil
}

// BeginRun creates a new run and returns its unique ID.
func (rs *RunStoreImpl) BeginRun(startTime time.Time, configParams map[string]any) (int64, error) {
	if rs.disabled() {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quoted := quoteTableName(runsTable, rs.backend)
	var runID int64
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (start_time, config_params) VALUES ($1, $2) RETURNING run_id`, quoted)
		err = rs.db.QueryRow(query, startTime, string(configJSON)).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (start_time, config_params) VALUES (?, ?)`, quoted)
		var result sql.Result
		result, err = rs.db.Exec(query, rs.formatTime(startTime), string(configJSON))
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// EndRun stamps the end time, duration and repository count of a run.
func (rs *RunStoreImpl) EndRun(runID int64, endTime time.Time, totalRepos int) error {
	if rs.disabled() {
		return nil
	}

	quoted := quoteTableName(runsTable, rs.backend)
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, quoted, placeholder(rs.backend, 1))
	startTime, err := rs.scanTime(rs.db.QueryRow(query, runID))
	if err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}

	update := fmt.Sprintf(`UPDATE %s SET end_time = %s, run_duration_ms = %s, total_repos = %s WHERE run_id = %s`, quoted,
		placeholder(rs.backend, 1), placeholder(rs.backend, 2), placeholder(rs.backend, 3), placeholder(rs.backend, 4))
	durationMs := endTime.Sub(startTime).Milliseconds()
	if _, err := rs.db.Exec(update, rs.formatTime(endTime), durationMs, totalRepos, runID); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// RecordRepoOutcome stores how one repository ended within a run.
func (rs *RunStoreImpl) RecordRepoOutcome(runID int64, outcome schema.RepoOutcome) error {
	if rs.disabled() {
		return nil
	}

	var errText *string
	if outcome.Err != nil {
		msg := outcome.Err.Error()
		errText = &msg
	}
	query := fmt.Sprintf(`INSERT INTO %s (run_id, repo_key, state, users, duration_ms, error_text, recorded_at)
		VALUES (%s)`, quoteTableName(repoOutcomesTable, rs.backend), rs.placeholders(7))
	_, err := rs.db.Exec(query, runID, outcome.RepoKey, string(outcome.State), outcome.Users,
		outcome.Duration.Milliseconds(), errText, rs.formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to insert outcome for %s: %w", outcome.RepoKey, err)
	}
	return nil
}

// RecordMonthlyStats stores one row per language and month of a user's counters.
func (rs *RunStoreImpl) RecordMonthlyStats(runID int64, repoKey string, user string, stats *schema.UserStats) error {
	if rs.disabled() || stats == nil {
		return nil
	}

	tx, err := rs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`INSERT INTO %s (run_id, repo_key, user_email, lang, month,
		lines_added, lines_deleted, too_big_to_analyze, sig_contributions)
		VALUES (%s)`, quoteTableName(monthlyStatsTable, rs.backend), rs.placeholders(9))
	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare monthly stats insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, lang := range stats.Languages() {
		ls := stats.Langs[lang]
		for _, month := range ls.Months() {
			ms := ls.TimeSeries[month]
			if _, err := stmt.Exec(runID, repoKey, user, lang, month,
				ms.Get(schema.MetricAdded), ms.Get(schema.MetricDeleted),
				ms.Get(schema.MetricTooBig), ms.Get(schema.MetricSigContrib)); err != nil {
				return fmt.Errorf("failed to insert monthly stats for %s/%s/%d: %w", user, lang, month, err)
			}
		}
	}
	return tx.Commit()
}

// Close closes the underlying connection.
func (rs *RunStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// GetStatus returns run counts, time range and table sizes of the ledger.
func (rs *RunStoreImpl) GetStatus() (schema.RunStatus, error) {
	status := schema.RunStatus{
		Backend:    string(rs.backend),
		Connected:  rs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if rs.disabled() {
		return status, nil
	}

	runs := quoteTableName(runsTable, rs.backend)
	if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", runs)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		row := rs.db.QueryRow(fmt.Sprintf("SELECT run_id FROM %s ORDER BY run_id DESC LIMIT 1", runs))
		if err := row.Scan(&status.LastRunID); err != nil {
			return status, fmt.Errorf("failed to get last run id: %w", err)
		}
		last, err := rs.scanTime(rs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id DESC LIMIT 1", runs)))
		if err != nil {
			return status, fmt.Errorf("failed to get last run time: %w", err)
		}
		status.LastRunTime = last
		oldest, err := rs.scanTime(rs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", runs)))
		if err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.OldestRunTime = oldest

		outcomes := quoteTableName(repoOutcomesTable, rs.backend)
		if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", outcomes)).Scan(&status.TotalRepos); err != nil {
			return status, fmt.Errorf("failed to get total repos: %w", err)
		}
		failedQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE state = %s", outcomes, placeholder(rs.backend, 1))
		if err := rs.db.QueryRow(failedQuery, string(schema.StateFailed)).Scan(&status.FailedRepos); err != nil {
			return status, fmt.Errorf("failed to get failed repos: %w", err)
		}
	}

	for _, table := range runTables {
		var count int64
		if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, rs.backend))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	return status, nil
}

// GetAllRuns returns every run in ID order.
func (rs *RunStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if rs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT run_id, start_time, end_time, run_duration_ms, total_repos, config_params FROM %s ORDER BY run_id",
		quoteTableName(runsTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var (
			record     schema.RunRecord
			start, end any
		)
		if err := rows.Scan(&record.RunID, &start, &end, &record.RunDurationMs, &record.TotalRepos, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if record.StartTime, err = parseTime(start); err != nil {
			return nil, fmt.Errorf("failed to parse start_time: %w", err)
		}
		if end != nil {
			endTime, err := parseTime(end)
			if err != nil {
				return nil, fmt.Errorf("failed to parse end_time: %w", err)
			}
			record.EndTime = &endTime
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllRepoOutcomes returns every repository outcome ordered by run and key.
func (rs *RunStoreImpl) GetAllRepoOutcomes() ([]schema.RepoOutcomeRecord, error) {
	if rs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT run_id, repo_key, state, users, duration_ms, error_text, recorded_at FROM %s ORDER BY run_id, repo_key",
		quoteTableName(repoOutcomesTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query repo outcomes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RepoOutcomeRecord
	for rows.Next() {
		var (
			record   schema.RepoOutcomeRecord
			recorded any
		)
		if err := rows.Scan(&record.RunID, &record.RepoKey, &record.State, &record.Users,
			&record.DurationMs, &record.ErrorText, &recorded); err != nil {
			return nil, fmt.Errorf("failed to scan repo outcome: %w", err)
		}
		if record.RecordedAt, err = parseTime(recorded); err != nil {
			return nil, fmt.Errorf("failed to parse recorded_at: %w", err)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating repo outcomes: %w", err)
	}
	return results, nil
}

// GetAllMonthlyStats returns every monthly stats row.
func (rs *RunStoreImpl) GetAllMonthlyStats() ([]schema.MonthlyStatRecord, error) {
	if rs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, repo_key, user_email, lang, month,
		lines_added, lines_deleted, too_big_to_analyze, sig_contributions FROM %s`,
		quoteTableName(monthlyStatsTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.MonthlyStatRecord
	for rows.Next() {
		var r schema.MonthlyStatRecord
		if err := rows.Scan(&r.RunID, &r.RepoKey, &r.UserEmail, &r.Lang, &r.Month,
			&r.LinesAdded, &r.LinesDeleted, &r.TooBigToAnalyze, &r.SigContributions); err != nil {
			return nil, fmt.Errorf("failed to scan monthly stats: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monthly stats: %w", err)
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.RunID != b.RunID {
			return a.RunID < b.RunID
		}
		if a.RepoKey != b.RepoKey {
			return a.RepoKey < b.RepoKey
		}
		if a.UserEmail != b.UserEmail {
			return a.UserEmail < b.UserEmail
		}
		if a.Lang != b.Lang {
			return a.Lang < b.Lang
		}
		return a.Month < b.Month
	})
	return results, nil
}

// placeholders returns n comma-separated bind parameters.
func (rs *RunStoreImpl) placeholders(n int) string {
	out := ""
	for i := 1; i <= n; i++ {
		if i > 1 {
			out += ", "
		}
		out += placeholder(rs.backend, i)
	}
	return out
}

// formatTime converts a time to the column representation of the backend.
func (rs *RunStoreImpl) formatTime(t time.Time) any {
	if rs.backend == schema.SQLiteBackend {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return t
}

func (rs *RunStoreImpl) scanTime(row *sql.Row) (time.Time, error) {
	var v any
	if err := row.Scan(&v); err != nil {
		return time.Time{}, err
	}
	return parseTime(v)
}

// parseTime accepts both native datetime columns and SQLite's RFC3339 text.
func parseTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		return time.Parse(time.RFC3339Nano, t)
	case []byte:
		return time.Parse(time.RFC3339Nano, string(t))
	default:
		return time.Time{}, fmt.Errorf("unexpected time value %T", v)
	}
}
