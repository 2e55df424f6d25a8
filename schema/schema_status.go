package schema

import "time"

// CacheStatus represents the status of the commit-stat cache store.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// RunStatus represents the status of the run ledger.
type RunStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	TotalRuns     int              `json:"total_runs"`
	LastRunID     int64            `json:"last_run_id"`
	LastRunTime   time.Time        `json:"last_run_time"`
	OldestRunTime time.Time        `json:"oldest_run_time"`
	TotalRepos    int              `json:"total_repos"`
	FailedRepos   int              `json:"failed_repos"`
	TableSizes    map[string]int64 `json:"table_sizes"`
}

// RunRecord represents a row from the skillmine_runs table.
type RunRecord struct {
	RunID         int64
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int64
	TotalRepos    *int64
	ConfigParams  *string
}

// RepoOutcomeRecord represents a row from the skillmine_repo_outcomes table.
type RepoOutcomeRecord struct {
	RunID      int64
	RepoKey    string
	State      string
	Users      int64
	DurationMs int64
	ErrorText  *string
	RecordedAt time.Time
}

// MonthlyStatRecord represents a row from the skillmine_monthly_stats table.
type MonthlyStatRecord struct {
	RunID            int64
	RepoKey          string
	UserEmail        string
	Lang             string
	Month            int64
	LinesAdded       int64
	LinesDeleted     int64
	TooBigToAnalyze  int64
	SigContributions int64
}
