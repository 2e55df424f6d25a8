// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/skillmine/schema"
)

// GitClient defines the version-control queries the pipeline needs.
// This allows the core pipeline to be tested without needing a real git executable.
type GitClient interface {
	// --- Generic / Low-Level ---

	// Run executes a read-only git command and returns its stdout.
	// Its use should be minimized in favor of the explicit methods below.
	Run(ctx context.Context, repoPath string, args ...string) ([]byte, error)

	// --- Repository Metadata ---

	// GetRepoRoot returns the absolute path to the root of the Git repository
	// containing the given context path.
	GetRepoRoot(ctx context.Context, contextPath string) (string, error)

	// GetRemoteURL returns the origin remote URL, or an error when none is configured.
	GetRemoteURL(ctx context.Context, repoPath string) (string, error)

	// GetUserEmail returns the configured user.email for the repository.
	GetUserEmail(ctx context.Context, repoPath string) (string, error)

	// --- History ---

	// GetCommitLog returns "%ae\x01%ct\x01%H" lines within the lookback window.
	GetCommitLog(ctx context.Context, repoPath string, authors []string, lookbackMonths int) ([]byte, error)

	// GetNumstat returns the numeric diff-stat of one commit, pure deletions excluded.
	GetNumstat(ctx context.Context, repoPath string, commitID string) ([]byte, error)

	// GetCommitDiff returns the unified diff of one commit restricted to files,
	// using the given numeric path prefixes instead of a/ and b/.
	GetCommitDiff(ctx context.Context, repoPath string, commitID string, srcPrefix, dstPrefix string, files []string) ([]byte, error)

	// ListAuthors returns one author email per commit within the lookback window.
	ListAuthors(ctx context.Context, repoPath string, lookbackMonths int) ([]byte, error)
}

// SkillClassifier is the black-box scoring model.
// Classify returns, for each input, up to limit labels with scores.
type SkillClassifier interface {
	Tag() string
	Type() schema.ModelType
	Classify(ctx context.Context, inputs []string, limit int) ([][]schema.Prediction, error)
	Close() error
}

// CacheManager defines the interface for managing the persistence stores.
// This allows the store layer to be mocked for testing.
type CacheManager interface {
	GetCommitStore() CacheStore
	GetRunStore() RunStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// RunStore defines the interface for tracking batch runs and their per-repository outcomes.
type RunStore interface {
	// BeginRun creates a new run and returns its unique ID.
	BeginRun(startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun updates the run with completion data.
	EndRun(runID int64, endTime time.Time, totalRepos int) error

	// RecordRepoOutcome stores how one repository ended.
	RecordRepoOutcome(runID int64, outcome schema.RepoOutcome) error

	// RecordMonthlyStats stores the counter totals for one user in one repository.
	RecordMonthlyStats(runID int64, repoKey string, user string, stats *schema.UserStats) error

	// GetStatus returns status information about the run store.
	GetStatus() (schema.RunStatus, error)

	// GetAllRuns returns every run in ID order.
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllRepoOutcomes returns every repository outcome.
	GetAllRepoOutcomes() ([]schema.RepoOutcomeRecord, error)

	// GetAllMonthlyStats returns every monthly stats row.
	GetAllMonthlyStats() ([]schema.MonthlyStatRecord, error)

	// Close closes the underlying connection.
	Close() error
}
