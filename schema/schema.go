// Package schema has the data model shared by every stage of skillmine.
package schema

import "time"

// CommitRecord is one line of the commit log for a single author.
type CommitRecord struct {
	CommitID    string `json:"commit_id"`
	AuthorEmail string `json:"author_email"`
	Timestamp   int64  `json:"timestamp"` // Unix seconds
}

// Month returns the yyyymm bucket for the commit.
func (c CommitRecord) Month() int {
	return YearMonth(c.Timestamp)
}

// FileChangeStat holds line counts for one file within one commit.
// Renamed paths are already normalized to their destination.
type FileChangeStat struct {
	Path    string
	Added   int
	Deleted int
}

// FileSnippets groups the snippets extracted from one file in one commit.
type FileSnippets struct {
	File     string   `json:"file"`
	Snippets []string `json:"snippets"`
}

// RepoLibRecord is one line of the repository-level import index persisted next to raw stats.
type RepoLibRecord struct {
	RepoPath string   `json:"repo_path"`
	Repo     string   `json:"repo"`
	File     string   `json:"file"`
	Imports  []string `json:"imports"`
}

// ProfileRecord is the on-disk unit: one user in one repository.
type ProfileRecord struct {
	Version   string     `json:"version"`
	Timestamp int64      `json:"timestamp"`
	RepoPath  string     `json:"repo_path"`
	Repo      string     `json:"repo"`
	User      string     `json:"user"`
	Stats     *UserStats `json:"stats"`
}

// ProfileSummary holds counts for human-readable reporting only.
type ProfileSummary struct {
	Users            []string `json:"users"`
	Repos            int      `json:"repos"`
	Languages        []string `json:"languages"`
	Months           int      `json:"months"`
	LinesAdded       int      `json:"lines_added"`
	LinesDeleted     int      `json:"lines_deleted"`
	SigContributions int      `json:"sig_contributions"`
	Skills           []string `json:"skills"`
}

// MergedProfile is the document produced by merging many ProfileRecord lines.
type MergedProfile struct {
	User      string          `json:"user"`
	Timestamp int64           `json:"timestamp"`
	Team      string          `json:"team,omitempty"`
	Profiles  []ProfileRecord `json:"profiles"`
	Summary   ProfileSummary  `json:"summary"`
}

// Prediction is one label returned by a skill classifier for one input.
type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// AuthorCount is an author email with the number of repositories it appears in.
type AuthorCount struct {
	Email string `json:"email"`
	Repos int    `json:"repos"`
	Self  bool   `json:"self"`
}

// RepoOutcome is the result of processing one repository in a batch.
type RepoOutcome struct {
	RepoKey  string        `json:"repo_key"`
	RepoPath string        `json:"repo_path"`
	State    RepoState     `json:"state"`
	Users    int           `json:"users"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}
