package agg

import (
	"fmt"
	"strings"
	"time"
)

// commitScenario represents a single commit for fixture generation.
type commitScenario struct {
	commitHash string
	author     string
	date       time.Time
	files      []fileChange
}

// fileChange represents a single file change in a commit.
type fileChange struct {
	path      string
	additions int
	deletions int
}

// generateCommitLog renders scenarios in the "%ae\x01%ct\x01%H" log format.
func generateCommitLog(scenarios []commitScenario) []byte {
	lines := make([]string, 0, len(scenarios))
	for _, s := range scenarios {
		lines = append(lines, strings.Join([]string{s.author, fmt.Sprint(s.date.Unix()), s.commitHash}, LogFieldSeparator))
	}
	return []byte(strings.Join(lines, "\n"))
}

// generateNumstat renders the numstat output of one commit.
func generateNumstat(files []fileChange) []byte {
	lines := make([]string, 0, len(files))
	for _, f := range files {
		lines = append(lines, fmt.Sprintf("%d\t%d\t%s", f.additions, f.deletions, f.path))
	}
	return []byte(strings.Join(lines, "\n") + "\n")
}
