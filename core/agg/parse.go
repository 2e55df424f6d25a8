// Package agg has the parsing and accumulation logic for git activity data.
package agg

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/huangsam/skillmine/schema"
)

// LogFieldSeparator separates the fields of one commit log record.
const LogFieldSeparator = "\x01"

// ParseCommitLog parses "%ae\x01%ct\x01%H" records, one per line.
// Malformed lines and records with an empty author email are skipped;
// the number of skipped non-blank lines is returned alongside the records.
func ParseCommitLog(out []byte) ([]schema.CommitRecord, int) {
	var (
		records []schema.CommitRecord
		skipped int
	)
	for line := range strings.SplitSeq(string(out), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		record, ok := parseCommitRecord(line)
		if !ok {
			skipped++
			continue
		}
		records = append(records, record)
	}
	return records, skipped
}

// parseCommitRecord extracts author, timestamp and commit id from one log line.
func parseCommitRecord(line string) (schema.CommitRecord, bool) {
	parts := strings.Split(line, LogFieldSeparator)
	if len(parts) != 3 {
		return schema.CommitRecord{}, false
	}
	email := strings.TrimSpace(parts[0])
	if email == "" {
		return schema.CommitRecord{}, false
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return schema.CommitRecord{}, false
	}
	commitID := strings.TrimSpace(parts[2])
	if commitID == "" {
		return schema.CommitRecord{}, false
	}
	return schema.CommitRecord{CommitID: commitID, AuthorEmail: email, Timestamp: ts}, true
}

// ParseNumstat parses "added\tdeleted\tpath" lines. Lines that do not start with a
// digit, do not have exactly three fields, carry non-numeric counts, or report
// zero changed lines (binary files) are skipped and counted.
func ParseNumstat(out []byte) ([]schema.FileChangeStat, int) {
	var (
		stats   []schema.FileChangeStat
		skipped int
	)
	for line := range strings.SplitSeq(string(out), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		stat, ok := parseNumstatLine(line)
		if !ok {
			skipped++
			continue
		}
		stats = append(stats, stat)
	}
	return stats, skipped
}

// parseNumstatLine parses one numstat line.
func parseNumstatLine(line string) (schema.FileChangeStat, bool) {
	if line == "" || line[0] < '0' || line[0] > '9' {
		return schema.FileChangeStat{}, false
	}
	parts := strings.Split(line, "\t")
	if len(parts) != 3 {
		return schema.FileChangeStat{}, false
	}
	added, err := strconv.Atoi(parts[0])
	if err != nil || added < 0 {
		return schema.FileChangeStat{}, false
	}
	deleted, err := strconv.Atoi(parts[1])
	if err != nil || deleted < 0 {
		return schema.FileChangeStat{}, false
	}
	if added+deleted == 0 {
		return schema.FileChangeStat{}, false
	}
	return schema.FileChangeStat{Path: NormalizeRenamePath(parts[2]), Added: added, Deleted: deleted}, true
}

var bracedRename = regexp.MustCompile(`^(.*)\{[^{}]* => ([^{}]*)\}(.*)$`)

// NormalizeRenamePath rewrites rename notation to the destination path:
// "src/{old => new}/f.py" becomes "src/new/f.py" and "a.py => b.py" becomes "b.py".
func NormalizeRenamePath(path string) string {
	if !strings.Contains(path, " => ") {
		return path
	}
	if m := bracedRename.FindStringSubmatch(path); m != nil {
		path = m[1] + m[2] + m[3]
	} else if !strings.Contains(path, "{") {
		path = strings.SplitN(path, " => ", 2)[1]
	}
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	return strings.TrimPrefix(path, "/")
}
