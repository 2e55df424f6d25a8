package core

import (
	"strconv"
	"strings"

	"github.com/huangsam/skillmine/core/algo"
	"github.com/huangsam/skillmine/internal/contract"
)

// Verdict is the outcome of classifying one file change.
type Verdict int

const (
	// VerdictTooBig marks a diff section over the analysis size limit.
	VerdictTooBig Verdict = iota
	// VerdictTooSmall marks a change with too few added lines to matter.
	VerdictTooSmall
	// VerdictReformat marks a change whose content is unchanged once whitespace is removed.
	VerdictReformat
	// VerdictSignificant marks a genuine contribution.
	VerdictSignificant
)

// String returns the verdict name used in logs.
func (v Verdict) String() string {
	switch v {
	case VerdictTooBig:
		return "too_big"
	case VerdictTooSmall:
		return "too_small"
	case VerdictReformat:
		return "reformat"
	case VerdictSignificant:
		return "significant"
	default:
		return "unknown"
	}
}

// FileDiff is one file section of a commit diff.
type FileDiff struct {
	Path    string // destination path
	Section string // raw section text after the split marker
	Body    string // hunk lines, starting at the first @@ header
}

// SplitDiff splits a unified diff produced with numeric path prefixes into
// per-file sections. The prefixes make the "diff --git <src>/" marker
// unlikely to collide with anything inside a diff body.
func SplitDiff(diff string, srcPrefix, dstPrefix int) []FileDiff {
	marker := "diff --git " + strconv.Itoa(srcPrefix) + "/"
	dstMarker := " " + strconv.Itoa(dstPrefix) + "/"

	parts := strings.Split(diff, marker)
	files := make([]FileDiff, 0, len(parts))
	for _, section := range parts[1:] {
		header, rest, _ := strings.Cut(section, "\n")
		idx := strings.LastIndex(header, dstMarker)
		if idx < 0 {
			continue
		}
		path := strings.TrimSpace(header[idx+len(dstMarker):])
		files = append(files, FileDiff{Path: path, Section: section, Body: hunkBody(rest)})
	}
	return files
}

// hunkBody drops the extended header lines that precede the first hunk.
func hunkBody(rest string) string {
	if strings.HasPrefix(rest, "@@") {
		return rest
	}
	if idx := strings.Index(rest, "\n@@"); idx >= 0 {
		return rest[idx+1:]
	}
	return ""
}

// ExtractSnippets returns each run of consecutive added lines, without the
// leading "+", that is at least minLines long.
func ExtractSnippets(body string, minLines int) []string {
	var (
		snippets []string
		current  []string
	)
	flush := func() {
		if len(current) >= minLines && len(current) > 0 {
			snippets = append(snippets, strings.Join(current, "\n"))
		}
		current = current[:0]
	}
	for line := range strings.SplitSeq(body, "\n") {
		if strings.HasPrefix(line, "+") {
			current = append(current, line[1:])
			continue
		}
		flush()
	}
	flush()
	return snippets
}

// AddedLines returns the added lines of a diff body without the leading "+".
func AddedLines(body string) []string {
	var lines []string
	for line := range strings.SplitSeq(body, "\n") {
		if strings.HasPrefix(line, "+") {
			lines = append(lines, line[1:])
		}
	}
	return lines
}

var whitespaceStripper = strings.NewReplacer(" ", "", "\t", "", "\r", "", "\n", "")

// CharsChanged is the edit distance between the added and deleted text of a
// diff body once whitespace is removed.
func CharsChanged(body string) int {
	var added, deleted strings.Builder
	for line := range strings.SplitSeq(body, "\n") {
		switch {
		case strings.HasPrefix(line, "+"):
			added.WriteString(line[1:])
		case strings.HasPrefix(line, "-"):
			deleted.WriteString(line[1:])
		}
	}
	return algo.Levenshtein(whitespaceStripper.Replace(added.String()), whitespaceStripper.Replace(deleted.String()))
}

// ClassifyChange decides how one file change counts. The checks run in a
// fixed order: section size, added line count, then the reformat distance.
func ClassifyChange(fd FileDiff, added int, th contract.Thresholds) Verdict {
	if len(fd.Section) > th.TooBigToAnalyzeLimit {
		return VerdictTooBig
	}
	if added < th.SigContributionLineLimit {
		return VerdictTooSmall
	}
	if CharsChanged(fd.Body) < th.ReformatCharLimit {
		return VerdictReformat
	}
	return VerdictSignificant
}
