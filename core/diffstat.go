package core

import (
	"context"
	"sort"

	"github.com/huangsam/skillmine/core/agg"
	"github.com/huangsam/skillmine/internal/langs"
	"github.com/huangsam/skillmine/schema"
)

// FileLine is the line stat of one supported file in one commit.
type FileLine struct {
	schema.FileChangeStat
	Lang   string
	Parser langs.SourceParser
}

// CollectLineStats records the added and deleted lines of every supported file
// in a commit, then returns the files whose added lines exceed minLinesAdded.
// Only those files are eligible for deep analysis and for widening a
// language's active span.
func (p *Pipeline) CollectLineStats(ctx context.Context, repoPath, user string, commit schema.CommitRecord, acc *agg.Accumulator) (map[string]FileLine, error) {
	out, err := cachedNumstat(ctx, p.client, p.cache, repoPath, commit.CommitID)
	if err != nil {
		return nil, gitFailure(err)
	}

	stats, skipped := agg.ParseNumstat(out)
	if skipped > 0 {
		p.log.Debug("skipped numstat lines", "repo", repoPath, "commit", commit.CommitID, "count", skipped)
	}

	month := commit.Month()
	eligible := make(map[string]FileLine)
	for _, st := range stats {
		ext, parser, ok := p.files.Classify(st.Path)
		if !ok {
			continue
		}
		acc.Increment(user, ext, month, schema.MetricAdded, st.Added)
		acc.Increment(user, ext, month, schema.MetricDeleted, st.Deleted)
		if st.Added > p.th.MinLinesAdded {
			eligible[st.Path] = FileLine{FileChangeStat: st, Lang: ext, Parser: parser}
		}
	}
	return eligible, nil
}

// totalAdded sums the added lines of the given files.
func totalAdded(files map[string]FileLine) int {
	total := 0
	for _, f := range files {
		total += f.Added
	}
	return total
}

// sortedPaths returns the file paths in sorted order.
func sortedPaths(files map[string]FileLine) []string {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
