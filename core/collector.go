package core

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/huangsam/skillmine/core/agg"
	"github.com/huangsam/skillmine/internal/contract"
	"github.com/huangsam/skillmine/internal/langs"
	"github.com/huangsam/skillmine/schema"
	"github.com/samber/lo"
)

// maxPathPrefix bounds the random numeric prefixes used in commit diffs.
const maxPathPrefix = 1000

// RepoData is everything collected from one repository.
type RepoData struct {
	Users *agg.Accumulator
	Libs  map[string][]string // repository-relative file -> imports from its on-disk content
}

// Pipeline collects raw statistics from repositories.
type Pipeline struct {
	client   contract.GitClient
	cache    contract.CacheStore
	files    *langs.Classifier
	th       contract.Thresholds
	log      *slog.Logger
	prefixes func() (int, int)
}

// NewPipeline builds a Pipeline. cache may be nil.
func NewPipeline(client contract.GitClient, cache contract.CacheStore, files *langs.Classifier, th contract.Thresholds) *Pipeline {
	return &Pipeline{
		client: client,
		cache:  cache,
		files:  files,
		th:     th,
		log:    contract.Logger(),
		prefixes: func() (int, int) {
			return rand.IntN(maxPathPrefix + 1), rand.IntN(maxPathPrefix + 1)
		},
	}
}

// CollectRepo walks the history of one repository and returns the per-user statistics.
// allowed may be nil; otherwise users for which it returns false are skipped.
func (p *Pipeline) CollectRepo(ctx context.Context, repoPath string, authors []string, lookbackMonths, minMonths int, allowed func(user string) bool) (*RepoData, error) {
	data := &RepoData{Users: agg.NewAccumulator(), Libs: make(map[string][]string)}

	history, err := LoadCommitHistory(ctx, p.client, repoPath, authors, lookbackMonths, minMonths)
	if errors.Is(err, contract.ErrNoData) {
		p.log.Warn("commit log unavailable", "repo", repoPath, "error", err)
		return data, nil
	}
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		p.log.Info("not enough contribution", "repo", repoPath, "min_months", minMonths)
		return data, nil
	}

	ignored := 0
	for _, user := range sortedUsers(history) {
		if allowed != nil && !allowed(user) {
			ignored++
			continue
		}
		for _, commit := range history[user] {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := p.processCommit(ctx, repoPath, user, commit, data); err != nil {
				return nil, err
			}
		}
	}
	if ignored > 0 {
		p.log.Info("ignored filtered users", "repo", repoPath, "count", ignored)
	}
	return data, nil
}

// processCommit collects line stats for one commit and, when the commit is
// small enough, classifies each eligible file change.
func (p *Pipeline) processCommit(ctx context.Context, repoPath, user string, commit schema.CommitRecord, data *RepoData) error {
	eligible, err := p.CollectLineStats(ctx, repoPath, user, commit, data.Users)
	if errors.Is(err, contract.ErrNoData) {
		p.log.Debug("numstat unavailable", "repo", repoPath, "commit", commit.CommitID, "error", err)
		return nil
	}
	if err != nil {
		return err
	}
	if len(eligible) == 0 {
		return nil
	}

	reformatted := make(map[string]bool)
	if totalAdded(eligible) < p.th.MaxDiffSize {
		reformatted, err = p.analyzeCommit(ctx, repoPath, user, commit, eligible, data)
		if err != nil {
			return err
		}
	}

	month := commit.Month()
	for path, f := range eligible {
		if !reformatted[path] {
			data.Users.ObserveBounds(user, f.Lang, month)
		}
	}
	return nil
}

// analyzeCommit fetches the commit diff and classifies each eligible file.
// It returns the files that turned out to be pure reformats.
func (p *Pipeline) analyzeCommit(ctx context.Context, repoPath, user string, commit schema.CommitRecord, eligible map[string]FileLine, data *RepoData) (map[string]bool, error) {
	reformatted := make(map[string]bool)
	src, dst := p.prefixes()
	diff, err := p.client.GetCommitDiff(ctx, repoPath, commit.CommitID, strconv.Itoa(src), strconv.Itoa(dst), sortedPaths(eligible))
	if err != nil {
		if err = gitFailure(err); errors.Is(err, contract.ErrNoData) {
			p.log.Debug("diff unavailable", "repo", repoPath, "commit", commit.CommitID, "error", err)
			return reformatted, nil
		}
		return nil, err
	}

	month := commit.Month()
	for _, fd := range SplitDiff(string(diff), src, dst) {
		f, ok := eligible[fd.Path]
		if !ok {
			continue
		}
		p.indexRepoLibs(repoPath, fd.Path, f.Parser, data)

		verdict := ClassifyChange(fd, f.Added, p.th)
		switch verdict {
		case VerdictTooBig:
			data.Users.Increment(user, f.Lang, month, schema.MetricTooBig, 1)
		case VerdictReformat:
			data.Users.Increment(user, f.Lang, month, schema.MetricAdded, -f.Added)
			data.Users.Increment(user, f.Lang, month, schema.MetricDeleted, -f.Deleted)
			reformatted[fd.Path] = true
		case VerdictSignificant:
			snippets := ExtractSnippets(fd.Body, p.th.MinSnippetLines)
			if len(snippets) > 0 {
				data.Users.Increment(user, f.Lang, month, schema.MetricSigContrib, len(snippets))
				data.Users.AddSnippets(user, f.Lang, month, fd.Path, snippets)
			}
			data.Users.AddLibs(user, f.Lang, month, f.Parser.ExtractImports(AddedLines(fd.Body)))
		}
		p.log.Debug("classified file change", "repo", repoPath, "commit", commit.CommitID, "file", fd.Path, "verdict", verdict)
	}
	return reformatted, nil
}

// indexRepoLibs records the imports of a file's current content the first time the file is seen.
func (p *Pipeline) indexRepoLibs(repoPath, file string, parser langs.SourceParser, data *RepoData) {
	if _, seen := data.Libs[file]; seen {
		return
	}
	full := filepath.Join(repoPath, filepath.FromSlash(file))
	if info, err := os.Stat(full); err != nil || !info.Mode().IsRegular() {
		return
	}
	lines, err := langs.ReadSourceLines(full)
	if err != nil {
		p.log.Debug("cannot read source", "file", full, "error", err)
		return
	}
	if libs := parser.ExtractImports(lines); len(libs) > 0 {
		data.Libs[file] = libs
	}
}

func sortedUsers(history map[string][]schema.CommitRecord) []string {
	users := lo.Keys(history)
	sort.Strings(users)
	return users
}
