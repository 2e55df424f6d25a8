package core

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/huangsam/skillmine/core/agg"
	"github.com/huangsam/skillmine/core/algo"
	"github.com/huangsam/skillmine/internal/contract"
	"github.com/huangsam/skillmine/schema"
	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
)

// Batch runs the per-repository state machine over a list of repositories.
type Batch struct {
	cfg      *contract.Config
	client   contract.GitClient
	pipeline *Pipeline
	scorer   *Scorer
	runs     contract.RunStore // optional
	layout   Layout
	filter   FilterList
	log      *slog.Logger
	now      func() time.Time
}

// NewBatch wires a batch from validated configuration. runs may be nil.
func NewBatch(cfg *contract.Config, client contract.GitClient, pipeline *Pipeline, scorer *Scorer, runs contract.RunStore) (*Batch, error) {
	filter, err := LoadFilterList(cfg.FilterList)
	if err != nil {
		return nil, err
	}
	return &Batch{
		cfg:      cfg,
		client:   client,
		pipeline: pipeline,
		scorer:   scorer,
		runs:     runs,
		layout:   NewLayout(cfg.OutputPath),
		filter:   filter,
		log:      contract.Logger(),
		now:      time.Now,
	}, nil
}

// Run processes every repository and returns the outcome of each one it looked at.
// A failing repository is recorded and skipped. The returned error is non-nil
// only for setup failures or when every attempted repository failed.
func (b *Batch) Run(ctx context.Context) ([]schema.RepoOutcome, error) {
	if err := b.layout.EnsureDirs(); err != nil {
		return nil, err
	}

	start := b.now()
	if b.runs != nil {
		runID, err := b.runs.BeginRun(start, b.cfg.ConfigParams())
		if err != nil {
			contract.LogWarn("Cannot begin run in ledger", err)
		} else {
			ctx = withRunID(ctx, runID)
		}
	}

	var (
		outcomes []schema.RepoOutcome
		err      error
	)
	if b.cfg.StartFromTmp {
		outcomes, err = b.runFromTmp(ctx)
	} else {
		outcomes, err = b.runRepos(ctx)
	}

	if runID := runIDFromContext(ctx); runID != 0 {
		if endErr := b.runs.EndRun(runID, b.now(), len(outcomes)); endErr != nil {
			contract.LogWarn("Cannot end run in ledger", endErr)
		}
	}
	if err != nil {
		return outcomes, err
	}

	attempted := lo.CountBy(outcomes, func(o schema.RepoOutcome) bool { return o.State != schema.StateSkipped })
	failed := lo.CountBy(outcomes, func(o schema.RepoOutcome) bool { return o.State == schema.StateFailed })
	if attempted > 0 && failed == attempted {
		return outcomes, ErrAllReposFailed
	}
	return outcomes, nil
}

// runRepos walks the discovered repositories in random order.
func (b *Batch) runRepos(ctx context.Context) ([]schema.RepoOutcome, error) {
	repos, err := DiscoverRepos(b.cfg.InputPath, b.cfg.RepoList)
	if err != nil {
		return nil, err
	}
	repos = lo.Shuffle(repos)
	b.log.Info("discovered repositories", "count", len(repos))

	var bar *progressbar.ProgressBar
	if b.cfg.Progress {
		bar = newProgressBar(len(repos))
		defer func() { _ = bar.Finish() }()
	}

	outcomes := make([]schema.RepoOutcome, 0, len(repos))
	for cnt, repoPath := range repos {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		if bar != nil {
			_ = bar.Add(1)
		}
		key := RepoKey(repoPath)

		if b.cfg.Parallel() {
			if cnt%contract.KillSwitchInterval == 0 && b.layout.KillSwitch() {
				b.log.Warn("stopping batch", "reason", ErrKillSwitch, "processed", cnt)
				break
			}
			if !InPartition(key, b.cfg.Partition, b.cfg.Partitions) {
				continue
			}
			if err := b.layout.Claim(key); err != nil {
				if !errors.Is(err, ErrRepoClaimed) {
					return outcomes, err
				}
				b.log.Debug("repository claimed elsewhere", "repo", key)
				outcomes = append(outcomes, b.record(ctx, schema.RepoOutcome{RepoKey: key, RepoPath: repoPath, State: schema.StateClaimed}))
				continue
			}
		}

		outcomes = append(outcomes, b.record(ctx, b.processRepo(withRepoKey(ctx, key), repoPath)))
	}
	return outcomes, nil
}

// runFromTmp scores every repository with raw stats but no final profile.
func (b *Batch) runFromTmp(ctx context.Context) ([]schema.RepoOutcome, error) {
	keys, err := b.layout.RawStatsKeys()
	if err != nil {
		return nil, fmt.Errorf("list raw stats: %w", err)
	}
	outcomes := make([]schema.RepoOutcome, 0, len(keys))
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		outcome := schema.RepoOutcome{RepoKey: key, State: schema.StateSkipped}
		if b.layout.StateOf(key) != schema.StateDone {
			outcome = b.timed(func() schema.RepoOutcome {
				return b.scoreRepo(withRepoKey(ctx, key), key, "")
			})
		}
		outcomes = append(outcomes, b.record(ctx, outcome))
	}
	return outcomes, nil
}

// processRepo advances one repository through its states.
// DONE repositories are skipped without any git query.
func (b *Batch) processRepo(ctx context.Context, repoPath string) schema.RepoOutcome {
	key := RepoKey(repoPath)
	switch b.layout.StateOf(key) {
	case schema.StateDone:
		b.log.Debug("final profile exists", "repo", key)
		return schema.RepoOutcome{RepoKey: key, RepoPath: repoPath, State: schema.StateSkipped}
	case schema.StateRawStatsCollected:
		if b.cfg.SkipScoring {
			return schema.RepoOutcome{RepoKey: key, RepoPath: repoPath, State: schema.StateSkipped}
		}
		return b.timed(func() schema.RepoOutcome { return b.scoreRepo(ctx, key, repoPath) })
	default:
		return b.timed(func() schema.RepoOutcome { return b.collectAndScore(ctx, key, repoPath) })
	}
}

func (b *Batch) collectAndScore(ctx context.Context, key, repoPath string) schema.RepoOutcome {
	outcome := schema.RepoOutcome{RepoKey: key, RepoPath: repoPath}
	allowed := func(user string) bool { return !b.filter.Excludes(key, user) }

	data, err := b.pipeline.CollectRepo(ctx, repoPath, b.cfg.Authors, b.cfg.LookbackMonths, b.cfg.MinMonths, allowed)
	if err != nil {
		return b.failed(outcome, err)
	}
	if err := b.writeRawStats(key, repoPath, data); err != nil {
		return b.failed(outcome, err)
	}
	b.recordMonthlyStats(ctx, key, data.Users)

	outcome.Users = data.Users.Len()
	outcome.State = schema.StateRawStatsCollected
	if b.cfg.SkipScoring {
		return outcome
	}
	return b.scoreRepo(ctx, key, repoPath)
}

func (b *Batch) writeRawStats(key, repoPath string, data *RepoData) error {
	if err := WriteRepoLibs(b.layout.LibsPath(key), repoPath, key, data.Libs); err != nil {
		return err
	}
	now := b.now().Unix()
	records := make([]schema.ProfileRecord, 0, data.Users.Len())
	for _, user := range data.Users.Users() {
		records = append(records, schema.ProfileRecord{
			Version:   b.cfg.ProfileVersion,
			Timestamp: now,
			RepoPath:  repoPath,
			Repo:      key,
			User:      user,
			Stats:     data.Users.Stats(user),
		})
	}
	return WriteProfileRecords(b.layout.RawStatsPath(key), records)
}

// scoreRepo runs the scoring stage on raw stats and writes the final profile
// for users active long enough and not excluded by the filter list. repoPath
// may be empty when only raw stats are known.
func (b *Batch) scoreRepo(ctx context.Context, key, repoPath string) schema.RepoOutcome {
	outcome := schema.RepoOutcome{RepoKey: key, RepoPath: repoPath}
	raw, err := ReadProfileRecords(b.layout.RawStatsPath(key))
	if err != nil {
		return b.failed(outcome, err)
	}
	libs, err := ReadRepoLibs(b.layout.LibsPath(key))
	if err != nil {
		return b.failed(outcome, err)
	}
	if repoPath == "" && len(raw) > 0 {
		repoPath = raw[0].RepoPath
		outcome.RepoPath = repoPath
	}

	stats := make(map[string]*schema.UserStats, len(raw))
	for _, r := range raw {
		if b.filter.Excludes(key, r.User) {
			b.log.Debug("user excluded by filter list", "repo", key, "user", r.User)
			continue
		}
		stats[r.User] = r.Stats
	}
	acc := agg.FromStats(stats)

	now := b.now().Unix()
	var (
		final              []schema.ProfileRecord
		repoHash, repoName string
	)
	for _, user := range acc.Users() {
		if err := b.scorer.ScoreUser(ctx, acc, user, libs); err != nil {
			return b.failed(outcome, err)
		}
		b.scorer.FilterSkills(acc, user)
		if ActiveMonths(acc.Stats(user)) < b.cfg.MinMonths {
			continue
		}
		if !b.cfg.KeepPrivateData {
			acc.StripPrivate(user)
		}
		if final == nil {
			repoHash, repoName = b.repoIdentity(ctx, key, repoPath)
		}
		final = append(final, schema.ProfileRecord{
			Version:   b.cfg.ProfileVersion,
			Timestamp: now,
			RepoPath:  repoHash,
			Repo:      repoName,
			User:      user,
			Stats:     acc.Stats(user),
		})
	}

	outcome.Users = len(final)
	if len(final) == 0 {
		b.log.Info("no user qualified for a profile", "repo", key)
	}
	// An empty file still marks the repository done so reruns skip it.
	if err := WriteProfileRecords(b.layout.ProfilePath(key), final); err != nil {
		return b.failed(outcome, err)
	}
	outcome.State = schema.StateDone
	return outcome
}

// repoIdentity returns the repo_path and repo fields of a final profile.
// Unless names are kept, repo_path is the SHA-256 of the origin URL when
// the URL mentions the repository, otherwise of the name itself.
func (b *Batch) repoIdentity(ctx context.Context, key, repoPath string) (string, string) {
	if b.cfg.KeepRepoName {
		return repoPath, key
	}
	source := key
	if repoPath != "" {
		if url, err := b.client.GetRemoteURL(ctx, repoPath); err == nil && strings.Contains(url, key) {
			source = url
		}
	}
	return algo.SHA256Hex(source), algo.Anonymize(key)
}

func (b *Batch) failed(outcome schema.RepoOutcome, err error) schema.RepoOutcome {
	b.log.Error("repository failed", "repo", outcome.RepoKey, "error", err)
	outcome.State = schema.StateFailed
	outcome.Err = err
	return outcome
}

func (b *Batch) timed(fn func() schema.RepoOutcome) schema.RepoOutcome {
	start := b.now()
	outcome := fn()
	outcome.Duration = b.now().Sub(start)
	return outcome
}

// record stores an outcome in the run ledger when one is configured.
func (b *Batch) record(ctx context.Context, outcome schema.RepoOutcome) schema.RepoOutcome {
	if runID := runIDFromContext(ctx); runID != 0 {
		if err := b.runs.RecordRepoOutcome(runID, outcome); err != nil {
			contract.LogWarn("Cannot record repository outcome", err)
		}
	}
	return outcome
}

func (b *Batch) recordMonthlyStats(ctx context.Context, key string, acc *agg.Accumulator) {
	runID := runIDFromContext(ctx)
	if runID == 0 {
		return
	}
	for _, user := range acc.Users() {
		if err := b.runs.RecordMonthlyStats(runID, key, user, acc.Stats(user)); err != nil {
			contract.LogWarn("Cannot record monthly stats", err)
			return
		}
	}
}

// DiscoverRepos lists candidate repositories: the immediate sub-directories of
// inputPath and the lines of repoList. Only directories holding .git are kept.
func DiscoverRepos(inputPath, repoList string) ([]string, error) {
	var candidates []string
	if inputPath != "" {
		entries, err := os.ReadDir(inputPath)
		if err != nil {
			return nil, fmt.Errorf("read input path: %w", err)
		}
		for _, e := range entries {
			candidates = append(candidates, filepath.Join(inputPath, e.Name()))
		}
	}
	if repoList != "" {
		lines, err := readLines(repoList)
		if err != nil {
			return nil, fmt.Errorf("read repo list: %w", err)
		}
		candidates = append(candidates, lines...)
	}

	log := contract.Logger()
	var repos []string
	for _, c := range lo.Uniq(candidates) {
		info, err := os.Stat(c)
		if err != nil || !info.IsDir() {
			log.Debug("not a directory", "path", c)
			continue
		}
		if !fileExists(filepath.Join(c, ".git")) {
			log.Debug("not a git repository", "path", c)
			continue
		}
		repos = append(repos, c)
	}
	return repos, nil
}

// FilterList holds repo::user pairs excluded from profiles.
type FilterList map[string]struct{}

// LoadFilterList reads a TSV of repo<TAB>user lines. An empty path gives an empty list.
func LoadFilterList(path string) (FilterList, error) {
	fl := make(FilterList)
	if path == "" {
		return fl, nil
	}
	lines, err := readLines(path)
	if err != nil {
		return nil, fmt.Errorf("read filter list: %w", err)
	}
	for _, line := range lines {
		repo, user, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		fl[strings.TrimSpace(repo)+"::"+strings.TrimSpace(user)] = struct{}{}
	}
	return fl, nil
}

// Excludes reports whether the user's contributions to repo are filtered out.
func (fl FilterList) Excludes(repo, user string) bool {
	_, ok := fl[repo+"::"+user]
	return ok
}

// readLines returns the non-blank lines of a file, trimmed of trailing whitespace.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimRight(sc.Text(), " \r\n"); strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}

func newProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("repositories"),
		progressbar.OptionThrottle(time.Second),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{Saucer: "#", SaucerPadding: " ", BarStart: "|", BarEnd: "|"}),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}
