// Package core has the pipeline that turns git history into skill profiles:
// history loading, significance classification, scoring, checkpointed batches and merging.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/skillmine/internal/classify"
	"github.com/huangsam/skillmine/internal/contract"
	"github.com/huangsam/skillmine/internal/langs"
	"github.com/huangsam/skillmine/internal/outwriter"
	"github.com/huangsam/skillmine/schema"
	"github.com/samber/lo"
)

// ExecutorFunc defines the function signature for executing the commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// ExecuteBuild runs the batch over all repositories, prints each outcome and,
// when a user or team was requested, merges the final profiles.
func ExecuteBuild(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	client := contract.NewLocalGitClient(cfg.GitTimeout)

	batch, closeModels, err := newBatch(ctx, cfg, client, mgr)
	if err != nil {
		return err
	}
	defer closeModels()

	outcomes, runErr := batch.Run(ctx)
	if err := outwriter.PrintBuildResults(outcomes, cfg, time.Since(start)); err != nil {
		return err
	}
	if runErr != nil && !errors.Is(runErr, ErrAllReposFailed) {
		return runErr
	}

	if len(cfg.Authors) > 0 || cfg.Team != "" {
		// Only this run's repositories; final-stats may hold leftovers of other input lists.
		keys := lo.Map(outcomes, func(o schema.RepoOutcome, _ int) string { return o.RepoKey })
		if paths := NewLayout(cfg.OutputPath).ProfilePathsOf(keys); len(paths) > 0 {
			if err := mergeAndPrint(cfg, paths, start); err != nil {
				return err
			}
		}
	}
	return runErr
}

// ExecuteMerge merges the existing final profiles without touching any repository.
func ExecuteMerge(_ context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	start := time.Now()
	paths, err := NewLayout(cfg.OutputPath).ProfilePaths()
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no final profiles under %s: %w", cfg.OutputPath, contract.ErrNoData)
	}
	return mergeAndPrint(cfg, paths, start)
}

// ExecuteSummary prints the summary of a merged profile file.
func ExecuteSummary(_ context.Context, cfg *contract.Config, path string) error {
	start := time.Now()
	merged, err := ReadMergedProfile(path)
	if err != nil {
		return err
	}
	merged.Summary = Summarize(merged.Profiles)
	return outwriter.PrintProfileSummary(merged, path, cfg, time.Since(start))
}

// ExecuteAuthors lists the authors of all repositories ranked by how many repositories they touched.
func ExecuteAuthors(ctx context.Context, cfg *contract.Config, limit int) error {
	start := time.Now()
	repos, err := DiscoverRepos(cfg.InputPath, cfg.RepoList)
	if err != nil {
		return err
	}
	client := contract.NewLocalGitClient(cfg.GitTimeout)
	authors, err := CollectAuthors(ctx, client, repos, cfg.LookbackMonths, limit)
	if err != nil {
		return err
	}
	return outwriter.PrintAuthors(authors, cfg, time.Since(start))
}

// CollectRawStats runs raw collection on one repository without scoring or checkpoints.
func CollectRawStats(ctx context.Context, cfg *contract.Config, client contract.GitClient, mgr contract.CacheManager, repoPath string) (*RepoData, error) {
	files, err := langs.NewClassifier(cfg.Excludes, cfg.ExcludeVendored)
	if err != nil {
		return nil, err
	}
	pipeline := NewPipeline(client, commitStore(mgr), files, cfg.Thresholds)
	return pipeline.CollectRepo(ctx, repoPath, cfg.Authors, cfg.LookbackMonths, cfg.MinMonths, nil)
}

// newBatch wires the pipeline, the scorer and the run ledger. The returned
// function closes the classifiers.
func newBatch(ctx context.Context, cfg *contract.Config, client contract.GitClient, mgr contract.CacheManager) (*Batch, func(), error) {
	files, err := langs.NewClassifier(cfg.Excludes, cfg.ExcludeVendored)
	if err != nil {
		return nil, nil, err
	}

	var models []contract.SkillClassifier
	if !cfg.SkipScoring {
		models, err = classify.Open(ctx, cfg.Models)
		if err != nil {
			return nil, nil, err
		}
		if len(models) == 0 {
			contract.Logger().Warn("no skill classifiers configured, profiles will carry no skills")
		}
	}
	closeModels := func() { classify.CloseAll(models) }

	pipeline := NewPipeline(client, commitStore(mgr), files, cfg.Thresholds)
	scorer := NewScorer(models, cfg.Models, cfg.Thresholds, cfg.BatchSize, cfg.PredictionLimit, cfg.MinMonths)
	batch, err := NewBatch(cfg, client, pipeline, scorer, runStore(mgr))
	if err != nil {
		closeModels()
		return nil, nil, err
	}
	return batch, closeModels, nil
}

func mergeAndPrint(cfg *contract.Config, paths []string, start time.Time) error {
	now := time.Now()
	merged, err := MergeProfiles(paths, cfg.Authors, cfg.Team, now)
	if err != nil {
		return err
	}
	out := MergedProfilePath(cfg.OutputPath, cfg.CompressOutput, now)
	if err := WriteMergedProfile(out, merged); err != nil {
		return fmt.Errorf("write merged profile: %w", err)
	}
	return outwriter.PrintProfileSummary(merged, out, cfg, time.Since(start))
}

func commitStore(mgr contract.CacheManager) contract.CacheStore {
	if mgr == nil {
		return nil
	}
	return mgr.GetCommitStore()
}

func runStore(mgr contract.CacheManager) contract.RunStore {
	if mgr == nil {
		return nil
	}
	return mgr.GetRunStore()
}
