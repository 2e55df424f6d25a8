package cmd

import (
	"github.com/huangsam/skillmine/core"
	"github.com/spf13/cobra"
)

// buildCmd runs the whole pipeline over a set of repositories.
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Collect, score and merge skill profiles from many repositories",
	Long: `Walk the commit history of every repository, collect per-author language
statistics, score significant snippets with the configured classifiers and write
one final profile per repository under --output-path.

Each repository moves through RAW (tmp-stats) and SCORED (final-stats). A
repository already in SCORED is skipped, so interrupted runs can be resumed.
When --authors or --team is set the final profiles are merged into mt_profile.json.

Parallel runs:
  --parallel-mode -2   single worker, no coordination (default)
  --parallel-mode -1   any number of workers claim repositories through touch files
  --parallel-mode N    worker N of --partitions hash partitions

Examples:
  # Profile yourself across every repository under ~/src
  skillmine build --input-path ~/src --output-path ./out --authors self

  # Two workers splitting a repository list
  skillmine build --repo-list repos.txt --output-path ./out --parallel-mode 0 --partitions 2
  skillmine build --repo-list repos.txt --output-path ./out --parallel-mode 1 --partitions 2

  # Raw statistics only, then scoring later
  skillmine build --input-path ~/src --output-path ./out --skip-scoring
  skillmine build --output-path ./out --start-from-tmp`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := cfg.RequireRepos(); err != nil {
			return err
		}
		if err := cfg.RequireOutput(); err != nil {
			return err
		}
		return core.ExecuteBuild(rootCtx, cfg, cacheManager)
	},
}
