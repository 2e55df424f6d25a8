package cmd

import (
	"github.com/huangsam/skillmine/core"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// authorsCmd lists the authors found in the repositories.
var authorsCmd = &cobra.Command{
	Use:   "authors",
	Short: "List commit authors ranked by the number of repositories they touched",
	Long: `List the distinct author emails of every repository within the lookback
window, ranked by how many repositories each appears in. The configured
git user.email is flagged as (self).

Examples:
  skillmine authors --input-path ~/src --limit 20
  skillmine authors --repo-list repos.txt --num-years 2 --output json`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := cfg.RequireRepos(); err != nil {
			return err
		}
		return core.ExecuteAuthors(rootCtx, cfg, viper.GetInt("limit"))
	},
}
