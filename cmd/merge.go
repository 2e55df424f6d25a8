package cmd

import (
	"github.com/huangsam/skillmine/core"
	"github.com/spf13/cobra"
)

// mergeCmd merges existing final profiles.
var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge the final profiles under --output-path into one document",
	Long: `Merge every final profile under --output-path/final-stats into mt_profile.json
without touching any repository. --authors restricts the merge to those users.

Examples:
  skillmine merge --output-path ./out --authors alice@example.com,bob@example.com --team platform
  skillmine merge --output-path ./out --compress-output`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := cfg.RequireOutput(); err != nil {
			return err
		}
		return core.ExecuteMerge(rootCtx, cfg, cacheManager)
	},
}
