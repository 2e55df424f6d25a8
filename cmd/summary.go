package cmd

import (
	"github.com/huangsam/skillmine/core"
	"github.com/spf13/cobra"
)

// summaryCmd prints a merged profile.
var summaryCmd = &cobra.Command{
	Use:   "summary <profile>",
	Short: "Summarize a merged profile by language and skill",
	Long: `Read a merged profile (mt_profile.json or its .gz form) and print lines added
and deleted, significant contributions and active months per language, followed
by the top skills.

Examples:
  skillmine summary ./out/mt_profile.json
  skillmine summary ./out/mt_profile.json --output csv --output-file langs.csv`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		return core.ExecuteSummary(rootCtx, cfg, args[0])
	},
}
