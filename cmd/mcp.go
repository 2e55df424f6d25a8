package cmd

import (
	"github.com/huangsam/skillmine/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:     "mcp",
	Short:   "Start the Skillmine MCP server",
	Long:    `Launch an MCP server on stdio that lets AI agents list authors, collect raw repository statistics and summarize profiles.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}
