// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/skillmine/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the Skillmine MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Skillmine Profile Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
		client:  contract.NewLocalGitClient(baseCfg.GitTimeout),
	}

	// --- 1. Tool: list_authors ---
	s.AddTool(mcp.NewTool("list_authors",
		mcp.WithDescription("List commit authors across repositories, ranked by how many repositories each touched."),
		mcp.WithString("input_path", mcp.Description("Directory whose immediate subdirectories are git repositories.")),
		mcp.WithString("repo_list", mcp.Description("File with one repository path per line.")),
		mcp.WithNumber("num_years", mcp.Description("Lookback window in years.")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of authors returned.")),
	), h.handleListAuthors)

	// --- 2. Tool: collect_repo_stats ---
	s.AddTool(mcp.NewTool("collect_repo_stats",
		mcp.WithDescription("Collect per-author language statistics from one repository without skill scoring."),
		mcp.WithString("repo_path", mcp.Description("Path to the Git repository."), mcp.Required()),
		mcp.WithString("authors", mcp.Description("Comma-separated author emails to restrict the collection to.")),
		mcp.WithNumber("num_years", mcp.Description("Lookback window in years.")),
	), h.handleCollectRepoStats)

	// --- 3. Tool: summarize_profile ---
	s.AddTool(mcp.NewTool("summarize_profile",
		mcp.WithDescription("Summarize a merged profile document written by the build or merge commands."),
		mcp.WithString("path", mcp.Description("Path to the merged profile (.json or .json.gz)."), mcp.Required()),
	), h.handleSummarizeProfile)

	return s
}

// StartMCPServer starts the Skillmine MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
