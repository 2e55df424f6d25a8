package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/huangsam/skillmine/core"
	"github.com/huangsam/skillmine/internal/contract"
	"github.com/huangsam/skillmine/internal/outwriter"
	"github.com/huangsam/skillmine/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/samber/lo"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
	client  contract.GitClient
}

type repoStatsResult struct {
	RepoPath string                       `json:"repo_path"`
	Users    map[string]*schema.UserStats `json:"users"`
	Libs     map[string][]string          `json:"libs,omitempty"`
}

type profileSummaryResult struct {
	User      string                  `json:"user"`
	Team      string                  `json:"team,omitempty"`
	Summary   schema.ProfileSummary   `json:"summary"`
	Languages []outwriter.LanguageRow `json:"languages"`
	Skills    []outwriter.SkillRow    `json:"skills"`
}

func (h *toolHandler) handleListAuthors(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if p := request.GetString("input_path", ""); p != "" {
		cfg.InputPath = p
	}
	if p := request.GetString("repo_list", ""); p != "" {
		cfg.RepoList = p
	}
	if y := request.GetInt("num_years", 0); y > 0 {
		cfg.LookbackMonths = y * 12
	}
	limit := max(request.GetInt("limit", 0), 0)

	if cfg.InputPath == "" && cfg.RepoList == "" {
		return mcp.NewToolResultError(contract.ErrMissingInput.Error()), nil
	}
	repos, err := core.DiscoverRepos(cfg.InputPath, cfg.RepoList)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("repository discovery failed: %v", err)), nil
	}
	authors, err := core.CollectAuthors(ctx, h.client, repos, cfg.LookbackMonths, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("author listing failed: %v", err)), nil
	}
	return jsonResult(authors)
}

func (h *toolHandler) handleCollectRepoStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	repoPath := strings.TrimSpace(request.GetString("repo_path", ""))
	if repoPath == "" {
		return mcp.NewToolResultError("repo_path is required"), nil
	}
	if a := request.GetString("authors", ""); a != "" {
		cfg.Authors = lo.Uniq(lo.Compact(lo.Map(strings.Split(a, ","), func(s string, _ int) string {
			return strings.TrimSpace(s)
		})))
	}
	if y := request.GetInt("num_years", 0); y > 0 {
		cfg.LookbackMonths = y * 12
	}

	data, err := core.CollectRawStats(ctx, cfg, h.client, h.mgr, repoPath)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("collection failed: %v", err)), nil
	}
	result := repoStatsResult{RepoPath: repoPath, Users: make(map[string]*schema.UserStats), Libs: data.Libs}
	for _, user := range data.Users.Users() {
		result.Users[user] = data.Users.Stats(user)
	}
	return jsonResult(result)
}

func (h *toolHandler) handleSummarizeProfile(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := strings.TrimSpace(request.GetString("path", ""))
	if path == "" {
		return mcp.NewToolResultError("path is required"), nil
	}
	merged, err := core.ReadMergedProfile(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot read profile: %v", err)), nil
	}
	return jsonResult(profileSummaryResult{
		User:      merged.User,
		Team:      merged.Team,
		Summary:   core.Summarize(merged.Profiles),
		Languages: outwriter.LanguageRows(merged.Profiles),
		Skills:    outwriter.SkillRows(merged.Profiles),
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
