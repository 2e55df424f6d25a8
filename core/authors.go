package core

import (
	"context"
	"strings"

	"github.com/hashicorp/go-set/v2"
	"github.com/huangsam/skillmine/core/algo"
	"github.com/huangsam/skillmine/internal/contract"
	"github.com/huangsam/skillmine/schema"
)

// CollectAuthors counts, for every author email, the number of repositories
// it committed to within the lookback window. Repositories whose history
// cannot be read are skipped. The configured git user.email is marked Self.
func CollectAuthors(ctx context.Context, client contract.GitClient, repos []string, lookbackMonths, limit int) ([]schema.AuthorCount, error) {
	self, err := client.GetUserEmail(ctx, ".")
	if err != nil {
		contract.Logger().Debug("no git user.email configured", "error", err)
		self = ""
	}

	counts := make(map[string]int)
	for _, repo := range repos {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := client.ListAuthors(ctx, repo, lookbackMonths)
		if err != nil {
			if err = gitFailure(err); !isNoData(err) {
				return nil, err
			}
			contract.Logger().Warn("cannot list authors", "repo", repo, "error", err)
			continue
		}
		seen := set.New[string](16)
		for line := range strings.SplitSeq(string(out), "\n") {
			if email := strings.TrimSpace(line); email != "" && seen.Insert(email) {
				counts[email]++
			}
		}
	}

	authors := make([]schema.AuthorCount, 0, len(counts))
	for email, n := range counts {
		authors = append(authors, schema.AuthorCount{Email: email, Repos: n, Self: self != "" && email == self})
	}
	return algo.RankAuthors(authors, limit), nil
}
