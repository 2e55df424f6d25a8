package core

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/hashicorp/go-set/v2"
	"github.com/huangsam/skillmine/core/agg"
	"github.com/huangsam/skillmine/internal/contract"
	"github.com/huangsam/skillmine/schema"
)

// LoadCommitHistory returns each author's commits in ascending timestamp order.
// When authors is non-empty only exact matches are kept, since git's --author
// filter matches substrings. Authors active in fewer than minMonths distinct
// months are dropped before any per-commit work happens.
func LoadCommitHistory(ctx context.Context, client contract.GitClient, repoPath string, authors []string, lookbackMonths, minMonths int) (map[string][]schema.CommitRecord, error) {
	out, err := client.GetCommitLog(ctx, repoPath, authors, lookbackMonths)
	if err != nil {
		return nil, gitFailure(err)
	}

	records, skipped := agg.ParseCommitLog(out)
	if skipped > 0 {
		contract.Logger().Debug("skipped commit log lines", "repo", repoPath, "count", skipped)
	}

	allowed := set.From(authors)
	byAuthor := make(map[string][]schema.CommitRecord)
	months := make(map[string]*set.Set[int])
	for _, r := range records {
		if allowed.Size() > 0 && !allowed.Contains(r.AuthorEmail) {
			continue
		}
		byAuthor[r.AuthorEmail] = append(byAuthor[r.AuthorEmail], r)
		if months[r.AuthorEmail] == nil {
			months[r.AuthorEmail] = set.New[int](12)
		}
		months[r.AuthorEmail].Insert(r.Month())
	}

	for author, commits := range byAuthor {
		if months[author].Size() < minMonths {
			delete(byAuthor, author)
			continue
		}
		sort.SliceStable(commits, func(i, j int) bool {
			return commits[i].Timestamp < commits[j].Timestamp
		})
	}
	return byAuthor, nil
}

// gitFailure classifies a git error. Unsafe commands stay fatal, anything else is "no data".
func gitFailure(err error) error {
	if errors.Is(err, contract.ErrUnsafeCommand) {
		return err
	}
	return fmt.Errorf("%w: %v", contract.ErrNoData, err)
}

func isNoData(err error) bool {
	return errors.Is(err, contract.ErrNoData)
}
