package algo

import (
	"sort"

	"github.com/huangsam/skillmine/schema"
)

// RankAuthors sorts authors by the number of repositories they appear in,
// in descending order, with the current user first. Ties are broken by email.
// If limit is positive and smaller than the number of authors, the list is truncated.
func RankAuthors(authors []schema.AuthorCount, limit int) []schema.AuthorCount {
	sort.SliceStable(authors, func(i, j int) bool {
		if authors[i].Self != authors[j].Self {
			return authors[i].Self
		}
		if authors[i].Repos != authors[j].Repos {
			return authors[i].Repos > authors[j].Repos
		}
		return authors[i].Email < authors[j].Email
	})
	if limit > 0 && len(authors) > limit {
		return authors[:limit]
	}
	return authors
}
