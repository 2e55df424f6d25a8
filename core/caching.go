package core

import (
	"context"
	"time"

	"github.com/huangsam/skillmine/internal/contract"
)

// currentCacheVersion defines the version of the cached numstat payload
const currentCacheVersion = 1

// cachedNumstat returns the numstat output of a commit, reading through the
// commit store when one is configured. Commits are immutable, so entries never go stale.
func cachedNumstat(ctx context.Context, client contract.GitClient, store contract.CacheStore, repoPath, commitID string) ([]byte, error) {
	if store == nil {
		return client.GetNumstat(ctx, repoPath, commitID)
	}

	key := numstatCacheKey(commitID)
	if data, version, _, err := store.Get(key); err == nil && version == currentCacheVersion {
		return data, nil
	}

	out, err := client.GetNumstat(ctx, repoPath, commitID)
	if err != nil {
		return nil, err
	}
	if err := store.Set(key, out, currentCacheVersion, time.Now().Unix()); err != nil {
		contract.LogWarn("Numstat cache write failed", err)
	}
	return out, nil
}

// numstatCacheKey creates the cache key of a commit's numstat output
func numstatCacheKey(commitID string) string {
	return "numstat:" + commitID
}
