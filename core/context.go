package core

import "context"

// Context keys for batch options
type contextKey string

const (
	runIDKey   contextKey = "runID"
	repoKeyKey contextKey = "repoKey"
)

// withRunID stores the ledger run ID in the context.
func withRunID(ctx context.Context, runID int64) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// runIDFromContext returns the ledger run ID, or zero when runs are not tracked.
func runIDFromContext(ctx context.Context) int64 {
	val := ctx.Value(runIDKey)
	if val == nil {
		return 0
	}
	id, ok := val.(int64)
	if !ok {
		return 0
	}
	return id
}

// withRepoKey stores the repository being processed in the context.
func withRepoKey(ctx context.Context, repoKey string) context.Context {
	return context.WithValue(ctx, repoKeyKey, repoKey)
}

// repoKeyFromContext returns the repository being processed, or "".
func repoKeyFromContext(ctx context.Context) string {
	key, _ := ctx.Value(repoKeyKey).(string)
	return key
}
