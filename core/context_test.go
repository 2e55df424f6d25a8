package core

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestContextConcurrentAccess tests that context values can be safely accessed concurrently.
func TestContextConcurrentAccess(t *testing.T) {
	ctx := withRepoKey(withRunID(context.Background(), 12345), "repo-a")

	const numGoroutines = 50
	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := range numGoroutines {
		go func(id int) {
			defer wg.Done()
			assert.Equal(t, int64(12345), runIDFromContext(ctx), "Goroutine %d", id)
			assert.Equal(t, "repo-a", repoKeyFromContext(ctx), "Goroutine %d", id)
		}(i)
	}
	wg.Wait()
}

// TestContextIsolation tests that different contexts maintain isolation.
func TestContextIsolation(t *testing.T) {
	base := context.Background()
	ctx1 := withRunID(base, 1)
	ctx2 := withRunID(base, 2)

	assert.Equal(t, int64(1), runIDFromContext(ctx1))
	assert.Equal(t, int64(2), runIDFromContext(ctx2))
	assert.Zero(t, runIDFromContext(base))
	assert.Empty(t, repoKeyFromContext(ctx1))
}
