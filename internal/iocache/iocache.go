// Package iocache persists the commit-stat cache and the run ledger.
package iocache

import (
	"sync"

	"github.com/huangsam/skillmine/internal/contract"
)

// CacheStoreManager holds the commit cache and the run ledger.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	commits      contract.CacheStore
	runs         contract.RunStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetCommitStore returns the commit-stat CacheStore.
func (mgr *CacheStoreManager) GetCommitStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.commits
}

// GetRunStore returns the run ledger.
func (mgr *CacheStoreManager) GetRunStore() contract.RunStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.runs
}
