// Package iocache persists scores and run history.
package iocache

import (
	"sync"

	"github.com/huangsam/fundscore/internal/contract"
)

// CacheStoreManager manages the score cache and the run history store.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	score        contract.CacheStore
	analysis     contract.AnalysisStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetScoreStore returns the score CacheStore.
func (mgr *CacheStoreManager) GetScoreStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.score
}

// GetAnalysisStore returns the run history AnalysisStore.
func (mgr *CacheStoreManager) GetAnalysisStore() contract.AnalysisStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.analysis
}
