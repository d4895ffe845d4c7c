// Package iocache persists derived tables and run history.
package iocache

import (
	"sync"

	"github.com/huangsam/hazardtable/internal/contract"
)

// StoreManager holds the table cache and the run history store.
type StoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	table        contract.CacheStore
	runs         contract.RunStore
}

var _ contract.CacheManager = &StoreManager{} // Compile-time check

// GetTableStore returns the derived-table CacheStore.
func (mgr *StoreManager) GetTableStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.table
}

// GetRunStore returns the run history store.
func (mgr *StoreManager) GetRunStore() contract.RunStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.runs
}
