package atom

import "sync"

// The default scope is process-wide mutable state: one store created lazily
// on first use and never torn down. Tests and multi-tenant hosts should
// create their own stores with NewStore to avoid cross-scope pollution.
var (
	defaultStore     *Store
	defaultStoreOnce sync.Once
)

// Default returns the process-wide default store, creating it on first use.
func Default() *Store {
	defaultStoreOnce.Do(func() {
		defaultStore = NewStore()
	})
	return defaultStore
}
