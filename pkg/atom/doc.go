// Package atom implements a fine-grained reactive dependency graph.
//
// An atom is an identity-keyed unit of state: a primitive value, a value
// derived from other atoms, or an asynchronously computed value. A Store is
// one scope of the graph; it caches values, records which atoms each derived
// computation read, and propagates writes through the dependent edges so
// that every mounted (subscribed) atom has recomputed before the write
// returns. Unmounted dependents are left stale and recompute lazily.
//
// Dependencies are dynamic: each run of a read computation replaces the
// atom's dependency set with exactly the atoms it read, so conditional
// branches drop edges they no longer take. Async reads park a pending marker
// immediately; when a newer read supersedes an in-flight one, the older
// resolution is discarded and its context cancelled.
//
//	count := atom.New(0, atom.WithLabel("count"))
//	double := atom.Derived(func(g atom.Getter) (int, error) {
//		n, err := atom.Read(g, count)
//		return n * 2, err
//	})
//
//	store := atom.NewStore()
//	unsubscribe := store.Subscribe(double, func() { /* re-render */ })
//	defer unsubscribe()
//
//	atom.Set(store, count, 5)
//	v, _ := atom.Get(store, double) // 10
package atom
