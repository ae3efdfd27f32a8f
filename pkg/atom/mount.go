package atom

import "sync"

// Subscribe registers external interest in the atom. The callback runs after
// every propagation pass that recomputed or rewrote the atom's value. The
// atom (and, transitively, its current dependencies) joins the mounted set;
// its mount hook, if any, fires on the transition in. The returned function
// removes the subscription; when the last subscriber leaves, the recorded
// unmount callback fires exactly once.
func (s *Store) Subscribe(a AnyAtom, fn func()) (unsubscribe func()) {
	c := a.conf()
	s.mu.Lock()
	if _, err := s.computeLocked(c); err != nil {
		// Mount regardless: the subscriber is notified when a later pass
		// produces a value.
		s.logRecomputeLocked(c, err)
	}
	s.mountLocked(c)
	st := s.states[c]
	id := nextID()
	st.mount.subscribers[id] = fn
	notes := s.drainQueuedLocked()
	s.mu.Unlock()
	for _, n := range notes {
		n()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if cur, ok := s.states[c]; ok && cur.mount != nil {
				delete(cur.mount.subscribers, id)
				s.unmountCandidates[c] = struct{}{}
				s.processUnmountsLocked()
				s.collectLocked()
			}
			un := s.drainQueuedLocked()
			s.mu.Unlock()
			for _, n := range un {
				n()
			}
		})
	}
}

// mountLocked adds c to the mounted set, transitively mounting its current
// dependencies, and queues its mount hook. Idempotent.
func (s *Store) mountLocked(c *config) {
	st := s.ensureLocked(c)
	if st.mount != nil {
		return
	}
	st.mount = &mountState{subscribers: make(map[uint64]func())}
	if s.metrics != nil {
		s.metrics.mounted.Inc()
	}
	for d := range st.deps {
		s.mountLocked(d)
	}
	if c.mount != nil {
		api := mountSetter{store: s, cfg: c}
		s.queued = append(s.queued, func() {
			un := c.mount(api)
			if un == nil {
				return
			}
			s.mu.Lock()
			if cur, ok := s.states[c]; ok && cur.mount != nil {
				cur.mount.unmount = un
				s.mu.Unlock()
				return
			}
			s.mu.Unlock()
			// The atom was unmounted before its hook ran; retire now.
			un()
		})
	}
	s.logger.Debug("atom mounted", "atom", c.label, "id", c.id)
}

// mountSetter is the set-only capability handed to mount hooks: it can write
// the mounted atom and nothing else.
type mountSetter struct {
	store *Store
	cfg   *config
}

func (m mountSetter) Set(value any) error {
	return m.store.Set(m.cfg, value)
}

// processUnmountsLocked retires atoms whose subscriber count reached zero.
// Candidates accumulate during a pass and are checked once here, so an atom
// whose net count never dropped to zero fires no callbacks.
func (s *Store) processUnmountsLocked() {
	for len(s.unmountCandidates) > 0 {
		cands := s.unmountCandidates
		s.unmountCandidates = make(map[*config]struct{})
		for c := range cands {
			s.maybeUnmountLocked(c)
		}
	}
}

// maybeUnmountLocked unmounts c if nothing needs it anymore: no direct
// subscribers and no mounted dependent. Its dependencies then become
// candidates themselves.
func (s *Store) maybeUnmountLocked(c *config) {
	st, ok := s.states[c]
	if !ok || st.mount == nil {
		return
	}
	if len(st.mount.subscribers) > 0 {
		return
	}
	for d := range st.dependents {
		if ds, ok := s.states[d]; ok && ds.mount != nil {
			return
		}
	}
	un := st.mount.unmount
	st.mount = nil
	if s.metrics != nil {
		s.metrics.mounted.Dec()
	}
	if un != nil {
		s.queued = append(s.queued, un)
	}
	s.logger.Debug("atom unmounted", "atom", c.label, "id", c.id)
	for d := range st.deps {
		s.unmountCandidates[d] = struct{}{}
	}
}
