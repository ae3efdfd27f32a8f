package atom

import "sort"

// The introspection surface is read-only: nothing here computes values,
// records edges, or changes mount state. Debug collaborators use it to
// enumerate the live graph.

// Atoms returns the configurations with live entries in this store, in
// creation order.
func (s *Store) Atoms() []AnyAtom {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AnyAtom, 0, len(s.states))
	for c := range s.states {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Peek returns the atom's committed value without computing, tracking, or
// mounting anything. The second result is false when no value is committed
// (unknown atom, stale entry, or unsettled async read).
func (s *Store) Peek(a AnyAtom) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[a.conf()]
	if !ok || !st.valid {
		return nil, false
	}
	return st.value, true
}

// DependenciesOf returns the atoms read during the atom's last computation,
// in creation order.
func (s *Store) DependenciesOf(a AnyAtom) []AnyAtom {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[a.conf()]
	if !ok {
		return nil
	}
	return sortedConfigs(st.deps)
}

// DependentsOf returns the atoms whose last computation read this atom, in
// creation order.
func (s *Store) DependentsOf(a AnyAtom) []AnyAtom {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[a.conf()]
	if !ok {
		return nil
	}
	return sortedConfigs(st.dependents)
}

// IsMounted reports whether the atom is in the mounted set.
func (s *Store) IsMounted(a AnyAtom) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[a.conf()]
	return ok && st.mount != nil
}

// IsPending reports whether the atom has an unsettled async read in flight.
func (s *Store) IsPending(a AnyAtom) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[a.conf()]
	return ok && st.pending != nil && !st.pending.Settled()
}

func sortedConfigs(set map[*config]struct{}) []AnyAtom {
	out := make([]AnyAtom, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
