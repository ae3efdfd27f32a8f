package atom

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Set applies an update to the atom and propagates to its transitive
// dependents before returning: every affected mounted atom has recomputed
// and its subscribers have been queued by the time Set returns, so a reader
// immediately after a write never observes a partially propagated graph.
// Unmounted dependents are left stale and recompute lazily on their next
// read.
//
// Recomputation order is deterministic: dependency depth ascending, then
// atom creation order within a depth.
func (s *Store) Set(a AnyAtom, update any) error {
	c := a.conf()
	var span trace.Span
	if s.tracer != nil {
		_, span = s.tracer.Start(context.Background(), "atomo.write",
			trace.WithAttributes(
				attribute.Int64("atom.id", int64(c.id)),
				attribute.String("atom.label", c.label),
			))
		defer span.End()
	}

	start := time.Now()
	s.mu.Lock()
	w := &writer{store: s}
	err := s.applyLocked(c, update, w)
	recomputed := 0
	if err == nil {
		recomputed = s.propagateLocked(w.committed)
	}
	notes := s.drainQueuedLocked()
	s.mu.Unlock()
	for _, n := range notes {
		n()
	}

	s.recordWrite(time.Since(start), recomputed, err)
	if span != nil {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int("atomo.recomputed", recomputed))
			span.SetStatus(codes.Ok, "")
		}
	}
	return err
}

// Set applies a typed update to the atom in the given store.
func Set[T any](s *Store, a Atom[T], value T) error {
	return s.Set(a, value)
}

// Update applies a functional update: fn receives the current value and
// returns the replacement. The read is untracked.
func Update[T any](s *Store, a Atom[T], fn func(T) T) error {
	cur, err := Get(s, a)
	if err != nil {
		return err
	}
	return s.Set(a, fn(cur))
}

// Invalidate marks the atom stale. A mounted atom recomputes immediately
// and propagates like a write; an unmounted one recomputes on its next
// read. For async atoms this is the explicit retry path after a rejection.
func (s *Store) Invalidate(a AnyAtom) {
	c := a.conf()
	s.mu.Lock()
	st, ok := s.states[c]
	if !ok {
		s.mu.Unlock()
		return
	}
	st.valid = false
	st.pendingFresh = false
	if st.mount != nil {
		if _, err := s.computeLocked(c); err != nil {
			s.logRecomputeLocked(c, err)
		}
		s.propagateLocked([]*config{c})
	}
	notes := s.drainQueuedLocked()
	s.mu.Unlock()
	for _, n := range notes {
		n()
	}
}

// propagateLocked walks the dependent edges from the committed roots,
// invalidates every transitively affected atom, and recomputes the mounted
// ones in depth order: an atom never recomputes before all of its updated
// dependencies have committed in this pass. Finishes with the end-of-pass
// unmount check and the garbage collection sweep. Returns the number of
// recomputed atoms.
func (s *Store) propagateLocked(roots []*config) int {
	if len(roots) == 0 {
		s.processUnmountsLocked()
		return 0
	}

	// Depth is the longest path from any root, found by relaxing over the
	// dependent edges. The graph is acyclic: read-time cycle detection
	// refuses the edges that would close a loop.
	depth := make(map[*config]int, len(roots))
	queue := make([]*config, 0, len(roots))
	for _, r := range roots {
		if _, ok := depth[r]; !ok {
			depth[r] = 0
			queue = append(queue, r)
		}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		st, ok := s.states[cur]
		if !ok {
			continue
		}
		d := depth[cur]
		for dep := range st.dependents {
			if old, seen := depth[dep]; !seen || d+1 > old {
				depth[dep] = d + 1
				queue = append(queue, dep)
			}
		}
	}

	affected := make([]*config, 0, len(depth))
	for c, d := range depth {
		if d == 0 {
			continue // roots committed already
		}
		affected = append(affected, c)
		if st, ok := s.states[c]; ok {
			st.valid = false
			st.pendingFresh = false
		}
	}
	sort.Slice(affected, func(i, j int) bool {
		if depth[affected[i]] != depth[affected[j]] {
			return depth[affected[i]] < depth[affected[j]]
		}
		return affected[i].id < affected[j].id
	})

	recomputed := 0
	for _, c := range affected {
		st, ok := s.states[c]
		if !ok || st.mount == nil {
			continue
		}
		if _, err := s.computeLocked(c); err != nil {
			s.logRecomputeLocked(c, err)
		}
		recomputed++
	}

	// Notify in pass order: written roots first, then dependents as they
	// recomputed.
	seen := make(map[*config]struct{}, len(depth))
	for _, c := range append(append(make([]*config, 0, len(depth)), roots...), affected...) {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		if st, ok := s.states[c]; ok {
			s.queueSubscribersLocked(st)
		}
	}

	s.processUnmountsLocked()
	s.collectLocked()
	return recomputed
}

func (s *Store) logRecomputeLocked(c *config, err error) {
	if errors.Is(err, ErrPending) {
		s.logger.Debug("recompute pending", "atom", c.label, "id", c.id)
		return
	}
	s.logger.Warn("recompute failed", "atom", c.label, "id", c.id, "error", err)
}

// collectLocked drops synchronously derived entries no longer reachable
// from any subscriber or dependent, removing their edges from both sides.
// Primitive entries persist because they hold authoritative state; async
// entries persist because their computations are effectful and re-evicting
// them would re-issue the work on every read. Runs after every propagation
// pass and on Collect.
func (s *Store) collectLocked() {
	for {
		removed := false
		for c, st := range s.states {
			if c.read == nil {
				continue
			}
			if st.mount != nil || len(st.dependents) > 0 {
				continue
			}
			for d := range st.deps {
				if ds, ok := s.states[d]; ok {
					delete(ds.dependents, c)
				}
			}
			delete(s.states, c)
			if s.metrics != nil {
				s.metrics.atoms.Dec()
			}
			removed = true
		}
		if !removed {
			return
		}
	}
}

// Collect runs the garbage collection sweep on demand.
func (s *Store) Collect() {
	s.mu.Lock()
	s.collectLocked()
	s.mu.Unlock()
}
