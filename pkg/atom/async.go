package atom

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// startAsyncLocked issues a new generation of the atom's async read. The
// pending marker is parked before the goroutine launches, so re-entrant and
// concurrent reads observe "pending" instead of recursing. Any in-flight
// older generation is cancelled and its marker settled as superseded.
func (s *Store) startAsyncLocked(st *state) {
	st.gen++
	gen := st.gen
	if st.cancel != nil {
		st.cancel()
		st.cancel = nil
	}
	if st.pending != nil {
		st.pending.settle(nil, ErrSuperseded)
	}

	p := newPending()
	st.pending = p
	st.pendingFresh = true
	st.valid = false

	ctx, cancel := context.WithCancel(context.Background())
	st.cancel = cancel
	g := &asyncGetter{store: s, target: st.cfg, deps: make(map[*config]struct{})}
	cfg := st.cfg

	go func() {
		v, err := cfg.asyncRead(ctx, g)
		s.asyncCommit(cfg, gen, p, g, v, err)
	}()
}

// asyncGetter records dependencies from an async read. Unlike the sync
// tracker it takes the store lock per call, because the read runs on its own
// goroutine. Edges are added eagerly as they are read: an in-flight read
// must be superseded when one of its dependencies is written, so the edge
// cannot wait for commit. The commit rewires to the exact recorded set,
// dropping edges a previous generation no longer reads.
type asyncGetter struct {
	store  *Store
	target *config

	mu   sync.Mutex
	deps map[*config]struct{}
}

func (g *asyncGetter) Get(a AnyAtom) (any, error) {
	c := a.conf()
	g.mu.Lock()
	g.deps[c] = struct{}{}
	g.mu.Unlock()

	g.store.mu.Lock()
	if tst, ok := g.store.states[g.target]; ok {
		if _, exists := tst.deps[c]; !exists {
			tst.deps[c] = struct{}{}
			ds := g.store.ensureLocked(c)
			ds.dependents[g.target] = struct{}{}
			if tst.mount != nil {
				g.store.mountLocked(c)
			}
		}
	}
	v, err := g.store.valueLocked(c)
	notes := g.store.drainQueuedLocked()
	g.store.mu.Unlock()
	for _, n := range notes {
		n()
	}
	return v, err
}

func (g *asyncGetter) snapshot() map[*config]struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[*config]struct{}, len(g.deps))
	for c := range g.deps {
		out[c] = struct{}{}
	}
	return out
}

// asyncCommit applies a finished async read. A superseded generation is
// discarded without touching the graph. The current generation rewires the
// dependency edges it recorded, then either commits and propagates like a
// write, or settles the marker with the computation's error so awaiters see
// the rejection.
func (s *Store) asyncCommit(c *config, gen uint64, p *Pending, g *asyncGetter, v any, err error) {
	s.mu.Lock()
	st, ok := s.states[c]
	if !ok || st.gen != gen {
		s.mu.Unlock()
		p.settle(nil, ErrSuperseded)
		s.logger.Debug("stale async resolution discarded", "atom", c.label, "id", c.id)
		if s.metrics != nil {
			s.metrics.asyncDiscards.Inc()
		}
		return
	}
	st.cancel = nil
	s.rewireLocked(st, g.snapshot())

	if err != nil {
		// Exceptional pending state: the settled marker carries the
		// rejection until an invalidation retries the read. The rejection
		// propagates like a commit so subscribers of mounted dependents
		// learn about it too, not only holders of the marker.
		p.settle(nil, err)
		s.propagateLocked([]*config{c})
		notes := s.drainQueuedLocked()
		s.mu.Unlock()
		for _, n := range notes {
			n()
		}
		s.traceResolve(c, err)
		return
	}

	st.value = v
	st.valid = true
	st.pending = nil
	p.settle(v, nil)
	s.propagateLocked([]*config{c})
	notes := s.drainQueuedLocked()
	s.mu.Unlock()
	for _, n := range notes {
		n()
	}
	s.traceResolve(c, nil)
}

// traceResolve records an async settlement span when tracing is enabled.
func (s *Store) traceResolve(c *config, err error) {
	if s.tracer == nil {
		return
	}
	_, span := s.tracer.Start(context.Background(), "atomo.resolve",
		trace.WithAttributes(
			attribute.Int64("atom.id", int64(c.id)),
			attribute.String("atom.label", c.label),
		))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
