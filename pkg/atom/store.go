package atom

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"go.opentelemetry.io/otel/trace"
)

// state is the per-store bookkeeping for one atom configuration. Entries are
// created lazily on first read or write.
type state struct {
	cfg *config

	// value is the last committed value; meaningful only when valid.
	value any
	valid bool

	// computing guards against re-entrant reads of the same atom.
	computing bool

	// deps and dependents are the live dependency edges. Across all states
	// dependents is kept as the exact transpose of deps; rewireLocked is the
	// only writer of either side.
	deps       map[*config]struct{}
	dependents map[*config]struct{}

	// mount is non-nil while the atom is in the mounted set.
	mount *mountState

	// gen numbers async reads for this atom. Only the newest generation may
	// commit; older resolutions are discarded.
	gen          uint64
	pending      *Pending
	pendingFresh bool
	cancel       context.CancelFunc
}

// mountState tracks external interest in a mounted atom.
type mountState struct {
	// subscribers maps subscription ID to the external callback.
	subscribers map[uint64]func()

	// unmount is the callback returned by the atom's mount hook, if any.
	unmount func()
}

// Store is one scope of the dependency graph: values, edges, mount state and
// pending async reads for the atoms used within it. All mutation is
// serialized behind a single mutex; user callbacks (subscriber
// notifications, mount hooks) always run with the lock released.
type Store struct {
	mu     sync.Mutex
	states map[*config]*state
	logger *slog.Logger

	// queued accumulates callbacks to run once the lock drops.
	queued []func()

	// unmountCandidates are atoms whose subscriber count may have reached
	// zero during the current pass. They are checked once at the end of the
	// pass, so an atom dropped and re-added within one pass sees no spurious
	// unmount/mount pair.
	unmountCandidates map[*config]struct{}

	metrics *storeMetrics
	tracer  trace.Tracer
}

// StoreOption configures a store at construction time.
type StoreOption func(*Store)

// WithLogger sets the store's logger. The default logs through
// slog.Default with a component attribute.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// WithInitial seeds the store with a committed value for the atom, bypassing
// its initial value or read computation. A seeded derived atom holds the
// value until a propagation pass or invalidation marks it stale.
func WithInitial(a AnyAtom, value any) StoreOption {
	return func(s *Store) {
		st := s.ensureLocked(a.conf())
		st.value = value
		st.valid = true
	}
}

// NewStore creates an empty store. Each store is an isolated scope: the same
// atom configuration resolves independently in different stores.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		states:            make(map[*config]*state),
		unmountCandidates: make(map[*config]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default().With("component", "store")
	}
	return s
}

// Get returns the atom's current value, computing it if absent or stale. An
// async atom whose computation has not settled yields a *PendingError
// (errors.Is(err, ErrPending)); a read computation that fails returns its
// error unchanged and leaves any prior cached value intact.
func (s *Store) Get(a AnyAtom) (any, error) {
	c := a.conf()
	s.mu.Lock()
	v, err := s.valueLocked(c)
	s.processUnmountsLocked()
	notes := s.drainQueuedLocked()
	s.mu.Unlock()
	for _, n := range notes {
		n()
	}
	s.recordRead(err)
	return v, err
}

// Get resolves the atom in the given store with its static type.
func Get[T any](s *Store, a Atom[T]) (T, error) {
	var zero T
	v, err := s.Get(a)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	tv, ok := v.(T)
	if !ok {
		return zero, &TypeError{Atom: a, Value: v}
	}
	return tv, nil
}

// valueLocked resolves c to a committed value or a pending error.
func (s *Store) valueLocked(c *config) (any, error) {
	st, err := s.computeLocked(c)
	if err != nil {
		return nil, err
	}
	if st.valid {
		return st.value, nil
	}
	if st.pending != nil {
		return nil, &PendingError{Pending: st.pending, Label: c.label}
	}
	return nil, fmt.Errorf("atom: no value committed for %q", c.label)
}

// computeLocked is the read procedure. It runs the read computation with a
// tracking getter and then replaces the atom's dependency set with exactly
// the atoms read during this pass, so conditional branches drop the edges
// they no longer take.
func (s *Store) computeLocked(c *config) (*state, error) {
	st := s.ensureLocked(c)
	if st.valid {
		return st, nil
	}
	if st.computing {
		return nil, &CycleError{Label: c.label}
	}
	switch {
	case c.asyncRead != nil:
		if st.pending != nil && st.pendingFresh {
			// A current read is in flight (or settled with an error that
			// has not been invalidated); concurrent readers observe it
			// rather than issuing another.
			return st, nil
		}
		s.startAsyncLocked(st)
		return st, nil

	case c.read != nil:
		st.computing = true
		tr := &tracker{store: s, deps: make(map[*config]struct{})}
		v, err := c.read(tr)
		st.computing = false
		// Rewire even when the read failed: a computation parked on a
		// pending dependency must wake up when that dependency settles.
		s.rewireLocked(st, tr.deps)
		if err != nil {
			return nil, err
		}
		st.value = v
		st.valid = true
		return st, nil

	default:
		st.value = c.init
		st.valid = true
		return st, nil
	}
}

func (s *Store) ensureLocked(c *config) *state {
	st, ok := s.states[c]
	if !ok {
		st = &state{
			cfg:        c,
			deps:       make(map[*config]struct{}),
			dependents: make(map[*config]struct{}),
		}
		s.states[c] = st
		if s.metrics != nil {
			s.metrics.atoms.Inc()
		}
	}
	return st
}

// rewireLocked replaces st's dependency set with deps, updating both sides
// of the edge maps. When st is mounted, newly read dependencies are mounted
// transitively and dropped ones become unmount candidates for the
// end-of-pass check.
func (s *Store) rewireLocked(st *state, deps map[*config]struct{}) {
	for d := range st.deps {
		if _, ok := deps[d]; ok {
			continue
		}
		delete(st.deps, d)
		if ds, ok := s.states[d]; ok {
			delete(ds.dependents, st.cfg)
			if ds.mount != nil {
				s.unmountCandidates[d] = struct{}{}
			}
		}
	}
	for d := range deps {
		if _, ok := st.deps[d]; ok {
			continue
		}
		st.deps[d] = struct{}{}
		ds := s.ensureLocked(d)
		ds.dependents[st.cfg] = struct{}{}
		if st.mount != nil {
			s.mountLocked(d)
		}
	}
}

// tracker is the dependency-recording getter handed to synchronous derived
// reads. The store lock is held for its entire lifetime.
type tracker struct {
	store *Store
	deps  map[*config]struct{}
}

func (t *tracker) Get(a AnyAtom) (any, error) {
	c := a.conf()
	t.deps[c] = struct{}{}
	return t.store.valueLocked(c)
}

// untrackedGetter serves write computations: reads observe committed values
// without recording edges. The store lock is held.
type untrackedGetter struct {
	store *Store
}

func (g untrackedGetter) Get(a AnyAtom) (any, error) {
	return g.store.valueLocked(a.conf())
}

// writer collects the commits made during a write body so propagation can
// run once when the outermost write returns.
type writer struct {
	store     *Store
	committed []*config
}

func (w *writer) Set(a AnyAtom, update any) error {
	return w.store.applyLocked(a.conf(), update, w)
}

// applyLocked routes an update through the atom's write computation, or
// commits it directly for primitives.
func (s *Store) applyLocked(c *config, update any, w *writer) error {
	if c.write != nil {
		return c.write(untrackedGetter{s}, w, update)
	}
	if c.read != nil || c.asyncRead != nil {
		if c.label != "" {
			return fmt.Errorf("%w: %s", ErrReadOnly, c.label)
		}
		return ErrReadOnly
	}
	st := s.ensureLocked(c)
	st.value = update
	st.valid = true
	w.committed = append(w.committed, c)
	return nil
}

// queueSubscribersLocked queues the atom's subscriber callbacks in
// subscription order.
func (s *Store) queueSubscribersLocked(st *state) {
	if st.mount == nil || len(st.mount.subscribers) == 0 {
		return
	}
	ids := make([]uint64, 0, len(st.mount.subscribers))
	for id := range st.mount.subscribers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		s.queued = append(s.queued, st.mount.subscribers[id])
	}
}

func (s *Store) drainQueuedLocked() []func() {
	q := s.queued
	s.queued = nil
	return q
}
