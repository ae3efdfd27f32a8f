package atom

import (
	"context"
	"errors"
	"sync"
)

// Pending marks an async computation that has been issued but whose result
// is not yet committed. A marker settles exactly once: with a value, with
// the computation's error, or with ErrSuperseded when a newer read replaced
// it.
type Pending struct {
	done chan struct{}

	mu      sync.Mutex
	settled bool
	value   any
	err     error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

// Done returns a channel closed when the marker settles.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Settled reports whether the marker has settled.
func (p *Pending) Settled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settled
}

// Result returns the settled value or error. Before settlement it returns
// ErrPending; callers should wait on Done first.
func (p *Pending) Result() (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.settled {
		return nil, ErrPending
	}
	return p.value, p.err
}

// settle records the outcome and releases waiters. Settling twice is a no-op
// so a superseded marker cannot be re-settled by its late computation.
func (p *Pending) settle(v any, err error) {
	p.mu.Lock()
	if p.settled {
		p.mu.Unlock()
		return
	}
	p.value = v
	p.err = err
	p.settled = true
	p.mu.Unlock()
	close(p.done)
}

// Await reads the atom, blocking until its value is available. Pending
// markers are waited on and re-read, so a read superseded mid-flight is
// retried against the newer computation. A settled rejection is returned as
// the error; the context bounds the total wait.
func Await[T any](ctx context.Context, s *Store, a Atom[T]) (T, error) {
	var zero T
	for {
		v, err := Get(s, a)
		if err == nil {
			return v, nil
		}
		var pe *PendingError
		if !errors.As(err, &pe) {
			return zero, err
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-pe.Pending.Done():
		}
		if _, perr := pe.Pending.Result(); perr != nil && !errors.Is(perr, ErrSuperseded) {
			return zero, perr
		}
		// Resolved or superseded: re-read to observe the current state.
	}
}
