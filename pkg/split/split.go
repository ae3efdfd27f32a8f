// Package split derives per-element atoms from a slice-valued atom. The
// derived atom's value is one atom configuration per element of the current
// slice; configurations are reused across parent updates for surviving
// positions (Slice) or keys (Keyed), and element atoms write back by
// replacing their slot in an immutable copy of the parent slice.
package split

import (
	"errors"
	"fmt"
	"sync"

	"github.com/atomo-dev/atomo/pkg/atom"
)

// ErrOrphan is returned when reading or writing an element atom whose slot
// no longer exists in the parent collection.
var ErrOrphan = errors.New("split: element no longer present")

// Option configures a splitter.
type Option func(*options)

type options struct {
	label string
}

// WithLabel sets the debug label used for the derived list atom and as the
// prefix of element labels.
func WithLabel(label string) Option {
	return func(o *options) { o.label = label }
}

// Slice splits a slice-valued atom into one atom per element, matching
// elements to element atoms by position: position i keeps its configuration
// for as long as the parent has an element i. Use Keyed when elements move.
func Slice[E any](parent atom.Atom[[]E], opts ...Option) atom.Atom[[]atom.Atom[E]] {
	o := applyOptions(parent, opts)
	sp := &positional[E]{parent: parent, label: o.label}
	return atom.Derived(sp.read, atom.WithLabel(o.label))
}

type positional[E any] struct {
	parent atom.Atom[[]E]
	label  string

	mu    sync.Mutex
	elems []atom.Atom[E]
}

func (sp *positional[E]) read(g atom.Getter) ([]atom.Atom[E], error) {
	es, err := atom.Read(g, sp.parent)
	if err != nil {
		return nil, err
	}
	sp.mu.Lock()
	defer sp.mu.Unlock()
	out := make([]atom.Atom[E], len(es))
	reused := copy(out, sp.elems)
	for i := reused; i < len(es); i++ {
		out[i] = sp.element(i)
	}
	sp.elems = out
	return out, nil
}

func (sp *positional[E]) element(i int) atom.Atom[E] {
	return atom.Writable(
		func(g atom.Getter) (E, error) {
			var zero E
			es, err := atom.Read(g, sp.parent)
			if err != nil {
				return zero, err
			}
			if i >= len(es) {
				return zero, fmt.Errorf("%w: index %d", ErrOrphan, i)
			}
			return es[i], nil
		},
		func(g atom.Getter, s atom.Setter, update E) error {
			es, err := atom.Read(g, sp.parent)
			if err != nil {
				return err
			}
			if i >= len(es) {
				return fmt.Errorf("%w: index %d", ErrOrphan, i)
			}
			next := make([]E, len(es))
			copy(next, es)
			next[i] = update
			return s.Set(sp.parent, next)
		},
		atom.WithLabel(fmt.Sprintf("%s[%d]", sp.label, i)),
	)
}

// Keyed splits a slice-valued atom into one atom per element, matching
// elements to element atoms by the extracted key, so an element keeps its
// configuration when it changes position.
func Keyed[E any, K comparable](parent atom.Atom[[]E], key func(E) K, opts ...Option) atom.Atom[[]atom.Atom[E]] {
	o := applyOptions(parent, opts)
	sp := &keyed[E, K]{parent: parent, key: key, label: o.label, elems: make(map[K]atom.Atom[E])}
	return atom.Derived(sp.read, atom.WithLabel(o.label))
}

type keyed[E any, K comparable] struct {
	parent atom.Atom[[]E]
	key    func(E) K
	label  string

	mu    sync.Mutex
	elems map[K]atom.Atom[E]
}

func (sp *keyed[E, K]) read(g atom.Getter) ([]atom.Atom[E], error) {
	es, err := atom.Read(g, sp.parent)
	if err != nil {
		return nil, err
	}
	sp.mu.Lock()
	defer sp.mu.Unlock()
	out := make([]atom.Atom[E], len(es))
	next := make(map[K]atom.Atom[E], len(es))
	for i, e := range es {
		k := sp.key(e)
		a, ok := sp.elems[k]
		if !ok {
			a = sp.element(k)
		}
		next[k] = a
		out[i] = a
	}
	// Keys absent from this pass are dropped; their atoms are orphaned.
	sp.elems = next
	return out, nil
}

func (sp *keyed[E, K]) element(k K) atom.Atom[E] {
	find := func(es []E) (int, bool) {
		for i, e := range es {
			if sp.key(e) == k {
				return i, true
			}
		}
		return 0, false
	}
	return atom.Writable(
		func(g atom.Getter) (E, error) {
			var zero E
			es, err := atom.Read(g, sp.parent)
			if err != nil {
				return zero, err
			}
			i, ok := find(es)
			if !ok {
				return zero, fmt.Errorf("%w: key %v", ErrOrphan, k)
			}
			return es[i], nil
		},
		func(g atom.Getter, s atom.Setter, update E) error {
			es, err := atom.Read(g, sp.parent)
			if err != nil {
				return err
			}
			i, ok := find(es)
			if !ok {
				return fmt.Errorf("%w: key %v", ErrOrphan, k)
			}
			next := make([]E, len(es))
			copy(next, es)
			next[i] = update
			return s.Set(sp.parent, next)
		},
		atom.WithLabel(fmt.Sprintf("%s[%v]", sp.label, k)),
	)
}

func applyOptions[E any](parent atom.Atom[[]E], opts []Option) options {
	o := options{label: parent.Label()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.label == "" {
		o.label = "split"
	}
	return o
}
