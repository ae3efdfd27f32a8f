// Package family provides parameterized atom caches: one memoized atom
// configuration per distinct parameter, looked up with a pluggable equality
// function. Entries persist until explicitly removed; callers own growth.
package family

import (
	"reflect"
	"sync"

	"github.com/atomo-dev/atomo/pkg/atom"
)

// Family memoizes atom configurations by parameter. Calling Atom twice with
// equal parameters returns the identical configuration; Remove evicts the
// entry so the next call mints a fresh identity. Safe for concurrent use.
type Family[P, T any] struct {
	create func(P) atom.Atom[T]
	equal  func(P, P) bool

	mu      sync.Mutex
	entries []entry[P, T]
}

type entry[P, T any] struct {
	param P
	atom  atom.Atom[T]
}

// Option configures a family.
type Option[P any] func(*options[P])

type options[P any] struct {
	equal func(P, P) bool
}

// WithEquality sets the parameter equality function. The default uses == for
// common comparable types and falls back to reflect.DeepEqual.
func WithEquality[P any](equal func(P, P) bool) Option[P] {
	return func(o *options[P]) { o.equal = equal }
}

// New creates a family whose members are built by create on first use.
func New[P, T any](create func(P) atom.Atom[T], opts ...Option[P]) *Family[P, T] {
	o := options[P]{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.equal == nil {
		o.equal = defaultEqual[P]
	}
	return &Family[P, T]{create: create, equal: o.equal}
}

// Atom returns the memoized atom for the parameter, creating it on first
// use.
func (f *Family[P, T]) Atom(param P) atom.Atom[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if f.equal(e.param, param) {
			return e.atom
		}
	}
	a := f.create(param)
	f.entries = append(f.entries, entry[P, T]{param: param, atom: a})
	return a
}

// Remove evicts the entry for the parameter. A later Atom call with an equal
// parameter returns a brand-new configuration; holders of the old one keep
// an orphaned atom, which is the intended reset semantics. Removing an
// absent parameter is a no-op.
func (f *Family[P, T]) Remove(param P) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, e := range f.entries {
		if f.equal(e.param, param) {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return
		}
	}
}

// Len returns the number of cached members.
func (f *Family[P, T]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// Range calls fn for each cached member in creation order until fn returns
// false. The snapshot is taken up front, so fn may call back into the
// family.
func (f *Family[P, T]) Range(fn func(param P, a atom.Atom[T]) bool) {
	f.mu.Lock()
	snapshot := make([]entry[P, T], len(f.entries))
	copy(snapshot, f.entries)
	f.mu.Unlock()
	for _, e := range snapshot {
		if !fn(e.param, e.atom) {
			return
		}
	}
}

// defaultEqual provides type-appropriate parameter equality. Uses == for
// common comparable types and reflect.DeepEqual for the rest.
func defaultEqual[P any](a, b P) bool {
	switch av := any(a).(type) {
	case int:
		return av == any(b).(int)
	case int32:
		return av == any(b).(int32)
	case int64:
		return av == any(b).(int64)
	case uint64:
		return av == any(b).(uint64)
	case float64:
		return av == any(b).(float64)
	case string:
		return av == any(b).(string)
	case bool:
		return av == any(b).(bool)
	default:
		return reflect.DeepEqual(a, b)
	}
}
