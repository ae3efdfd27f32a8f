// Package atomo is the public facade for the atomo reactive state engine.
//
// This is the recommended import for applications that use the process-wide
// default scope:
//
//	count := atomo.New(0, atomo.WithLabel("count"))
//	double := atomo.Derived(func(g atomo.Getter) (int, error) {
//		n, err := atomo.ReadAtom(g, count)
//		return n * 2, err
//	})
//
//	unsubscribe := atomo.Subscribe(double, func() { /* re-render */ })
//	defer unsubscribe()
//
//	atomo.Set(count, 5)
//	v, _ := atomo.Get(double) // 10
//
// Hosts that need isolated scopes (tests, multi-tenant servers) should use
// pkg/atom directly and create stores with atom.NewStore.
package atomo

import (
	"context"

	"github.com/atomo-dev/atomo/pkg/atom"
)

// Core types re-exported from pkg/atom.
type (
	// Store is an isolated scope of the dependency graph.
	Store = atom.Store

	// AnyAtom is the type-erased handle to an atom configuration.
	AnyAtom = atom.AnyAtom

	// Getter reads other atoms inside computations.
	Getter = atom.Getter

	// Setter commits values from inside write computations.
	Setter = atom.Setter

	// MountAPI is the set-only capability handed to mount hooks.
	MountAPI = atom.MountAPI

	// Option configures an atom at construction time.
	Option = atom.Option

	// StoreOption configures a store at construction time.
	StoreOption = atom.StoreOption

	// Pending marks an unsettled async computation.
	Pending = atom.Pending

	// PendingError reports a read that observed an unsettled async value.
	PendingError = atom.PendingError
)

// Sentinel errors re-exported from pkg/atom.
var (
	ErrPending    = atom.ErrPending
	ErrSuperseded = atom.ErrSuperseded
	ErrCycle      = atom.ErrCycle
	ErrReadOnly   = atom.ErrReadOnly
)

// Atom construction options.
var (
	// WithLabel attaches a non-semantic debug label.
	WithLabel = atom.WithLabel

	// WithOnMount registers a first-subscriber hook.
	WithOnMount = atom.WithOnMount
)

// NewStore creates an isolated store scope.
func NewStore(opts ...StoreOption) *Store {
	return atom.NewStore(opts...)
}

// DefaultStore returns the process-wide default store, created lazily on
// first use and never torn down.
func DefaultStore() *Store {
	return atom.Default()
}

// New creates a primitive atom holding the given initial value.
func New[T any](initial T, opts ...Option) atom.Atom[T] {
	return atom.New(initial, opts...)
}

// Derived creates a read-only atom computed from other atoms.
func Derived[T any](read func(g Getter) (T, error), opts ...Option) atom.Atom[T] {
	return atom.Derived(read, opts...)
}

// Writable creates a derived atom with a custom write computation.
func Writable[T any](read func(g Getter) (T, error), write func(g Getter, s Setter, update T) error, opts ...Option) atom.Atom[T] {
	return atom.Writable(read, write, opts...)
}

// Async creates an atom whose value is computed asynchronously.
func Async[T any](read func(ctx context.Context, g Getter) (T, error), opts ...Option) atom.Atom[T] {
	return atom.Async(read, opts...)
}

// ReadAtom resolves a dependency with its static type inside a derived read.
func ReadAtom[T any](g Getter, a atom.Atom[T]) (T, error) {
	return atom.Read(g, a)
}

// Get resolves the atom's current value in the default store.
func Get[T any](a atom.Atom[T]) (T, error) {
	return atom.Get(atom.Default(), a)
}

// Set applies an update in the default store and propagates before
// returning.
func Set[T any](a atom.Atom[T], value T) error {
	return atom.Set(atom.Default(), a, value)
}

// Update applies a functional update in the default store.
func Update[T any](a atom.Atom[T], fn func(T) T) error {
	return atom.Update(atom.Default(), a, fn)
}

// Subscribe registers external interest in the atom within the default
// store.
func Subscribe(a AnyAtom, fn func()) (unsubscribe func()) {
	return atom.Default().Subscribe(a, fn)
}

// Await reads the atom in the default store, blocking until its async value
// settles.
func Await[T any](ctx context.Context, a atom.Atom[T]) (T, error) {
	return atom.Await(ctx, atom.Default(), a)
}
