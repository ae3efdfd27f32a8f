package atom

import "context"

// Kind identifies how an atom's value is produced.
type Kind int

const (
	// KindPrimitive atoms hold a plain value set directly by writes.
	KindPrimitive Kind = iota

	// KindDerived atoms compute their value from other atoms.
	KindDerived

	// KindAsync atoms compute their value asynchronously; reads observe a
	// pending marker until the computation settles.
	KindAsync
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindDerived:
		return "derived"
	case KindAsync:
		return "async"
	default:
		return "unknown"
	}
}

// config is the underlying atom configuration. It is immutable after
// construction; its pointer identity is the atom's identity everywhere in the
// store. Atoms are never keyed by name or string.
type config struct {
	id    uint64
	label string

	// init is the initial value for primitive atoms.
	init any

	// read computes the value of a derived atom. nil for primitives.
	read func(g Getter) (any, error)

	// asyncRead computes the value of an async atom off the caller's
	// goroutine. The context is cancelled when the read is superseded.
	asyncRead func(ctx context.Context, g Getter) (any, error)

	// write applies an update. nil means the update replaces the value
	// directly (primitives) or the atom is read-only (derived).
	write func(g Getter, s Setter, update any) error

	// mount runs when the atom gains its first subscriber in a scope.
	// The returned callback, if any, runs when the last subscriber leaves.
	mount func(m MountAPI) func()
}

func (c *config) ID() uint64    { return c.id }
func (c *config) Label() string { return c.label }
func (c *config) conf() *config { return c }

// Kind reports how this atom produces its value.
func (c *config) Kind() Kind {
	switch {
	case c.asyncRead != nil:
		return KindAsync
	case c.read != nil:
		return KindDerived
	default:
		return KindPrimitive
	}
}

// AnyAtom is the type-erased handle to an atom configuration. Two handles
// refer to the same atom exactly when they wrap the same configuration;
// there is no other notion of atom equality.
type AnyAtom interface {
	// ID returns the unique identifier of the configuration.
	ID() uint64

	// Label returns the non-semantic debug label, or "".
	Label() string

	// Kind reports how the atom produces its value.
	Kind() Kind

	conf() *config
}

// Atom is a typed handle to an atom configuration. The zero value is invalid;
// use one of the constructors. Atom values are cheap to copy and safe to
// share: they carry only the configuration pointer.
type Atom[T any] struct {
	c *config
}

// ID returns the unique identifier of the configuration.
func (a Atom[T]) ID() uint64 { return a.c.id }

// Label returns the non-semantic debug label, or "".
func (a Atom[T]) Label() string { return a.c.label }

// Kind reports how the atom produces its value.
func (a Atom[T]) Kind() Kind { return a.c.Kind() }

func (a Atom[T]) conf() *config { return a.c }

// Getter reads other atoms. Inside a derived read computation every Get call
// records a dependency edge for the atom being computed; on the write side
// Get is untracked and observes committed values only.
type Getter interface {
	Get(a AnyAtom) (any, error)
}

// Setter commits values to atoms from inside a write computation. Commits
// are collected and propagated once when the outermost write returns.
type Setter interface {
	Set(a AnyAtom, update any) error
}

// MountAPI is the capability handed to mount hooks. It exposes a single Set
// bound to the mounted atom, so a hook can self-initiate a write without
// holding the whole store.
type MountAPI interface {
	Set(value any) error
}

// Option configures an atom at construction time.
type Option func(*config)

// WithLabel attaches a debug label. Labels are non-semantic: they appear in
// errors, logs and inspection output but never affect identity.
func WithLabel(label string) Option {
	return func(c *config) { c.label = label }
}

// WithOnMount registers a hook invoked when the atom gains its first
// subscriber in a store. The returned callback, if non-nil, is invoked when
// the last subscriber leaves.
func WithOnMount(hook func(m MountAPI) func()) Option {
	return func(c *config) { c.mount = hook }
}

// New creates a primitive atom holding the given initial value.
func New[T any](initial T, opts ...Option) Atom[T] {
	c := &config{id: nextID(), init: initial}
	for _, opt := range opts {
		opt(c)
	}
	return Atom[T]{c}
}

// Derived creates a read-only atom computed from other atoms. The read
// function runs lazily and re-runs whenever a recorded dependency changes;
// dependencies are re-recorded on every run, so conditional reads drop edges
// they no longer take.
func Derived[T any](read func(g Getter) (T, error), opts ...Option) Atom[T] {
	c := &config{
		id: nextID(),
		read: func(g Getter) (any, error) {
			return read(g)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return Atom[T]{c}
}

// Writable creates a derived atom with a custom write computation. The write
// function receives an untracked getter and a setter whose commits propagate
// when the write returns.
func Writable[T any](read func(g Getter) (T, error), write func(g Getter, s Setter, update T) error, opts ...Option) Atom[T] {
	a := Derived(read, opts...)
	a.c.write = func(g Getter, s Setter, update any) error {
		v, ok := update.(T)
		if !ok {
			return &TypeError{Atom: a.c, Value: update}
		}
		return write(g, s, v)
	}
	return a
}

// Async creates an atom whose value is computed asynchronously. Reading it
// while a computation is in flight yields a *PendingError carrying the
// pending marker; Await blocks until the marker settles. When a newer read
// supersedes an in-flight one, the old context is cancelled and its eventual
// result is discarded.
func Async[T any](read func(ctx context.Context, g Getter) (T, error), opts ...Option) Atom[T] {
	c := &config{
		id: nextID(),
		asyncRead: func(ctx context.Context, g Getter) (any, error) {
			return read(ctx, g)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return Atom[T]{c}
}

// Read resolves a dependency with its static type. It is the typed
// counterpart of Getter.Get for use inside derived read functions.
func Read[T any](g Getter, a Atom[T]) (T, error) {
	var zero T
	v, err := g.Get(a)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	tv, ok := v.(T)
	if !ok {
		return zero, &TypeError{Atom: a.c, Value: v}
	}
	return tv, nil
}
