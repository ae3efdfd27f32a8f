package atom

import (
	"errors"
	"fmt"
)

// ErrPending is the sentinel matched by errors.Is when a read observes an
// async computation that has not settled. The concrete error is always a
// *PendingError carrying the pending marker.
var ErrPending = errors.New("atom: value pending")

// ErrSuperseded settles a pending marker whose computation was replaced by a
// newer read before it finished. Callers waiting on the old marker should
// re-read the atom to pick up the current one.
var ErrSuperseded = errors.New("atom: pending read superseded")

// ErrCycle is returned when a read computation reads an atom that is
// currently being computed, directly or transitively. The concrete error
// names the atom where the cycle closed.
var ErrCycle = errors.New("atom: dependency cycle")

// ErrReadOnly is returned when writing to a derived atom that has no write
// computation.
var ErrReadOnly = errors.New("atom: atom is read-only")

// PendingError reports that an atom's value is not yet available. It wraps
// ErrPending and carries the marker the caller can wait on.
type PendingError struct {
	// Pending is the in-flight (or settled-with-error) computation marker.
	Pending *Pending

	// Label is the atom's debug label, if any.
	Label string
}

// Error implements the error interface.
func (e *PendingError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("atom: value pending (%s)", e.Label)
	}
	return "atom: value pending"
}

// Unwrap returns ErrPending for errors.Is support.
func (e *PendingError) Unwrap() error { return ErrPending }

// CycleError reports a dependency cycle detected during a read computation.
type CycleError struct {
	// Label is the debug label of the atom where the cycle closed.
	Label string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("atom: dependency cycle through %q", e.Label)
	}
	return "atom: dependency cycle"
}

// Unwrap returns ErrCycle for errors.Is support.
func (e *CycleError) Unwrap() error { return ErrCycle }

// TypeError reports a value whose dynamic type does not match the atom's
// declared type parameter.
type TypeError struct {
	// Atom is the configuration the value was read from or written to.
	Atom AnyAtom

	// Value is the offending value.
	Value any
}

// Error implements the error interface.
func (e *TypeError) Error() string {
	if e.Atom != nil && e.Atom.Label() != "" {
		return fmt.Sprintf("atom: unexpected value type %T for %q", e.Value, e.Atom.Label())
	}
	return fmt.Sprintf("atom: unexpected value type %T", e.Value)
}
