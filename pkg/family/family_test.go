package family

import (
	"fmt"
	"testing"

	"github.com/atomo-dev/atomo/pkg/atom"
)

func squares() *Family[int, int] {
	return New(func(n int) atom.Atom[int] {
		return atom.New(n*n, atom.WithLabel(fmt.Sprintf("square(%d)", n)))
	})
}

func TestFamilyMemoizesByParameter(t *testing.T) {
	f := squares()

	a1 := f.Atom(3)
	a2 := f.Atom(3)
	if a1.ID() != a2.ID() {
		t.Errorf("equal parameters should return the identical configuration: %d != %d", a1.ID(), a2.ID())
	}

	b := f.Atom(4)
	if b.ID() == a1.ID() {
		t.Error("distinct parameters should return distinct configurations")
	}
	if f.Len() != 2 {
		t.Errorf("expected 2 members, got %d", f.Len())
	}
}

func TestFamilyRemoveMintsFreshIdentity(t *testing.T) {
	f := squares()
	s := atom.NewStore()

	old := f.Atom(3)
	f.Remove(3)
	fresh := f.Atom(3)
	if fresh.ID() == old.ID() {
		t.Fatal("removed parameter should produce a new configuration")
	}

	// The fresh member still computes the same value once read.
	if v, err := atom.Get(s, fresh); err != nil || v != 9 {
		t.Errorf("expected 9, got %d (err %v)", v, err)
	}

	// The orphaned configuration keeps working in the store; writing it is
	// allowed and simply recreates its entry.
	if err := atom.Set(s, old, 99); err != nil {
		t.Errorf("write to orphaned atom failed: %v", err)
	}
	if v, _ := atom.Get(s, old); v != 99 {
		t.Errorf("expected orphaned atom to hold 99, got %d", v)
	}
}

func TestFamilyRemoveAbsentIsNoop(t *testing.T) {
	f := squares()
	f.Atom(1)
	f.Remove(2)
	if f.Len() != 1 {
		t.Errorf("expected 1 member, got %d", f.Len())
	}
}

func TestFamilyCustomEquality(t *testing.T) {
	type key struct {
		ID      string
		Version int // ignored by equality
	}
	f := New(
		func(k key) atom.Atom[string] { return atom.New(k.ID) },
		WithEquality[key](func(a, b key) bool { return a.ID == b.ID }),
	)

	a1 := f.Atom(key{ID: "a", Version: 1})
	a2 := f.Atom(key{ID: "a", Version: 2})
	if a1.ID() != a2.ID() {
		t.Error("custom equality should treat differing versions as equal")
	}

	b := f.Atom(key{ID: "b"})
	if b.ID() == a1.ID() {
		t.Error("different IDs should not collide")
	}
}

func TestFamilyRangeWalksCreationOrder(t *testing.T) {
	f := squares()
	f.Atom(1)
	f.Atom(2)
	f.Atom(3)

	var params []int
	f.Range(func(p int, _ atom.Atom[int]) bool {
		params = append(params, p)
		return true
	})
	if len(params) != 3 || params[0] != 1 || params[1] != 2 || params[2] != 3 {
		t.Errorf("expected [1 2 3], got %v", params)
	}

	// Early stop.
	n := 0
	f.Range(func(int, atom.Atom[int]) bool {
		n++
		return false
	})
	if n != 1 {
		t.Errorf("expected range to stop after 1, got %d", n)
	}
}
