package split

import (
	"errors"
	"testing"

	"github.com/atomo-dev/atomo/pkg/atom"
)

func TestSliceReusesPositionalIdentity(t *testing.T) {
	s := atom.NewStore()
	parent := atom.New([]string{"a", "b", "c"}, atom.WithLabel("letters"))
	list := Slice(parent)

	first, err := atom.Get(s, list)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("expected 3 element atoms, got %d", len(first))
	}

	if err := atom.Set(s, parent, []string{"x", "y", "z"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	second, err := atom.Get(s, list)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	for i := range second {
		if second[i].ID() != first[i].ID() {
			t.Errorf("position %d changed identity across parent update", i)
		}
	}

	// The surviving element atom reads the new value.
	if v, _ := atom.Get(s, second[1]); v != "y" {
		t.Errorf("expected y at position 1, got %q", v)
	}
}

func TestSliceElementWriteReplacesSlotImmutably(t *testing.T) {
	s := atom.NewStore()
	orig := []int{1, 2, 3}
	parent := atom.New(orig, atom.WithLabel("nums"))
	list := Slice(parent)

	elems, err := atom.Get(s, list)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if err := atom.Set(s, elems[1], 20); err != nil {
		t.Fatalf("element set failed: %v", err)
	}

	got, _ := atom.Get(s, parent)
	if got[0] != 1 || got[1] != 20 || got[2] != 3 {
		t.Errorf("expected [1 20 3], got %v", got)
	}
	// The previous slice is untouched.
	if orig[1] != 2 {
		t.Errorf("write mutated the original slice: %v", orig)
	}
}

func TestSliceOrphanedElementFails(t *testing.T) {
	s := atom.NewStore()
	parent := atom.New([]int{1, 2, 3}, atom.WithLabel("nums"))
	list := Slice(parent)

	elems, err := atom.Get(s, list)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	last := elems[2]

	if err := atom.Set(s, parent, []int{1, 2}); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if _, err := atom.Get(s, last); !errors.Is(err, ErrOrphan) {
		t.Errorf("expected ErrOrphan on read, got %v", err)
	}
	if err := atom.Set(s, last, 9); !errors.Is(err, ErrOrphan) {
		t.Errorf("expected ErrOrphan on write, got %v", err)
	}
}

func TestKeyedIdentitySurvivesReorder(t *testing.T) {
	type task struct {
		ID   string
		Done bool
	}
	s := atom.NewStore()
	parent := atom.New([]task{{ID: "a"}, {ID: "b"}}, atom.WithLabel("tasks"))
	list := Keyed(parent, func(e task) string { return e.ID })

	first, err := atom.Get(s, list)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	atomA, atomB := first[0], first[1]

	if err := atom.Set(s, parent, []task{{ID: "b"}, {ID: "a"}}); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	second, err := atom.Get(s, list)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if second[0].ID() != atomB.ID() || second[1].ID() != atomA.ID() {
		t.Error("keyed elements should keep identity across reorder")
	}

	// Writing through a moved element updates the right slot.
	if err := atom.Set(s, atomA, task{ID: "a", Done: true}); err != nil {
		t.Fatalf("element set failed: %v", err)
	}
	got, _ := atom.Get(s, parent)
	if !got[1].Done || got[0].Done {
		t.Errorf("expected only task a done, got %v", got)
	}
}

func TestKeyedRemovedKeyOrphans(t *testing.T) {
	s := atom.NewStore()
	parent := atom.New([]string{"a", "b"}, atom.WithLabel("keys"))
	list := Keyed(parent, func(e string) string { return e })

	elems, err := atom.Get(s, list)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	bAtom := elems[1]

	if err := atom.Set(s, parent, []string{"a"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if _, err := atom.Get(s, list); err != nil {
		t.Fatalf("list recompute failed: %v", err)
	}
	if _, err := atom.Get(s, bAtom); !errors.Is(err, ErrOrphan) {
		t.Errorf("expected ErrOrphan for removed key, got %v", err)
	}
}

func TestElementLabels(t *testing.T) {
	s := atom.NewStore()
	parent := atom.New([]int{5}, atom.WithLabel("items"))
	list := Slice(parent)

	elems, err := atom.Get(s, list)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got := elems[0].Label(); got != "items[0]" {
		t.Errorf("expected label items[0], got %q", got)
	}
	if got := list.Label(); got != "items" {
		t.Errorf("expected list label items, got %q", got)
	}
}
