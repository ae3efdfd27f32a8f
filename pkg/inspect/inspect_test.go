package inspect

import (
	"encoding/json"
	"testing"

	"github.com/atomo-dev/atomo/pkg/atom"
)

func TestSnapshotCapturesGraph(t *testing.T) {
	s := atom.NewStore()
	count := atom.New(2, atom.WithLabel("count"))
	double := atom.Derived(func(g atom.Getter) (int, error) {
		n, err := atom.Read(g, count)
		return n * 2, err
	}, atom.WithLabel("double"))

	unsub := s.Subscribe(double, func() {})
	defer unsub()

	g := Snapshot(s)
	if len(g.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(g.Nodes))
	}

	byLabel := map[string]Node{}
	for _, n := range g.Nodes {
		byLabel[n.Label] = n
	}

	c, ok := byLabel["count"]
	if !ok {
		t.Fatal("count node missing")
	}
	if c.Kind != "primitive" || c.Value != "2" || !c.HasView || !c.Mounted {
		t.Errorf("unexpected count node: %+v", c)
	}

	d, ok := byLabel["double"]
	if !ok {
		t.Fatal("double node missing")
	}
	if d.Kind != "derived" || d.Value != "4" {
		t.Errorf("unexpected double node: %+v", d)
	}
	if len(d.DependsOn) != 1 || d.DependsOn[0] != count.ID() {
		t.Errorf("expected double to depend on count, got %v", d.DependsOn)
	}
}

func TestSnapshotDoesNotComputeLazyAtoms(t *testing.T) {
	s := atom.NewStore()
	computed := false
	lazy := atom.Derived(func(g atom.Getter) (int, error) {
		computed = true
		return 1, nil
	}, atom.WithLabel("lazy"))
	_ = lazy

	g := Snapshot(s)
	if computed {
		t.Error("snapshot triggered a computation")
	}
	if len(g.Nodes) != 0 {
		t.Errorf("expected empty graph for untouched store, got %d nodes", len(g.Nodes))
	}
}

func TestGraphMarshals(t *testing.T) {
	s := atom.NewStore()
	a := atom.New("hello", atom.WithLabel("greeting"))
	if err := atom.Set(s, a, "world"); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	out, err := Snapshot(s).MarshalIndent()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var back Graph
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if len(back.Nodes) != 1 || back.Nodes[0].Value != "world" {
		t.Errorf("unexpected round-tripped graph: %+v", back.Nodes)
	}
}
