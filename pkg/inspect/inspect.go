// Package inspect builds read-only snapshots of a store's dependency graph
// for debug collaborators (devtools panels, the dev inspector server). It
// never mutates the store: values come from Peek, so nothing is computed,
// tracked, or mounted while snapshotting.
package inspect

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/atomo-dev/atomo/pkg/atom"
)

// Node describes one live atom in a snapshot.
type Node struct {
	ID      uint64 `json:"id"`
	Label   string `json:"label,omitempty"`
	Kind    string `json:"kind"`
	Value   string `json:"value,omitempty"`
	HasView bool   `json:"has_value"`
	Pending bool   `json:"pending,omitempty"`
	Mounted bool   `json:"mounted"`

	// DependsOn lists the IDs of the atoms read during the node's last
	// computation.
	DependsOn []uint64 `json:"depends_on,omitempty"`
}

// Graph is a point-in-time snapshot of a store's dependency graph.
type Graph struct {
	TakenAt time.Time `json:"taken_at"`
	Nodes   []Node    `json:"nodes"`
}

// Snapshot captures the store's current graph. Nodes appear in atom creation
// order.
func Snapshot(s *atom.Store) Graph {
	atoms := s.Atoms()
	g := Graph{TakenAt: time.Now(), Nodes: make([]Node, 0, len(atoms))}
	for _, a := range atoms {
		n := Node{
			ID:      a.ID(),
			Label:   a.Label(),
			Kind:    a.Kind().String(),
			Pending: s.IsPending(a),
			Mounted: s.IsMounted(a),
		}
		if v, ok := s.Peek(a); ok {
			n.Value = fmt.Sprintf("%v", v)
			n.HasView = true
		}
		for _, d := range s.DependenciesOf(a) {
			n.DependsOn = append(n.DependsOn, d.ID())
		}
		g.Nodes = append(g.Nodes, n)
	}
	return g
}

// MarshalIndent renders the graph as indented JSON.
func (g Graph) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(g, "", "  ")
}
