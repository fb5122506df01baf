package automaton

import (
	"fmt"
	"sort"

	"github.com/robert-at-pretension-io/rvgen-ltl/internal/ltl"
)

// CreateGraph parses src and builds the automaton of its rule.
func CreateGraph(src string) (*Graph, error) {
	spec, err := ltl.ParseSpec(src)
	if err != nil {
		return nil, fmt.Errorf("parse spec: %w", err)
	}
	return Build(spec), nil
}

// Build normalizes the rule of spec in place and runs the tableau on it.
func Build(spec *ltl.Spec) *Graph {
	ltl.NormalizeTree(spec.Rule)

	atoms := ltl.Atoms(spec.Rule)
	sort.Strings(atoms)

	t := newTableau()
	root := &GraphNode{
		ID:       rootID,
		Incoming: newGraphNodeSet(),
		Outgoing: newGraphNodeSet(),
		New:      newASTSet(),
		Old:      newASTSet(),
		Next:     newASTSet(),
	}
	head := t.node(newGraphNodeSet(root), newASTSet(spec.Rule), newASTSet(), newASTSet())
	t.expand(head)

	nodes := t.closed
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	// The mapping is monotonic, so the ordered sets holding these nodes stay
	// valid.
	for i, n := range nodes {
		n.ID = i
	}

	for _, n := range nodes {
		n.Init = n.Incoming.Contains(root)
		for m := range n.Incoming.Items() {
			if m != root {
				m.Outgoing.Insert(n)
			}
		}
	}
	for _, n := range nodes {
		n.Labels = labels(n)
	}

	return &Graph{
		Nodes: nodes,
		Atoms: atoms,
		Rule:  spec.Rule,
		Spec:  spec,
		root:  root,
	}
}

func labels(n *GraphNode) []string {
	var out []string
	for o := range n.Old.Items() {
		if !o.IsTemporal() {
			out = append(out, o.String())
		}
	}
	return out
}
