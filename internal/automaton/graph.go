// Package automaton builds a Büchi automaton from an LTL rule with the
// tableau construction of Gerth, Peled, Vardi and Wolper.
package automaton

import (
	"cmp"

	"github.com/hashicorp/go-set/v3"

	"github.com/robert-at-pretension-io/rvgen-ltl/internal/ltl"
)

// rootID marks the synthetic root. Closed nodes are numbered from 0, so the
// root never collides with them in an ordered set.
const rootID = -1

// GraphNode is one tableau node. Once the graph is built every node is
// closed (New is empty) and becomes one automaton state.
type GraphNode struct {
	ID int

	Incoming *set.TreeSet[*GraphNode]
	Outgoing *set.TreeSet[*GraphNode]

	// New holds obligations still to be processed, Old the ones already
	// processed in this state and Next the ones deferred to the successor.
	New  *set.TreeSet[*ltl.Node]
	Old  *set.TreeSet[*ltl.Node]
	Next *set.TreeSet[*ltl.Node]

	// Labels is the guard of the state: the non-temporal members of Old, in
	// AST id order.
	Labels []string
	Init   bool
}

func compareGraphNodes(a, b *GraphNode) int {
	return cmp.Compare(a.ID, b.ID)
}

func compareASTNodes(a, b *ltl.Node) int {
	return cmp.Compare(a.ID(), b.ID())
}

func newGraphNodeSet(items ...*GraphNode) *set.TreeSet[*GraphNode] {
	return set.TreeSetFrom(items, compareGraphNodes)
}

func newASTSet(items ...*ltl.Node) *set.TreeSet[*ltl.Node] {
	return set.TreeSetFrom(items, compareASTNodes)
}

// Graph is the finished automaton.
type Graph struct {
	// Nodes are the states, indexed by their ID.
	Nodes []*GraphNode
	// Atoms are the distinct variable names of the rule, sorted.
	Atoms []string
	// Rule is the normalized rule the automaton was built from.
	Rule *ltl.Node
	Spec *ltl.Spec

	root *GraphNode
}

// InitNodes returns the initial states in ID order.
func (g *Graph) InitNodes() []*GraphNode {
	var out []*GraphNode
	for _, n := range g.Nodes {
		if n.Init {
			out = append(out, n)
		}
	}
	return out
}

// IsRoot reports whether n is the synthetic root that precedes the initial
// states. It only ever shows up in the Incoming set of an initial state.
func (g *Graph) IsRoot(n *GraphNode) bool {
	return n == g.root
}

// ClosureSize counts the distinct sub-formulas of the normalized rule.
// The number of states never exceeds 2^ClosureSize.
func (g *Graph) ClosureSize() int {
	if g.Rule == nil {
		return 0
	}
	size := 0
	ltl.Walk(g.Rule, func(*ltl.Node) bool {
		size++
		return true
	})
	return size
}

// Edges returns every transition as (from, to) ID pairs, ordered by source
// then target.
func (g *Graph) Edges() [][2]int {
	var out [][2]int
	for _, n := range g.Nodes {
		for _, m := range n.Outgoing.Slice() {
			out = append(out, [2]int{n.ID, m.ID})
		}
	}
	return out
}
