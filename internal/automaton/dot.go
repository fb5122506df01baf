package automaton

import (
	"fmt"
	"strings"
)

// Guard renders the condition under which the automaton may enter n.
func Guard(n *GraphNode) string {
	if len(n.Labels) == 0 {
		return "true"
	}
	return strings.Join(n.Labels, " && ")
}

// Dot renders the automaton in Graphviz DOT format. Every initial state gets
// an arrow from an invisible start point, and each edge carries the guard of
// its target.
func (g *Graph) Dot(name string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("digraph %q {\n", name))
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=circle];\n")
	sb.WriteString("\n")

	for _, n := range g.InitNodes() {
		sb.WriteString(fmt.Sprintf("  start%d [shape=point];\n", n.ID))
		sb.WriteString(fmt.Sprintf("  start%d -> \"S%d\" [label=%q];\n", n.ID, n.ID, Guard(n)))
	}
	sb.WriteString("\n")

	for _, n := range g.Nodes {
		if n.Next.Empty() {
			sb.WriteString(fmt.Sprintf("  \"S%d\";\n", n.ID))
			continue
		}
		var pending []string
		for f := range n.Next.Items() {
			pending = append(pending, f.Format())
		}
		sb.WriteString(fmt.Sprintf("  \"S%d\" [tooltip=%q];\n", n.ID, "next: "+strings.Join(pending, "; ")))
	}
	sb.WriteString("\n")

	for _, n := range g.Nodes {
		for _, m := range n.Outgoing.Slice() {
			sb.WriteString(fmt.Sprintf("  \"S%d\" -> \"S%d\" [label=%q];\n", n.ID, m.ID, Guard(m)))
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}
