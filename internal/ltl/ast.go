package ltl

import (
	"fmt"
	"strings"
)

// Kind identifies the operator held by a Node.
type Kind int

const (
	KindLiteral Kind = iota
	KindVariable
	KindNot
	KindAlways
	KindEventually
	KindAnd
	KindOr
	KindImply
	KindUntil
	KindRelease
)

var kindNames = map[Kind]string{
	KindLiteral:    "literal",
	KindVariable:   "variable",
	KindNot:        "not",
	KindAlways:     "always",
	KindEventually: "eventually",
	KindAnd:        "and",
	KindOr:         "or",
	KindImply:      "imply",
	KindUntil:      "until",
	KindRelease:    "release",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IsUnary reports whether nodes of this kind carry a single child in Left.
func (k Kind) IsUnary() bool {
	return k == KindNot || k == KindAlways || k == KindEventually
}

// IsBinary reports whether nodes of this kind carry Left and Right operands.
func (k Kind) IsBinary() bool {
	switch k {
	case KindAnd, KindOr, KindImply, KindUntil, KindRelease:
		return true
	}
	return false
}

// Node is one AST node. Nodes are compared by identity: two nodes holding the
// same formula are still different members of a node set. The id is assigned
// by the owning Arena and never changes, even when the operator is rewritten
// in place by Negate or Normalize.
type Node struct {
	id    int
	arena *Arena

	Kind  Kind
	Value bool   // KindLiteral
	Name  string // KindVariable
	// Left is the only child of unary operators.
	Left  *Node
	Right *Node
}

// Arena allocates nodes and hands out their ids. One arena backs one
// compilation, which keeps the counter out of package state.
type Arena struct {
	nodes []*Node
}

// NewArena returns an empty arena. The first node gets id 1.
func NewArena() *Arena {
	return &Arena{}
}

// Len returns the number of nodes allocated so far.
func (a *Arena) Len() int {
	return len(a.nodes)
}

func (a *Arena) alloc(n Node) *Node {
	n.id = len(a.nodes) + 1
	n.arena = a
	p := &n
	a.nodes = append(a.nodes, p)
	return p
}

// Literal allocates a boolean literal.
func (a *Arena) Literal(v bool) *Node {
	return a.alloc(Node{Kind: KindLiteral, Value: v})
}

// Variable allocates an atom reference.
func (a *Arena) Variable(name string) *Node {
	return a.alloc(Node{Kind: KindVariable, Name: name})
}

// Unary allocates a Not, Always or Eventually node.
func (a *Arena) Unary(k Kind, child *Node) *Node {
	if !k.IsUnary() {
		panic(fmt.Sprintf("ltl: %s is not a unary operator", k))
	}
	return a.alloc(Node{Kind: k, Left: child})
}

// Binary allocates an And, Or, Imply, Until or Release node.
func (a *Arena) Binary(k Kind, left, right *Node) *Node {
	if !k.IsBinary() {
		panic(fmt.Sprintf("ltl: %s is not a binary operator", k))
	}
	return a.alloc(Node{Kind: k, Left: left, Right: right})
}

// Clone deep-copies the subtree rooted at n. Every copied node gets a fresh id.
func (a *Arena) Clone(n *Node) *Node {
	if n == nil {
		return nil
	}
	cp := Node{Kind: n.Kind, Value: n.Value, Name: n.Name}
	cp.Left = a.Clone(n.Left)
	cp.Right = a.Clone(n.Right)
	return a.alloc(cp)
}

// ID returns the arena id of the node.
func (n *Node) ID() int {
	return n.id
}

// Child returns the operand of a unary node.
func (n *Node) Child() *Node {
	return n.Left
}

// replace overwrites the operator of n with the operator of src, keeping n's id.
func (n *Node) replace(src Node) {
	id, arena := n.id, n.arena
	*n = src
	n.id = id
	n.arena = arena
}

// IsTemporal reports whether the formula rooted at n involves a temporal
// operator.
func (n *Node) IsTemporal() bool {
	switch n.Kind {
	case KindAlways, KindEventually, KindUntil, KindRelease:
		return true
	case KindNot:
		return n.Left.IsTemporal()
	case KindAnd, KindOr, KindImply:
		return n.Left.IsTemporal() || n.Right.IsTemporal()
	}
	return false
}

// IsLiteralAtom reports whether n is a Variable or a negated Variable.
func (n *Node) IsLiteralAtom() bool {
	return n.Kind == KindVariable || (n.Kind == KindNot && n.Left.Kind == KindVariable)
}

// String renders the node the way guards refer to it: variables by their
// lower-case name, literals as true/false and everything else as val<id>.
func (n *Node) String() string {
	switch n.Kind {
	case KindLiteral:
		if n.Value {
			return "true"
		}
		return "false"
	case KindVariable:
		return strings.ToLower(n.Name)
	}
	return fmt.Sprintf("val%d", n.id)
}

// Format renders the subtree in fully parenthesised infix form.
func (n *Node) Format() string {
	var b strings.Builder
	n.format(&b)
	return b.String()
}

func (n *Node) format(b *strings.Builder) {
	switch {
	case n.Kind == KindLiteral || n.Kind == KindVariable:
		b.WriteString(n.String())
	case n.Kind.IsUnary():
		b.WriteString(n.Kind.String())
		b.WriteString(" ")
		n.Left.format(b)
	default:
		b.WriteString("(")
		n.Left.format(b)
		b.WriteString(" ")
		b.WriteString(n.Kind.String())
		b.WriteString(" ")
		n.Right.format(b)
		b.WriteString(")")
	}
}

// Walk visits every node reachable from n once, parents before children.
// Returning false from visit skips the node's children.
func Walk(n *Node, visit func(*Node) bool) {
	if n == nil {
		return
	}
	seen := make(map[*Node]bool)
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		if !visit(cur) {
			continue
		}
		if cur.Right != nil {
			stack = append(stack, cur.Right)
		}
		if cur.Left != nil {
			stack = append(stack, cur.Left)
		}
	}
}

// Atoms returns the distinct variable names reachable from n, in first-seen
// order.
func Atoms(n *Node) []string {
	var out []string
	seen := make(map[string]bool)
	Walk(n, func(cur *Node) bool {
		if cur.Kind == KindVariable && !seen[cur.Name] {
			seen[cur.Name] = true
			out = append(out, cur.Name)
		}
		return true
	})
	return out
}
