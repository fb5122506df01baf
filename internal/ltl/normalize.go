package ltl

// Negate rewrites n in place into the negation of the formula it held and
// returns n. Children are negated in place too, so a negated subtree keeps
// its node instances.
func (n *Node) Negate() *Node {
	switch n.Kind {
	case KindLiteral:
		n.replace(Node{Kind: KindLiteral, Value: !n.Value})
	case KindVariable:
		// The variable moves into a fresh child so that n can become Not.
		inner := n.arena.Variable(n.Name)
		n.replace(Node{Kind: KindNot, Left: inner})
	case KindNot:
		n.replace(*n.Left)
	case KindAnd:
		n.replace(Node{Kind: KindOr, Left: n.Left.Negate(), Right: n.Right.Negate()})
	case KindOr:
		n.replace(Node{Kind: KindAnd, Left: n.Left.Negate(), Right: n.Right.Negate()})
	case KindImply:
		n.replace(Node{Kind: KindAnd, Left: n.Left, Right: n.Right.Negate()})
	case KindUntil:
		n.replace(Node{Kind: KindRelease, Left: n.Left.Negate(), Right: n.Right.Negate()})
	case KindRelease:
		n.replace(Node{Kind: KindUntil, Left: n.Left.Negate(), Right: n.Right.Negate()})
	case KindAlways:
		n.replace(Node{Kind: KindEventually, Left: n.Left.Negate()})
	case KindEventually:
		n.replace(Node{Kind: KindAlways, Left: n.Left.Negate()})
	}
	return n
}

// IsNormal reports whether the operator at n (not its children) is in
// negation normal form.
func (n *Node) IsNormal() bool {
	switch n.Kind {
	case KindLiteral, KindVariable, KindAnd, KindOr, KindUntil, KindRelease:
		return true
	case KindNot:
		return n.Left.Kind == KindVariable
	}
	return false
}

// Normalize rewrites the operator at n until it is in negation normal form.
// Children are left alone; NormalizeTree takes care of them.
func (n *Node) Normalize() {
	for !n.IsNormal() {
		switch n.Kind {
		case KindImply:
			n.replace(Node{Kind: KindOr, Left: n.Left.Negate(), Right: n.Right})
		case KindEventually:
			n.replace(Node{Kind: KindUntil, Left: n.arena.Literal(true), Right: n.Left})
		case KindAlways:
			n.replace(Node{Kind: KindRelease, Left: n.arena.Literal(false), Right: n.Left})
		case KindNot:
			n.replace(*n.Left.Negate())
		}
	}
}

// NormalizeTree normalizes every node reachable from root exactly once,
// parents first. Running it again leaves the tree unchanged.
func NormalizeTree(root *Node) {
	Walk(root, func(n *Node) bool {
		n.Normalize()
		return true
	})
}
