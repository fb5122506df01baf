package automaton

import (
	"strconv"
	"strings"

	"github.com/hashicorp/go-set/v3"

	"github.com/robert-at-pretension-io/rvgen-ltl/internal/ltl"
)

// tableau holds the state of one construction: the id counter and the
// registry of closed nodes.
type tableau struct {
	nextID   int
	registry map[string]*GraphNode
	closed   []*GraphNode
}

func newTableau() *tableau {
	return &tableau{registry: make(map[string]*GraphNode)}
}

func (t *tableau) node(incoming *set.TreeSet[*GraphNode], newSet, old, next *set.TreeSet[*ltl.Node]) *GraphNode {
	n := &GraphNode{
		ID:       t.nextID,
		Incoming: incoming,
		Outgoing: newGraphNodeSet(),
		New:      newSet,
		Old:      old,
		Next:     next,
	}
	t.nextID++
	return n
}

// variant copies n for one branch of a split. The obligation being split has
// already been removed from n.New.
func (t *tableau) variant(n *GraphNode) *GraphNode {
	return t.node(n.Incoming.Copy(), n.New.Copy(), n.Old.Copy(), n.Next.Copy())
}

// signature identifies a closed node by the ids of its Old and Next members.
func signature(n *GraphNode) string {
	var b strings.Builder
	for m := range n.Old.Items() {
		b.WriteString(strconv.Itoa(m.ID()))
		b.WriteByte(',')
	}
	b.WriteByte('|')
	for m := range n.Next.Items() {
		b.WriteString(strconv.Itoa(m.ID()))
		b.WriteByte(',')
	}
	return b.String()
}

// addNew adds to n.New every operand that is not yet in n.Old.
func addNew(n *GraphNode, operands ...*ltl.Node) {
	for _, o := range operands {
		if !n.Old.Contains(o) {
			n.New.Insert(o)
		}
	}
}

// contradicts reports whether a literal atom meets its own complement in old.
// Complements are matched by node identity: Not(v) contradicts v itself.
func contradicts(n *ltl.Node, old *set.TreeSet[*ltl.Node]) bool {
	if n.Kind == ltl.KindNot {
		return old.Contains(n.Left)
	}
	for o := range old.Items() {
		if o.Kind == ltl.KindNot && o.Left == n {
			return true
		}
	}
	return false
}

// expand runs the tableau from head until every reachable node is closed.
// The frontier is an explicit LIFO stack; when an obligation splits, variant
// A is pushed last so it is expanded before variant B.
func (t *tableau) expand(head *GraphNode) {
	stack := []*GraphNode{head}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		stack = t.step(n, stack)
	}
}

// step processes n until it is closed, discarded or split, and returns the
// stack with any new frontier nodes pushed.
func (t *tableau) step(n *GraphNode, stack []*GraphNode) []*GraphNode {
	for !n.New.Empty() {
		f := n.New.Min()
		n.New.Remove(f)

		switch {
		case f.Kind == ltl.KindLiteral:
			if !f.Value {
				return stack
			}
			n.Old.Insert(f)

		case f.IsLiteralAtom():
			if contradicts(f, n.Old) {
				return stack
			}
			n.Old.Insert(f)

		case (f.Kind == ltl.KindAnd || f.Kind == ltl.KindOr) && !f.IsTemporal():
			// A propositional guard is evaluated as a whole by the monitor.
			n.Old.Insert(f)

		case f.Kind == ltl.KindAnd:
			addNew(n, f.Left, f.Right)
			n.Old.Insert(f)

		case f.Kind == ltl.KindOr:
			a, b := t.variant(n), t.variant(n)
			addNew(a, f.Left)
			addNew(b, f.Right)
			a.Old.Insert(f)
			b.Old.Insert(f)
			return append(stack, b, a)

		case f.Kind == ltl.KindUntil:
			a, b := t.variant(n), t.variant(n)
			addNew(a, f.Left)
			a.Old.Insert(f)
			a.Next.Insert(f)
			// Only r: l is not required once r holds, so the q-guarded edge of
			// p until q carries no p.
			addNew(b, f.Right)
			b.Old.Insert(f)
			return append(stack, b, a)

		case f.Kind == ltl.KindRelease:
			a, b := t.variant(n), t.variant(n)
			addNew(a, f.Right)
			a.Old.Insert(f)
			a.Next.Insert(f)
			addNew(b, f.Left, f.Right)
			b.Old.Insert(f)
			return append(stack, b, a)
		}
	}

	key := signature(n)
	if existing, ok := t.registry[key]; ok {
		existing.Incoming.InsertSet(n.Incoming)
		return stack
	}
	t.registry[key] = n
	t.closed = append(t.closed, n)

	succ := t.node(newGraphNodeSet(n), n.Next.Copy(), newASTSet(), newASTSet())
	return append(stack, succ)
}
