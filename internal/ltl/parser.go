package ltl

import (
	"sort"
)

// RuleName is the assignment that holds the property to monitor.
const RuleName = "RULE"

// Assignment is one `NAME = <ltl>` line.
type Assignment struct {
	Name string
	Root *Node
}

// Spec is a parsed specification with named sub-expressions substituted into
// the rule.
type Spec struct {
	Arena *Arena
	Rule  *Node
	// SubExprs maps each effective sub-expression name to its definition.
	SubExprs map[string]*Node
	// Redefined lists names assigned more than once; the last definition won.
	Redefined []string
	// Unused lists sub-expressions that RULE never references.
	Unused []string
}

type parser struct {
	arena *Arena
	toks  []Token
	pos   int
}

// Parse tokenizes and parses src into its assignments, in source order.
func Parse(arena *Arena, src string) ([]Assignment, error) {
	toks, err := Lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{arena: arena, toks: toks}
	return p.spec()
}

func (p *parser) peek() Token {
	return p.toks[p.pos]
}

func (p *parser) next() Token {
	t := p.toks[p.pos]
	if t.Kind != EOF {
		p.pos++
	}
	return t
}

func (p *parser) fail(t Token, expected string) error {
	if t.Kind == EOF {
		return &ParseError{Line: t.Line, Col: t.Col, Expected: expected}
	}
	return &ParseError{Token: t.Text, Line: t.Line, Col: t.Col, Expected: expected}
}

func (p *parser) expect(kind TokenKind, expected string) (Token, error) {
	t := p.next()
	if t.Kind != kind {
		return t, p.fail(t, expected)
	}
	return t, nil
}

// spec := assign | assign spec
func (p *parser) spec() ([]Assignment, error) {
	var out []Assignment
	for {
		a, err := p.assign()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
		if p.peek().Kind == EOF {
			return out, nil
		}
	}
}

// assign := VARIABLE ASSIGN ltl
func (p *parser) assign() (Assignment, error) {
	name, err := p.expect(VARIABLE, "a NAME to assign")
	if err != nil {
		return Assignment{}, err
	}
	if _, err := p.expect(ASSIGN, "'='"); err != nil {
		return Assignment{}, err
	}
	root, err := p.ltl()
	if err != nil {
		return Assignment{}, err
	}
	return Assignment{Name: name.Text, Root: root}, nil
}

// ltl   := opd | binop | unop
// unop  := ALWAYS ltl | EVENTUALLY ltl | NOT ltl
// binop := opd UNTIL ltl | opd AND ltl | opd OR ltl | opd IMPLY ltl
//
// The left operand of a binary operator is an opd, so chains lean right:
// `a and b or c` is And(a, Or(b, c)).
func (p *parser) ltl() (*Node, error) {
	switch p.peek().Kind {
	case ALWAYS, EVENTUALLY, NOT:
		op := p.next()
		child, err := p.ltl()
		if err != nil {
			return nil, err
		}
		return p.arena.Unary(unaryKinds[op.Kind], child), nil
	}

	left, err := p.opd()
	if err != nil {
		return nil, err
	}
	kind, ok := binaryKinds[p.peek().Kind]
	if !ok {
		return left, nil
	}
	p.next()
	right, err := p.ltl()
	if err != nil {
		return nil, err
	}
	return p.arena.Binary(kind, left, right), nil
}

// opd := VARIABLE | LITERAL | LPAREN ltl RPAREN
func (p *parser) opd() (*Node, error) {
	t := p.next()
	switch t.Kind {
	case VARIABLE:
		return p.arena.Variable(t.Text), nil
	case LITERAL:
		return p.arena.Literal(t.Text == "true"), nil
	case LPAREN:
		inner, err := p.ltl()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN, "')'"); err != nil {
			return nil, err
		}
		return inner, nil
	}
	return nil, p.fail(t, "a variable, a literal or '('")
}

var unaryKinds = map[TokenKind]Kind{
	ALWAYS:     KindAlways,
	EVENTUALLY: KindEventually,
	NOT:        KindNot,
}

var binaryKinds = map[TokenKind]Kind{
	UNTIL: KindUntil,
	AND:   KindAnd,
	OR:    KindOr,
	IMPLY: KindImply,
}

// ParseSpec parses src and resolves the rule: it picks the RULE assignment
// and substitutes every other assignment into it by name.
//
// When a name is assigned twice the last assignment wins. A reference to an
// undefined name is a free atom.
func ParseSpec(src string) (*Spec, error) {
	arena := NewArena()
	assigns, err := Parse(arena, src)
	if err != nil {
		return nil, err
	}

	spec := &Spec{Arena: arena, SubExprs: make(map[string]*Node)}
	seen := make(map[string]bool)
	for _, a := range assigns {
		if seen[a.Name] {
			spec.Redefined = appendOnce(spec.Redefined, a.Name)
		}
		seen[a.Name] = true
		if a.Name == RuleName {
			spec.Rule = a.Root
			continue
		}
		spec.SubExprs[a.Name] = a.Root
	}
	if spec.Rule == nil {
		return nil, &SemanticError{Msg: `no rule defined: write the property as "RULE = <ltl>"`}
	}

	used, err := substitute(arena, spec.Rule, spec.SubExprs)
	if err != nil {
		return nil, err
	}
	for _, atom := range Atoms(spec.Rule) {
		if msg := checkAtomName(atom); msg != "" {
			return nil, &SemanticError{Name: atom, Msg: msg}
		}
	}
	for name := range spec.SubExprs {
		if !used[name] {
			spec.Unused = append(spec.Unused, name)
		}
	}
	sort.Strings(spec.Unused)
	return spec, nil
}

// nameChain is the list of sub-expressions being expanded above a node.
type nameChain struct {
	name   string
	parent *nameChain
}

func (c *nameChain) has(name string) bool {
	for ; c != nil; c = c.parent {
		if c.name == name {
			return true
		}
	}
	return false
}

// substitute replaces, in place, every variable of rule that names a
// sub-expression with a fresh copy of that sub-expression. Copies are
// substituted too, so sub-expressions may use each other.
func substitute(arena *Arena, rule *Node, subs map[string]*Node) (map[string]bool, error) {
	type item struct {
		node  *Node
		chain *nameChain
	}
	used := make(map[string]bool)
	stack := []item{{node: rule}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n, chain := it.node, it.chain

		// A definition may itself be a bare name, so keep resolving.
		for n.Kind == KindVariable {
			def, ok := subs[n.Name]
			if !ok {
				break
			}
			if chain.has(n.Name) {
				return nil, &SemanticError{Name: n.Name, Msg: "sub-expression refers to itself"}
			}
			used[n.Name] = true
			chain = &nameChain{name: n.Name, parent: chain}
			n.replace(*arena.Clone(def))
		}
		if n.Right != nil {
			stack = append(stack, item{node: n.Right, chain: chain})
		}
		if n.Left != nil {
			stack = append(stack, item{node: n.Left, chain: chain})
		}
	}
	return used, nil
}

func appendOnce(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
