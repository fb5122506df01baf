// Package codegen turns a Büchi automaton into the C sources of a kernel
// runtime verification monitor.
package codegen

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/robert-at-pretension-io/rvgen-ltl/internal/automaton"
	"github.com/robert-at-pretension-io/rvgen-ltl/internal/ltl"
)

// KindPerTask is the only monitor kind the LTL backend supports.
const KindPerTask = "per_task"

// ErrUnsupportedMonitorKind is returned by New for any kind but per_task.
var ErrUnsupportedMonitorKind = errors.New("unsupported monitor kind for LTL monitors")

// Generator renders the C fragments of one monitor.
type Generator struct {
	Name  string
	Graph *automaton.Graph
	// Atoms are the atom names in enum order, Abbrevs their display names.
	Atoms   []string
	Abbrevs []string
	Wrap    Wrap

	// values maps the val<id> name of every compound guard node to the node.
	values map[string]*ltl.Node
	order  []*ltl.Node
}

// New prepares a generator for the monitor name built from g.
func New(kind, name string, g *automaton.Graph) (*Generator, error) {
	if kind != KindPerTask {
		return nil, fmt.Errorf("%w: %q (only %q is supported)", ErrUnsupportedMonitorKind, kind, KindPerTask)
	}
	gen := &Generator{
		Name:    name,
		Graph:   g,
		Atoms:   g.Atoms,
		Abbrevs: AbbreviateAtoms(g.Atoms),
		Wrap:    DefaultWrap,
		values:  make(map[string]*ltl.Node),
	}
	if g.Rule != nil {
		ltl.Walk(g.Rule, func(n *ltl.Node) bool {
			switch n.Kind {
			case ltl.KindAnd, ltl.KindOr, ltl.KindNot:
				gen.values[n.String()] = n
				gen.order = append(gen.order, n)
			}
			return true
		})
	}
	return gen, nil
}

// AtomsEnum renders the atom enumeration.
func (g *Generator) AtomsEnum() string {
	var b strings.Builder
	b.WriteString("enum ltl_atom {\n")
	for _, a := range g.Atoms {
		fmt.Fprintf(&b, "\tLTL_%s,\n", a)
	}
	b.WriteString("\tLTL_NUM_ATOM\n")
	b.WriteString("};\n")
	b.WriteString("static_assert(LTL_NUM_ATOM <= RV_MAX_LTL_ATOM);")
	return b.String()
}

// StatesEnum renders the state enumeration.
func (g *Generator) StatesEnum() string {
	var b strings.Builder
	b.WriteString("enum ltl_buchi_state {\n")
	for _, n := range g.Graph.Nodes {
		fmt.Fprintf(&b, "\tS%d,\n", n.ID)
	}
	b.WriteString("\tRV_NUM_BA_STATES\n")
	b.WriteString("};\n")
	b.WriteString("static_assert(RV_NUM_BA_STATES <= RV_MAX_BA_STATES);")
	return b.String()
}

// AtomStr renders ltl_atom_str, which maps an atom to its abbreviation.
func (g *Generator) AtomStr() string {
	var b strings.Builder
	b.WriteString("static const char *ltl_atom_str(enum ltl_atom atom)\n")
	b.WriteString("{\n")
	b.WriteString("\tstatic const char *const names[] = {\n")
	for _, a := range g.Abbrevs {
		fmt.Fprintf(&b, "\t\t%q,\n", a)
	}
	b.WriteString("\t};\n")
	b.WriteString("\n")
	b.WriteString("\treturn names[atom];\n")
	b.WriteString("}")
	return b.String()
}

// valueDecls declares one bool per label in required, plus whatever those labels
// are computed from. Atoms come first, then compound nodes with children
// before parents, so each value is computed once and before its use.
func (g *Generator) valueDecls(required map[string]bool) []string {
	var compounds []*ltl.Node
	for _, n := range g.order {
		if !required[n.String()] {
			continue
		}
		compounds = append(compounds, n)
		required[n.Left.String()] = true
		if n.Right != nil {
			required[n.Right.String()] = true
		}
	}

	var lines []string
	for _, a := range g.Atoms {
		name := strings.ToLower(a)
		if required[name] {
			lines = append(lines, fmt.Sprintf("\tbool %s = test_bit(LTL_%s, mon->atoms);", name, a))
		}
	}
	for i := len(compounds) - 1; i >= 0; i-- {
		n := compounds[i]
		switch n.Kind {
		case ltl.KindNot:
			lines = append(lines, fmt.Sprintf("\tbool %s = !%s;", n, n.Left))
		case ltl.KindAnd:
			lines = append(lines, fmt.Sprintf("\tbool %s = %s && %s;", n, n.Left, n.Right))
		case ltl.KindOr:
			lines = append(lines, fmt.Sprintf("\tbool %s = %s || %s;", n, n.Left, n.Right))
		}
	}
	return lines
}

// setBit renders the statement that enables state n, guarded by its labels.
func (g *Generator) setBit(indent string, n *automaton.GraphNode, target string) []string {
	stmt := fmt.Sprintf("__set_bit(S%d, %s);", n.ID, target)
	if len(n.Labels) == 0 {
		return []string{indent + stmt}
	}
	return g.Wrap.conditional(indent, n.Labels, stmt)
}

// Start renders ltl_start, which enables every initial state whose guard
// holds.
func (g *Generator) Start() string {
	required := make(map[string]bool)
	for _, n := range g.Graph.InitNodes() {
		for _, l := range n.Labels {
			required[l] = true
		}
	}

	lines := []string{
		"static void ltl_start(struct task_struct *task, struct ltl_monitor *mon)",
		"{",
	}
	if decls := g.valueDecls(required); len(decls) > 0 {
		lines = append(lines, decls...)
		lines = append(lines, "")
	}
	for _, n := range g.Graph.InitNodes() {
		lines = append(lines, g.setBit("\t", n, "mon->states")...)
	}
	lines = append(lines, "}")
	return strings.Join(lines, "\n")
}

// Transitions renders ltl_possible_next_states, which collects the states
// reachable from state under the current atoms.
func (g *Generator) Transitions() string {
	required := make(map[string]bool)
	for _, n := range g.Graph.Nodes {
		for m := range n.Outgoing.Items() {
			for _, l := range m.Labels {
				required[l] = true
			}
		}
	}

	lines := []string{
		"static void",
		"ltl_possible_next_states(struct ltl_monitor *mon, unsigned int state, unsigned long *next)",
		"{",
	}
	if decls := g.valueDecls(required); len(decls) > 0 {
		lines = append(lines, decls...)
		lines = append(lines, "")
	}
	lines = append(lines, "\tswitch (state) {")
	for _, n := range g.Graph.Nodes {
		lines = append(lines, fmt.Sprintf("\tcase S%d:", n.ID))
		for _, m := range n.Outgoing.Slice() {
			lines = append(lines, g.setBit("\t\t", m, "next")...)
		}
		lines = append(lines, "\t\tbreak;")
	}
	lines = append(lines, "\t}", "}")
	return strings.Join(lines, "\n")
}

// Guard returns the C condition under which the monitor may enter state id,
// exactly as Start and Transitions emit it before wrapping. An empty guard
// means the state is entered unconditionally.
func (g *Generator) Guard(id int) string {
	return strings.Join(g.Graph.Nodes[id].Labels, " && ")
}

// GuardAtoms returns the atoms a guard reads, directly or through compound
// values, sorted.
func (g *Generator) GuardAtoms(id int) []string {
	seen := make(map[string]bool)
	var visit func(label string)
	visit = func(label string) {
		if n, ok := g.values[label]; ok {
			visit(n.Left.String())
			if n.Right != nil {
				visit(n.Right.String())
			}
			return
		}
		for _, a := range g.Atoms {
			if strings.ToLower(a) == label {
				seen[a] = true
			}
		}
	}
	for _, l := range g.Graph.Nodes[id].Labels {
		visit(l)
	}
	out := make([]string, 0, len(seen))
	for a := range seen {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// ModelHeader renders the complete ltl_<name>.h header.
func (g *Generator) ModelHeader() string {
	parts := []string{
		"/* SPDX-License-Identifier: GPL-2.0 */\n" +
			"\n" +
			"/*\n" +
			" * C implementation of the Buchi automaton of the " + g.Name + " monitor,\n" +
			" * generated by rvgen-ltl from its linear temporal logic specification.\n" +
			" */\n" +
			"\n" +
			"#include <linux/rv.h>\n" +
			"\n" +
			"#define MONITOR_NAME " + g.Name,
		g.AtomsEnum(),
		g.AtomStr(),
		g.StatesEnum(),
		g.Start(),
		g.Transitions(),
	}
	return strings.Join(parts, "\n\n") + "\n"
}

// Placeholders consumed by the monitor template.
const (
	PlaceholderModelName        = "%%MODEL_NAME%%"
	PlaceholderAtomsEnum        = "%%ATOMS_ENUM%%"
	PlaceholderStatesEnum       = "%%STATES_ENUM%%"
	PlaceholderAtomStr          = "%%ATOM_STR%%"
	PlaceholderStart            = "%%START%%"
	PlaceholderTransitions      = "%%TRANSITIONS%%"
	PlaceholderHandlersSkel     = "%%TRACEPOINT_HANDLERS_SKEL%%"
	PlaceholderTracepointAttach = "%%TRACEPOINT_ATTACH%%"
	PlaceholderTracepointDetach = "%%TRACEPOINT_DETACH%%"
	PlaceholderAtomsInit        = "%%ATOMS_INIT%%"
)

// Fragments returns every generated fragment keyed by its placeholder.
func (g *Generator) Fragments() map[string]string {
	return map[string]string{
		PlaceholderModelName:        g.Name,
		PlaceholderAtomsEnum:        g.AtomsEnum(),
		PlaceholderStatesEnum:       g.StatesEnum(),
		PlaceholderAtomStr:          g.AtomStr(),
		PlaceholderStart:            g.Start(),
		PlaceholderTransitions:      g.Transitions(),
		PlaceholderHandlersSkel:     g.TracepointHandlersSkel(),
		PlaceholderTracepointAttach: g.TracepointAttachProbe(),
		PlaceholderTracepointDetach: g.TracepointDetachHelper(),
		PlaceholderAtomsInit:        g.AtomsInit(),
	}
}

// Fill replaces every placeholder of tmpl with its fragment.
func (g *Generator) Fill(tmpl string) string {
	frags := g.Fragments()
	keys := make([]string, 0, len(frags))
	for k := range frags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, k, frags[k])
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
