package facts

import (
	"sort"
	"strings"

	"github.com/robert-at-pretension-io/rvgen-ltl/internal/automaton"
)

// Tables is the relational fact model of compiled monitors.
// Each slice is a relation (table) with flat rows joined on Monitor.
type Tables struct {
	Monitors    []MonitorRow    `json:"monitors"`
	Atoms       []AtomRow       `json:"atoms"`
	States      []StateRow      `json:"states"`
	Transitions []TransitionRow `json:"transitions"`
	SubExprs    []SubExprRow    `json:"sub_exprs"`
	Limits      []LimitRow      `json:"limits"`
}

type MonitorRow struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Spec    string `json:"spec"`
	Rule    string `json:"rule"`
	Closure int    `json:"closure"`
	States  int    `json:"states"`
	Atoms   int    `json:"atoms"`

	// Redefined lists names assigned more than once, RULE included.
	Redefined []string `json:"redefined"`
}

type AtomRow struct {
	Monitor string `json:"monitor"`
	Name    string `json:"name"`
	Abbrev  string `json:"abbrev"`
	Index   int    `json:"index"`
}

// StateRow is one Büchi state. Guard is the conjunction of Labels in
// formula form, Pending the obligations handed to its successors.
type StateRow struct {
	Monitor string   `json:"monitor"`
	ID      int      `json:"id"`
	Init    bool     `json:"init"`
	Guard   string   `json:"guard"`
	Labels  []string `json:"labels"`
	Pending []string `json:"pending"`
}

// TransitionRow is an edge; Guard is the guard of the target state.
type TransitionRow struct {
	Monitor string `json:"monitor"`
	From    int    `json:"from"`
	To      int    `json:"to"`
	Guard   string `json:"guard"`
}

type SubExprRow struct {
	Monitor   string `json:"monitor"`
	Name      string `json:"name"`
	Formula   string `json:"formula"`
	Used      bool   `json:"used"`
	Redefined bool   `json:"redefined"`
}

type LimitRow struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Limit names.
const (
	LimitMaxAtoms  = "max_atoms"
	LimitMaxStates = "max_states"
)

// Source is one compiled monitor.
type Source struct {
	Name    string
	Kind    string
	Spec    string
	Graph   *automaton.Graph
	Abbrevs []string
}

// Limits are the kernel-side maxima the tables are checked against.
type Limits struct {
	MaxAtoms  int
	MaxStates int
}

// BuildTables converts compiled monitors into the relational model.
// Monitors keep the order of sources; the rows of one monitor are ordered
// by atom index, state id and sub-expression name.
func BuildTables(sources []Source, limits Limits) Tables {
	tables := emptyTables()

	for _, src := range sources {
		g := src.Graph
		tables.Monitors = append(tables.Monitors, MonitorRow{
			Name:    src.Name,
			Kind:    src.Kind,
			Spec:    src.Spec,
			Rule:    g.Rule.Format(),
			Closure: g.ClosureSize(),
			States:  len(g.Nodes),
			Atoms:   len(g.Atoms),

			Redefined: redefinedNames(g),
		})

		for i, atom := range g.Atoms {
			abbrev := strings.ToLower(atom)
			if i < len(src.Abbrevs) {
				abbrev = src.Abbrevs[i]
			}
			tables.Atoms = append(tables.Atoms, AtomRow{
				Monitor: src.Name,
				Name:    atom,
				Abbrev:  abbrev,
				Index:   i,
			})
		}

		for _, n := range g.Nodes {
			labels := formulaLabels(n)
			tables.States = append(tables.States, StateRow{
				Monitor: src.Name,
				ID:      n.ID,
				Init:    n.Init,
				Guard:   guard(labels),
				Labels:  labels,
				Pending: pending(n),
			})
		}

		for _, e := range g.Edges() {
			tables.Transitions = append(tables.Transitions, TransitionRow{
				Monitor: src.Name,
				From:    e[0],
				To:      e[1],
				Guard:   guard(formulaLabels(g.Nodes[e[1]])),
			})
		}

		if g.Spec != nil {
			tables.SubExprs = append(tables.SubExprs, subExprRows(src.Name, g)...)
		}
	}

	if limits.MaxAtoms > 0 {
		tables.Limits = append(tables.Limits, LimitRow{Name: LimitMaxAtoms, Value: limits.MaxAtoms})
	}
	if limits.MaxStates > 0 {
		tables.Limits = append(tables.Limits, LimitRow{Name: LimitMaxStates, Value: limits.MaxStates})
	}

	return tables
}

// formulaLabels spells out the non-temporal members of Old, the same set
// the generated C reads as the state's guard.
func formulaLabels(n *automaton.GraphNode) []string {
	labels := []string{}
	for o := range n.Old.Items() {
		if !o.IsTemporal() {
			labels = append(labels, o.Format())
		}
	}
	return labels
}

func guard(labels []string) string {
	if len(labels) == 0 {
		return "true"
	}
	return strings.Join(labels, " && ")
}

func pending(n *automaton.GraphNode) []string {
	out := []string{}
	for o := range n.Next.Items() {
		out = append(out, o.Format())
	}
	return out
}

func subExprRows(monitor string, g *automaton.Graph) []SubExprRow {
	spec := g.Spec
	unused := make(map[string]bool, len(spec.Unused))
	for _, name := range spec.Unused {
		unused[name] = true
	}
	redefined := make(map[string]bool, len(spec.Redefined))
	for _, name := range spec.Redefined {
		redefined[name] = true
	}

	names := make([]string, 0, len(spec.SubExprs))
	for name := range spec.SubExprs {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]SubExprRow, 0, len(names))
	for _, name := range names {
		rows = append(rows, SubExprRow{
			Monitor:   monitor,
			Name:      name,
			Formula:   spec.SubExprs[name].Format(),
			Used:      !unused[name],
			Redefined: redefined[name],
		})
	}
	return rows
}

func redefinedNames(g *automaton.Graph) []string {
	if g.Spec == nil {
		return []string{}
	}
	return append([]string{}, g.Spec.Redefined...)
}

func emptyTables() Tables {
	return Tables{
		Monitors:    []MonitorRow{},
		Atoms:       []AtomRow{},
		States:      []StateRow{},
		Transitions: []TransitionRow{},
		SubExprs:    []SubExprRow{},
		Limits:      []LimitRow{},
	}
}
