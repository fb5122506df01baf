package facts

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-at-pretension-io/rvgen-ltl/internal/automaton"
	"github.com/robert-at-pretension-io/rvgen-ltl/internal/codegen"
)

func source(t *testing.T, name, src string) Source {
	t.Helper()
	g, err := automaton.CreateGraph(src)
	require.NoError(t, err)
	return Source{
		Name:    name,
		Kind:    codegen.KindPerTask,
		Spec:    name + ".ltl",
		Graph:   g,
		Abbrevs: codegen.AbbreviateAtoms(g.Atoms),
	}
}

func TestBuildTablesUntil(t *testing.T) {
	tables := BuildTables([]Source{source(t, "demo", "RULE = p until q")}, Limits{MaxAtoms: 32, MaxStates: 32})

	assert.Equal(t, []MonitorRow{{
		Name: "demo", Kind: "per_task", Spec: "demo.ltl", Rule: "(p until q)",
		Closure: 3, States: 3, Atoms: 2, Redefined: []string{},
	}}, tables.Monitors)

	assert.Equal(t, []AtomRow{
		{Monitor: "demo", Name: "P", Abbrev: "p", Index: 0},
		{Monitor: "demo", Name: "Q", Abbrev: "q", Index: 1},
	}, tables.Atoms)

	assert.Equal(t, []StateRow{
		{Monitor: "demo", ID: 0, Init: true, Guard: "p", Labels: []string{"p"}, Pending: []string{"(p until q)"}},
		{Monitor: "demo", ID: 1, Init: true, Guard: "q", Labels: []string{"q"}, Pending: []string{}},
		{Monitor: "demo", ID: 2, Init: false, Guard: "true", Labels: []string{}, Pending: []string{}},
	}, tables.States)

	assert.Equal(t, []TransitionRow{
		{Monitor: "demo", From: 0, To: 0, Guard: "p"},
		{Monitor: "demo", From: 0, To: 1, Guard: "q"},
		{Monitor: "demo", From: 1, To: 2, Guard: "true"},
		{Monitor: "demo", From: 2, To: 2, Guard: "true"},
	}, tables.Transitions)

	assert.Empty(t, tables.SubExprs)
	assert.NotNil(t, tables.SubExprs)
	assert.Equal(t, []LimitRow{{Name: LimitMaxAtoms, Value: 32}, {Name: LimitMaxStates, Value: 32}}, tables.Limits)
}

func TestBuildTablesSubExpressions(t *testing.T) {
	src := `RULE = always (REQ imply eventually GRANT)
REQ = request and not busy
GRANT = granted
SPARE = idle
GRANT = granted or aborted
`
	tables := BuildTables([]Source{source(t, "req", src)}, Limits{})

	assert.Equal(t, []SubExprRow{
		{Monitor: "req", Name: "GRANT", Formula: "(granted or aborted)", Used: true, Redefined: true},
		{Monitor: "req", Name: "REQ", Formula: "(request and not busy)", Used: true, Redefined: false},
		{Monitor: "req", Name: "SPARE", Formula: "idle", Used: false, Redefined: false},
	}, tables.SubExprs)
	assert.Equal(t, []string{"GRANT"}, tables.Monitors[0].Redefined)
	assert.Empty(t, tables.Limits)
}

func TestBuildTablesKeepsMonitorOrder(t *testing.T) {
	tables := BuildTables([]Source{
		source(t, "zeta", "RULE = always p"),
		source(t, "alpha", "RULE = eventually q"),
	}, Limits{})

	require.Len(t, tables.Monitors, 2)
	assert.Equal(t, "zeta", tables.Monitors[0].Name)
	assert.Equal(t, "alpha", tables.Monitors[1].Name)
	for _, s := range tables.States {
		assert.Contains(t, []string{"zeta", "alpha"}, s.Monitor)
	}
}

func TestTransitionsMatchGraphEdges(t *testing.T) {
	s := source(t, "resp", "RULE = always (p imply eventually q)")
	tables := BuildTables([]Source{s}, Limits{})

	edges := s.Graph.Edges()
	require.Len(t, tables.Transitions, len(edges))
	for i, e := range edges {
		assert.Equal(t, e[0], tables.Transitions[i].From)
		assert.Equal(t, e[1], tables.Transitions[i].To)
		assert.Equal(t, tables.States[e[1]].Guard, tables.Transitions[i].Guard)
	}
}

func TestReadWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.facts.json")
	tables := BuildTables([]Source{source(t, "demo", "RULE = p until q")}, Limits{MaxAtoms: 32})
	require.NoError(t, WriteFile(path, tables))

	loaded, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, tables, loaded)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
