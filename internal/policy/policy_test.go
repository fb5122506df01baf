package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-at-pretension-io/rvgen-ltl/internal/automaton"
	"github.com/robert-at-pretension-io/rvgen-ltl/internal/codegen"
	"github.com/robert-at-pretension-io/rvgen-ltl/internal/facts"
)

func compiled(t *testing.T, name, src string, limits facts.Limits) facts.Tables {
	t.Helper()
	g, err := automaton.CreateGraph(src)
	require.NoError(t, err)
	return facts.BuildTables([]facts.Source{{
		Name:    name,
		Kind:    codegen.KindPerTask,
		Spec:    name + ".ltl",
		Graph:   g,
		Abbrevs: codegen.AbbreviateAtoms(g.Atoms),
	}}, limits)
}

func evaluate(t *testing.T, tables facts.Tables, severities map[string]string) *Result {
	t.Helper()
	engine, err := New("")
	require.NoError(t, err)
	result, err := engine.Evaluate(context.Background(), tables, severities)
	require.NoError(t, err)
	return result
}

func rules(result *Result) []string {
	var out []string
	for _, v := range result.Violations {
		out = append(out, v.Rule)
	}
	return out
}

func intPtr(v int) *int {
	return &v
}

func TestUntilMonitorOnlyHasAcceptingSink(t *testing.T) {
	result := evaluate(t, compiled(t, "demo", "RULE = p until q", facts.Limits{MaxAtoms: 32, MaxStates: 32}), nil)

	require.Len(t, result.Violations, 1)
	assert.Equal(t, Violation{
		Rule:     "unconditional_state",
		Severity: SeverityInfo,
		Monitor:  "demo",
		File:     "demo.ltl",
		State:    intPtr(2),
		Message:  "S2 accepts every event: once reached, the monitor can no longer fail",
	}, result.Violations[0])
	assert.Equal(t, Summary{TotalViolations: 1, Info: 1}, result.Summary)
	assert.False(t, result.HasErrors())
}

func TestLimits(t *testing.T) {
	tables := compiled(t, "big", "RULE = always (a imply eventually (b and c))", facts.Limits{MaxAtoms: 2, MaxStates: 1})
	result := evaluate(t, tables, nil)

	assert.Contains(t, rules(result), "too_many_atoms")
	assert.Contains(t, rules(result), "too_many_states")
	assert.True(t, result.HasErrors())
	for _, v := range result.Violations {
		if v.Rule == "too_many_atoms" {
			assert.Equal(t, "monitor big reads 3 atoms, more than RV_MAX_LTL_ATOM (2)", v.Message)
			assert.Nil(t, v.State)
		}
	}
}

func TestUnsatisfiableRule(t *testing.T) {
	result := evaluate(t, compiled(t, "never", "RULE = false", facts.Limits{}), nil)

	assert.Equal(t, []string{"no_initial_state"}, rules(result))
	assert.Equal(t, 1, result.Summary.Errors)
}

func TestSpecHygiene(t *testing.T) {
	src := "RULE = always P\nP = ready\nP = ready or idle\nSPARE = x\n"
	result := evaluate(t, compiled(t, "hyg", src, facts.Limits{}), nil)

	var got []Violation
	for _, v := range result.Violations {
		if v.Rule == "unused_subexpression" || v.Rule == "redefined_name" {
			got = append(got, v)
		}
	}
	assert.ElementsMatch(t, []Violation{
		{Rule: "redefined_name", Severity: SeverityWarning, Monitor: "hyg", File: "hyg.ltl",
			Message: "P is assigned more than once; the last assignment is used"},
		{Rule: "unused_subexpression", Severity: SeverityWarning, Monitor: "hyg", File: "hyg.ltl",
			Message: "SPARE is defined but RULE never uses it"},
	}, got)
}

func TestDeadEndState(t *testing.T) {
	tables := facts.Tables{
		Monitors: []facts.MonitorRow{{Name: "m", Kind: "per_task", Spec: "m.ltl", Rule: "p", Closure: 1, States: 2, Atoms: 1, Redefined: []string{}}},
		States: []facts.StateRow{
			{Monitor: "m", ID: 0, Init: true, Guard: "p", Labels: []string{"p"}, Pending: []string{}},
			{Monitor: "m", ID: 1, Init: false, Guard: "p", Labels: []string{"p"}, Pending: []string{}},
		},
		Transitions: []facts.TransitionRow{{Monitor: "m", From: 0, To: 1, Guard: "p"}},
	}
	result := evaluate(t, tables, nil)

	require.Equal(t, []string{"dead_end_state"}, rules(result))
	assert.Equal(t, intPtr(1), result.Violations[0].State)
	assert.Equal(t, 1, result.Summary.Warnings)
}

func TestSeverityOverrides(t *testing.T) {
	tables := compiled(t, "demo", "RULE = p until q\nSPARE = x", facts.Limits{})

	result := evaluate(t, tables, map[string]string{
		"unconditional_state":  SeverityOff,
		"unused_subexpression": SeverityError,
	})
	require.Equal(t, []string{"unused_subexpression"}, rules(result))
	assert.Equal(t, SeverityError, result.Violations[0].Severity)
	assert.Equal(t, Summary{TotalViolations: 1, Errors: 1}, result.Summary)
}

func TestViolationsAreOrdered(t *testing.T) {
	tables := compiled(t, "b", "RULE = p until q", facts.Limits{})
	other := compiled(t, "a", "RULE = false\nSPARE = x", facts.Limits{})
	tables.Monitors = append(tables.Monitors, other.Monitors...)
	tables.SubExprs = append(tables.SubExprs, other.SubExprs...)

	result := evaluate(t, tables, nil)
	require.Len(t, result.Violations, 3)
	assert.Equal(t, "a", result.Violations[0].Monitor)
	assert.Equal(t, "no_initial_state", result.Violations[0].Rule)
	assert.Equal(t, "unused_subexpression", result.Violations[1].Rule)
	assert.Equal(t, "b", result.Violations[2].Monitor)
}

func TestExtraPolicyDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "naming.rego"), []byte(`package rvgen.ltl

import rego.v1

violations contains v if {
	some m in input.tables.monitors
	not startswith(m.name, "ltl_")
	v := monitor_violation("monitor_prefix", m, sprintf("%s lacks the ltl_ prefix", [m.name]))
}
`), 0o644))

	engine, err := New(dir)
	require.NoError(t, err)
	result, err := engine.Evaluate(context.Background(), compiled(t, "demo", "RULE = always p", facts.Limits{}), map[string]string{
		"unconditional_state": SeverityOff,
	})
	require.NoError(t, err)

	require.Len(t, result.Violations, 1)
	assert.Equal(t, "monitor_prefix", result.Violations[0].Rule)
	assert.Equal(t, SeverityWarning, result.Violations[0].Severity)
}

func TestNewErrors(t *testing.T) {
	_, err := New(t.TempDir())
	assert.ErrorContains(t, err, "no policy files found")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.rego"), []byte("package rvgen.ltl\n\nthis is not rego\n"), 0o644))
	_, err = New(dir)
	assert.Error(t, err)
}
