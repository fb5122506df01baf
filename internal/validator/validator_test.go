package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-at-pretension-io/rvgen-ltl/internal/automaton"
	"github.com/robert-at-pretension-io/rvgen-ltl/internal/codegen"
	"github.com/robert-at-pretension-io/rvgen-ltl/internal/facts"
)

func compiledTables(t *testing.T, src string) facts.Tables {
	t.Helper()
	g, err := automaton.CreateGraph(src)
	require.NoError(t, err)
	return facts.BuildTables([]facts.Source{{
		Name:    "demo",
		Kind:    codegen.KindPerTask,
		Spec:    "demo.ltl",
		Graph:   g,
		Abbrevs: codegen.AbbreviateAtoms(g.Atoms),
	}}, facts.Limits{MaxAtoms: 32, MaxStates: 32})
}

func TestFactsValidatorAcceptsCompiledTables(t *testing.T) {
	v, err := NewFactsValidator()
	require.NoError(t, err)
	assert.Equal(t, "#FactTables", v.Definition())

	for _, src := range []string{
		"RULE = p until q",
		"RULE = always (p imply eventually q)\nP = LOCK_HELD\nUNUSED = x\nP = LOCK_HELD or IRQ_OFF",
		"RULE = false",
	} {
		assert.NoError(t, v.Validate(compiledTables(t, src)), src)
	}
}

func TestFactsValidatorRejectsInvalidTables(t *testing.T) {
	v, err := NewFactsValidator()
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*facts.Tables)
	}{
		{"monitor name is not an identifier", func(tb *facts.Tables) { tb.Monitors[0].Name = "my-monitor" }},
		{"unknown kind", func(tb *facts.Tables) { tb.Monitors[0].Kind = "per_obj" }},
		{"lowercase atom", func(tb *facts.Tables) { tb.Atoms[0].Name = "p" }},
		{"empty abbreviation", func(tb *facts.Tables) { tb.Atoms[0].Abbrev = "" }},
		{"negative state", func(tb *facts.Tables) { tb.States[0].ID = -1 }},
		{"empty guard", func(tb *facts.Tables) { tb.Transitions[0].Guard = "" }},
		{"unknown limit", func(tb *facts.Tables) { tb.Limits[0].Name = "max_cpus" }},
		{"null table", func(tb *facts.Tables) { tb.SubExprs = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tables := compiledTables(t, "RULE = p until q")
			tt.mutate(&tables)
			assert.Error(t, v.Validate(tables))
			assert.NotEmpty(t, v.ValidationErrors(tables))
		})
	}
}

func TestValidateJSON(t *testing.T) {
	v, err := NewFactsValidator()
	require.NoError(t, err)

	empty := `{"monitors":[],"atoms":[],"states":[],"transitions":[],"sub_exprs":[],"limits":[]}`
	assert.NoError(t, v.ValidateJSON([]byte(empty)))

	extra := `{"monitors":[],"atoms":[],"states":[],"transitions":[],"sub_exprs":[],"limits":[],"files":[]}`
	assert.Error(t, v.ValidateJSON([]byte(extra)))

	assert.Error(t, v.ValidateJSON([]byte(`{"monitors": [`)))
}

func TestValidationErrorsOfValidData(t *testing.T) {
	v, err := NewFactsValidator()
	require.NoError(t, err)
	assert.Nil(t, v.ValidationErrors(compiledTables(t, "RULE = always p")))
}

func TestConfigValidator(t *testing.T) {
	v, err := NewConfigValidator()
	require.NoError(t, err)
	assert.Equal(t, "#Config", v.Definition())

	valid := `{
		"monitor": {"kind": "per_task", "output_dir": "."},
		"monitors": [{"spec": "specs/*.ltl", "exclude": ["specs/old.ltl"]}],
		"codegen": {"max_columns": 100, "tab_extra_columns": 7},
		"limits": {"max_atoms": 32, "max_states": 32},
		"lint": {"rules": {"dead_end_state": "error", "unconditional_state": "off"}},
		"timing": {"enabled": false},
		"cache": {"enabled": true, "dir": ".rvgen_ltl_cache"}
	}`
	assert.NoError(t, v.ValidateJSON([]byte(valid)))

	invalid := `{
		"monitor": {"kind": "per_task", "output_dir": "."},
		"codegen": {"max_columns": 100, "tab_extra_columns": 7},
		"limits": {"max_atoms": 32, "max_states": 32},
		"lint": {"rules": {"dead_end_state": "loud"}},
		"timing": {"enabled": false},
		"cache": {}
	}`
	assert.Error(t, v.ValidateJSON([]byte(invalid)))
}
