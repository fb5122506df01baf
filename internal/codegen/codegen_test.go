package codegen

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-at-pretension-io/rvgen-ltl/internal/automaton"
	"github.com/robert-at-pretension-io/rvgen-ltl/internal/ltl"
)

func generator(t *testing.T, src string) *Generator {
	t.Helper()
	g, err := automaton.CreateGraph(src)
	require.NoError(t, err)
	gen, err := New(KindPerTask, "demo", g)
	require.NoError(t, err)
	return gen
}

func TestAbbreviateAtoms(t *testing.T) {
	tests := []struct {
		name  string
		atoms []string
		want  []string
	}{
		{"shared prefix", []string{"LOCK_ACQUIRE", "LOCK_RELEASE"}, []string{"lo_ac", "lo_re"}},
		{"single atom", []string{"TASK_IS_RUNNING"}, []string{"ta_ru"}},
		{"prefix of another", []string{"A", "AB"}, []string{"a", "ab"}},
		{"filler clash", []string{"A_IS_B", "A_B"}, []string{"a_is_b", "a_b"}},
		{"only filler", []string{"IS"}, []string{"is"}},
		{"empty", nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AbbreviateAtoms(tt.atoms))
		})
	}
}

func TestAbbreviateAtomsAreDistinct(t *testing.T) {
	lists := [][]string{
		{"LOCK_ACQUIRE", "LOCK_RELEASE", "LOCK_ACQUIRED", "LOCK_ACQUIRE_BY_OWNER"},
		{"A_IS_B", "A_B", "A_OR_B", "A_AND_B", "A_BY_B"},
		{"SLEEPABLE", "SLEEP", "SLEEPING", "SL", "S"},
		{"RT", "RT_TASK", "RTX", "RTX_TASK", "R_T"},
	}
	for _, atoms := range lists {
		abbrs := AbbreviateAtoms(atoms)
		require.Len(t, abbrs, len(atoms))
		seen := make(map[string]string)
		for i, a := range abbrs {
			assert.NotEmpty(t, a, atoms[i])
			if prev, dup := seen[a]; dup {
				t.Errorf("%s and %s both abbreviate to %q", prev, atoms[i], a)
			}
			seen[a] = atoms[i]
		}
	}
}

func TestNewRejectsOtherKinds(t *testing.T) {
	g, err := automaton.CreateGraph("RULE = always p")
	require.NoError(t, err)

	for _, kind := range []string{"global", "per_cpu", "per_obj", ""} {
		gen, err := New(kind, "demo", g)
		assert.Nil(t, gen)
		assert.True(t, errors.Is(err, ErrUnsupportedMonitorKind), "kind %q", kind)
	}
}

func TestEnums(t *testing.T) {
	gen := generator(t, "RULE = LOCK_ACQUIRE until LOCK_RELEASE")

	assert.Equal(t, `enum ltl_atom {
	LTL_LOCK_ACQUIRE,
	LTL_LOCK_RELEASE,
	LTL_NUM_ATOM
};
static_assert(LTL_NUM_ATOM <= RV_MAX_LTL_ATOM);`, gen.AtomsEnum())

	assert.Equal(t, `enum ltl_buchi_state {
	S0,
	S1,
	S2,
	RV_NUM_BA_STATES
};
static_assert(RV_NUM_BA_STATES <= RV_MAX_BA_STATES);`, gen.StatesEnum())

	assert.Equal(t, `static const char *ltl_atom_str(enum ltl_atom atom)
{
	static const char *const names[] = {
		"lo_ac",
		"lo_re",
	};

	return names[atom];
}`, gen.AtomStr())
}

func TestStartAndTransitions(t *testing.T) {
	gen := generator(t, "RULE = p until q")

	assert.Equal(t, `static void ltl_start(struct task_struct *task, struct ltl_monitor *mon)
{
	bool p = test_bit(LTL_P, mon->atoms);
	bool q = test_bit(LTL_Q, mon->atoms);

	if (p)
		__set_bit(S0, mon->states);
	if (q)
		__set_bit(S1, mon->states);
}`, gen.Start())

	assert.Equal(t, `static void
ltl_possible_next_states(struct ltl_monitor *mon, unsigned int state, unsigned long *next)
{
	bool p = test_bit(LTL_P, mon->atoms);
	bool q = test_bit(LTL_Q, mon->atoms);

	switch (state) {
	case S0:
		if (p)
			__set_bit(S0, next);
		if (q)
			__set_bit(S1, next);
		break;
	case S1:
		__set_bit(S2, next);
		break;
	case S2:
		__set_bit(S2, next);
		break;
	}
}`, gen.Transitions())
}

func TestCompoundValuesAreComputedOnce(t *testing.T) {
	gen := generator(t, "RULE = always (a and not b)")

	guard := gen.Graph.Rule.Right
	notB := guard.Right
	require.Equal(t, ltl.KindNot, notB.Kind)

	start := gen.Start()
	decls := []string{
		"\tbool a = test_bit(LTL_A, mon->atoms);",
		"\tbool b = test_bit(LTL_B, mon->atoms);",
		fmt.Sprintf("\tbool %s = !b;", notB),
		fmt.Sprintf("\tbool %s = a && %s;", guard, notB),
	}
	last := -1
	for _, d := range decls {
		assert.Equal(t, 1, strings.Count(start, d), d)
		idx := strings.Index(start, d)
		assert.Greater(t, idx, last, "%q is out of order", d)
		last = idx
	}
	assert.Contains(t, start, fmt.Sprintf("\tif (%s)\n\t\t__set_bit(S0, mon->states);", guard))
}

var guardProperties = []string{
	"RULE = p until q",
	"RULE = always (p imply eventually q)",
	"RULE = always (REQ imply (not GRANT until (GRANT or ABORT)))",
	"RULE = eventually (a and (b or not c)) and always not d",
}

func TestGuardsReadExactlyTheLabelAtoms(t *testing.T) {
	for _, src := range guardProperties {
		gen := generator(t, src)
		transitions := gen.Transitions()
		for _, n := range gen.Graph.Nodes {
			var want []string
			for _, o := range n.Old.Slice() {
				if o.IsTemporal() {
					continue
				}
				for _, a := range ltl.Atoms(o) {
					want = appendUnique(want, a)
				}
			}
			assert.ElementsMatch(t, want, gen.GuardAtoms(n.ID), "%s: S%d", src, n.ID)

			hasPred := false
			for m := range n.Incoming.Items() {
				hasPred = hasPred || !gen.Graph.IsRoot(m)
			}
			if guard := gen.Guard(n.ID); guard != "" && hasPred {
				assert.Contains(t, transitions, "if ("+guard+")", "%s: S%d", src, n.ID)
			}
		}
	}
}

func TestWrapConditional(t *testing.T) {
	w := Wrap{Columns: 40, TabExtra: 7}

	lines := w.conditional("\t\t", []string{"p"}, "x();")
	assert.Equal(t, []string{"\t\tif (p)", "\t\t\tx();"}, lines)

	terms := []string{"alpha_value", "beta_value", "gamma_value", "delta_value"}
	lines = w.conditional("\t", terms, "__set_bit(S1, next);")
	assert.Equal(t, []string{
		"\tif (alpha_value && beta_value &&",
		"\t    gamma_value && delta_value)",
		"\t\t__set_bit(S1, next);",
	}, lines)
	for _, l := range lines {
		assert.LessOrEqual(t, w.width(l), w.Columns, l)
	}
}

func TestLongGuardsAreWrapped(t *testing.T) {
	var names []string
	for i := 0; i < 12; i++ {
		names = append(names, fmt.Sprintf("VERY_LONG_ATOM_NAME_%02d", i))
	}
	// The eventually keeps every conjunction temporal, so each atom becomes
	// a label of its own.
	gen := generator(t, "RULE = always ("+strings.Join(names, " and ")+" and eventually DONE)")

	transitions := gen.Transitions()
	assert.Contains(t, transitions, " &&\n\t\t    ")
	for _, l := range strings.Split(transitions, "\n") {
		assert.LessOrEqual(t, gen.Wrap.width(l), 100, l)
	}
}

func TestFill(t *testing.T) {
	gen := generator(t, "RULE = LOCK_ACQUIRE until LOCK_RELEASE")
	out := gen.Fill("#define MODULE_NAME \"%%MODEL_NAME%%\"\n%%ATOMS_INIT%%\n%%TRACEPOINT_ATTACH%%\n")

	assert.Contains(t, out, `#define MODULE_NAME "demo"`)
	assert.Contains(t, out, "\tltl_atom_set(mon, LTL_LOCK_ACQUIRE, true/false); /* XXX */")
	assert.Contains(t, out, `rv_attach_trace_probe("demo", /* XXX: tracepoint */, handle_lock_release);`)
	assert.NotContains(t, out, "%%")

	frags := gen.Fragments()
	assert.Len(t, frags, 10)
	assert.Contains(t, frags[PlaceholderHandlersSkel], "static void handle_lock_acquire(void *data, /* XXX: fill header */)")
}

func TestModelHeader(t *testing.T) {
	gen := generator(t, "RULE = always (p imply eventually q)")
	h := gen.ModelHeader()

	assert.True(t, strings.HasPrefix(h, "/* SPDX-License-Identifier: GPL-2.0 */"))
	assert.Contains(t, h, "#define MONITOR_NAME demo\n")
	for _, part := range []string{gen.AtomsEnum(), gen.AtomStr(), gen.StatesEnum(), gen.Start(), gen.Transitions()} {
		assert.Contains(t, h, part)
	}
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
