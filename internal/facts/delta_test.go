package facts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeDeltaAddsAndRemoves(t *testing.T) {
	prev := BuildTables([]Source{source(t, "demo", "RULE = p until q")}, Limits{MaxAtoms: 32})
	next := BuildTables([]Source{source(t, "demo", "RULE = p until r")}, Limits{MaxAtoms: 32})

	delta := ComputeDelta(prev, next)

	require.Len(t, delta.Added.Atoms, 1)
	assert.Equal(t, "R", delta.Added.Atoms[0].Name)
	require.Len(t, delta.Removed.Atoms, 1)
	assert.Equal(t, "Q", delta.Removed.Atoms[0].Name)

	assert.Len(t, delta.Added.Monitors, 1)
	assert.Len(t, delta.Removed.Monitors, 1)
	assert.Empty(t, delta.Added.Limits)
	assert.Empty(t, delta.Removed.Limits)
	assert.False(t, delta.Empty())
}

func TestComputeDeltaOfIdenticalSnapshots(t *testing.T) {
	tables := BuildTables([]Source{source(t, "demo", "RULE = always (p imply eventually q)")}, Limits{MaxStates: 8})
	delta := ComputeDelta(tables, tables)

	assert.True(t, delta.Empty())
	assert.NotNil(t, delta.Added.States)
	assert.NotNil(t, delta.Removed.Transitions)
}

func TestComputeDeltaLimits(t *testing.T) {
	delta := ComputeDelta(
		Tables{Limits: []LimitRow{{Name: LimitMaxStates, Value: 32}}},
		Tables{Limits: []LimitRow{{Name: LimitMaxStates, Value: 64}}},
	)
	assert.Equal(t, []LimitRow{{Name: LimitMaxStates, Value: 64}}, delta.Added.Limits)
	assert.Equal(t, []LimitRow{{Name: LimitMaxStates, Value: 32}}, delta.Removed.Limits)
	assert.Equal(t, 1, delta.Added.Len())
}
