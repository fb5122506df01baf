package facts

import (
	"encoding/json"
	"fmt"
	"os"
)

// ReadFile loads a snapshot written by WriteFile.
func ReadFile(path string) (Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("reading facts %s: %w", path, err)
	}
	tables := emptyTables()
	if err := json.Unmarshal(data, &tables); err != nil {
		return Tables{}, fmt.Errorf("parsing facts %s: %w", path, err)
	}
	tables.fillEmpty()
	return tables, nil
}

// WriteFile writes v (Tables or Delta) as indented JSON.
func WriteFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling facts: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing facts %s: %w", path, err)
	}
	return nil
}

// fillEmpty replaces null tables with empty ones.
func (t *Tables) fillEmpty() {
	e := emptyTables()
	if t.Monitors == nil {
		t.Monitors = e.Monitors
	}
	if t.Atoms == nil {
		t.Atoms = e.Atoms
	}
	if t.States == nil {
		t.States = e.States
	}
	if t.Transitions == nil {
		t.Transitions = e.Transitions
	}
	if t.SubExprs == nil {
		t.SubExprs = e.SubExprs
	}
	if t.Limits == nil {
		t.Limits = e.Limits
	}
}
