package facts

import (
	"strconv"
	"strings"
)

// Delta captures added and removed fact rows between two snapshots.
type Delta struct {
	Added   Tables `json:"added"`
	Removed Tables `json:"removed"`
}

// ComputeDelta computes row-level additions and removals between two snapshots.
func ComputeDelta(prev, next Tables) Delta {
	return Delta{
		Added:   diffTables(prev, next),
		Removed: diffTables(next, prev),
	}
}

// Empty reports whether the snapshots were identical.
func (d Delta) Empty() bool {
	return d.Added.Len() == 0 && d.Removed.Len() == 0
}

// Len is the total number of rows.
func (t Tables) Len() int {
	return len(t.Monitors) + len(t.Atoms) + len(t.States) +
		len(t.Transitions) + len(t.SubExprs) + len(t.Limits)
}

func diffTables(from, to Tables) Tables {
	out := emptyTables()

	out.Monitors = diffRows(from.Monitors, to.Monitors, func(r MonitorRow) string {
		return r.Name + "|" + r.Kind + "|" + r.Spec + "|" + r.Rule + "|" + intKey(r.Closure) + "|" +
			intKey(r.States) + "|" + intKey(r.Atoms) + "|" + strings.Join(r.Redefined, ",")
	})
	out.Atoms = diffRows(from.Atoms, to.Atoms, func(r AtomRow) string {
		return r.Monitor + "|" + r.Name + "|" + r.Abbrev + "|" + intKey(r.Index)
	})
	out.States = diffRows(from.States, to.States, func(r StateRow) string {
		return r.Monitor + "|" + intKey(r.ID) + "|" + boolKey(r.Init) + "|" + r.Guard + "|" +
			strings.Join(r.Labels, ",") + "|" + strings.Join(r.Pending, ",")
	})
	out.Transitions = diffRows(from.Transitions, to.Transitions, func(r TransitionRow) string {
		return r.Monitor + "|" + intKey(r.From) + "|" + intKey(r.To) + "|" + r.Guard
	})
	out.SubExprs = diffRows(from.SubExprs, to.SubExprs, func(r SubExprRow) string {
		return r.Monitor + "|" + r.Name + "|" + r.Formula + "|" + boolKey(r.Used) + "|" + boolKey(r.Redefined)
	})
	out.Limits = diffRows(from.Limits, to.Limits, func(r LimitRow) string {
		return r.Name + "|" + intKey(r.Value)
	})

	return out
}

func diffRows[T any](from, to []T, key func(T) string) []T {
	fromSet := make(map[string]struct{}, len(from))
	for _, row := range from {
		fromSet[key(row)] = struct{}{}
	}
	diff := []T{}
	for _, row := range to {
		if _, ok := fromSet[key(row)]; !ok {
			diff = append(diff, row)
		}
	}
	return diff
}

func boolKey(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func intKey(v int) string {
	return strconv.Itoa(v)
}
