package facts

// FilterTablesByMonitors returns a new Tables object containing only rows of
// the named monitors. Limits are global and always kept.
func FilterTablesByMonitors(tables Tables, monitors map[string]bool) Tables {
	out := emptyTables()
	out.Limits = append(out.Limits, tables.Limits...)
	if len(monitors) == 0 {
		return out
	}

	for _, row := range tables.Monitors {
		if monitors[row.Name] {
			out.Monitors = append(out.Monitors, row)
		}
	}
	for _, row := range tables.Atoms {
		if monitors[row.Monitor] {
			out.Atoms = append(out.Atoms, row)
		}
	}
	for _, row := range tables.States {
		if monitors[row.Monitor] {
			out.States = append(out.States, row)
		}
	}
	for _, row := range tables.Transitions {
		if monitors[row.Monitor] {
			out.Transitions = append(out.Transitions, row)
		}
	}
	for _, row := range tables.SubExprs {
		if monitors[row.Monitor] {
			out.SubExprs = append(out.SubExprs, row)
		}
	}

	return out
}

// FilterDeltaByMonitors returns a new Delta containing only rows of the
// named monitors.
func FilterDeltaByMonitors(delta Delta, monitors map[string]bool) Delta {
	return Delta{
		Added:   FilterTablesByMonitors(delta.Added, monitors),
		Removed: FilterTablesByMonitors(delta.Removed, monitors),
	}
}
