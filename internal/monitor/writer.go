package monitor

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/robert-at-pretension-io/rvgen-ltl/internal/facts"
)

//go:embed templates/monitor.c
var monitorTemplate string

// generatorVersion changes whenever generated output may change for the
// same spec, which invalidates the output cache.
var generatorVersion = "1-" + hashBytes([]byte(monitorTemplate))[:12]

// WriteOptions selects what Write produces.
type WriteOptions struct {
	// OutputDir receives one <name>/ directory per monitor.
	OutputDir string
	Dot       bool
	Facts     bool
	// Force overwrites an existing <name>.c. The skeleton is meant to be
	// completed by hand, so it is only written once by default.
	Force bool
}

// Written lists the files one Write call produced.
type Written struct {
	// Generated are regenerated on every run: the model header and the
	// optional .dot and .facts.json files.
	Generated []string
	// Skeleton is the path of <name>.c, empty when an existing one was kept.
	Skeleton string
	// Kept is the path of the existing <name>.c that was left alone.
	Kept string
}

// Dir is the output directory of m.
func (o WriteOptions) Dir(m *Monitor) string {
	dir := o.OutputDir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, m.Name)
}

// SkeletonPath is the path of <name>.c, written or kept.
func (w Written) SkeletonPath() string {
	if w.Skeleton != "" {
		return w.Skeleton
	}
	return w.Kept
}

// Write renders m into its output directory. tables may hold other monitors
// too; only the rows of m are written to <name>.facts.json.
func Write(m *Monitor, tables facts.Tables, opts WriteOptions) (Written, error) {
	var w Written
	dir := opts.Dir(m)

	header := filepath.Join(dir, "ltl_"+m.Name+".h")
	if err := writeFileAtomic(header, []byte(m.Gen.ModelHeader())); err != nil {
		return w, err
	}
	w.Generated = append(w.Generated, header)

	skeleton := filepath.Join(dir, m.Name+".c")
	if _, err := os.Stat(skeleton); err == nil && !opts.Force {
		w.Kept = skeleton
	} else {
		if err := writeFileAtomic(skeleton, []byte(m.Gen.Fill(monitorTemplate))); err != nil {
			return w, err
		}
		w.Skeleton = skeleton
	}

	if opts.Dot {
		path := filepath.Join(dir, m.Name+".dot")
		if err := writeFileAtomic(path, []byte(m.Graph.Dot(m.Name))); err != nil {
			return w, err
		}
		w.Generated = append(w.Generated, path)
	}

	if opts.Facts {
		path := filepath.Join(dir, m.Name+".facts.json")
		own := facts.FilterTablesByMonitors(tables, map[string]bool{m.Name: true})
		if err := writeJSONAtomic(path, own); err != nil {
			return w, fmt.Errorf("facts: %w", err)
		}
		w.Generated = append(w.Generated, path)
	}

	return w, nil
}
