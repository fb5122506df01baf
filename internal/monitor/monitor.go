// Package monitor drives the compilation of LTL specs into kernel monitors:
// it loads specs, checks the compiled automata against the fact schema and
// the lint policy, and writes the generated sources.
package monitor

import (
	"fmt"
	"os"

	"github.com/robert-at-pretension-io/rvgen-ltl/internal/automaton"
	"github.com/robert-at-pretension-io/rvgen-ltl/internal/codegen"
	"github.com/robert-at-pretension-io/rvgen-ltl/internal/config"
	"github.com/robert-at-pretension-io/rvgen-ltl/internal/facts"
)

// Monitor is one compiled spec.
type Monitor struct {
	Name string
	Kind string
	Spec string
	// Hash is the sha256 of the spec contents.
	Hash  string
	Graph *automaton.Graph
	Gen   *codegen.Generator
}

// Load reads and compiles the spec of m. Wrap settings come from cfg.
func Load(m config.ResolvedMonitor, cfg *config.Config) (*Monitor, error) {
	src, err := os.ReadFile(m.Spec)
	if err != nil {
		return nil, fmt.Errorf("read spec: %w", err)
	}
	mon, err := Compile(m.Name, m.Kind, string(src), cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.Spec, err)
	}
	mon.Spec = m.Spec
	mon.Hash = hashBytes(src)
	return mon, nil
}

// Compile builds the automaton and the generator for src.
func Compile(name, kind, src string, cfg *config.Config) (*Monitor, error) {
	if err := config.ValidateMonitorName(name); err != nil {
		return nil, err
	}
	g, err := automaton.CreateGraph(src)
	if err != nil {
		return nil, err
	}
	gen, err := codegen.New(kind, name, g)
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		gen.Wrap = codegen.Wrap{
			Columns:  cfg.Codegen.MaxColumns,
			TabExtra: cfg.Codegen.TabExtraColumns,
		}
	}
	return &Monitor{
		Name:  name,
		Kind:  kind,
		Graph: g,
		Gen:   gen,
	}, nil
}

// Source describes m for the fact tables.
func (m *Monitor) Source() facts.Source {
	return facts.Source{
		Name:    m.Name,
		Kind:    m.Kind,
		Spec:    m.Spec,
		Graph:   m.Graph,
		Abbrevs: m.Gen.Abbrevs,
	}
}

// Sources describes every monitor for the fact tables.
func Sources(mons []*Monitor) []facts.Source {
	out := make([]facts.Source, len(mons))
	for i, m := range mons {
		out[i] = m.Source()
	}
	return out
}
