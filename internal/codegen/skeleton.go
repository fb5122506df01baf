package codegen

import (
	"fmt"
	"strings"
)

// The skeletons below are starting points for the hand-written part of a
// monitor. Every spot that needs a human is marked XXX.

func (g *Generator) handlerName(i int) string {
	return "handle_" + strings.ToLower(g.Atoms[i])
}

// TracepointHandlersSkel renders one empty tracepoint handler per atom.
func (g *Generator) TracepointHandlersSkel() string {
	if len(g.Atoms) == 0 {
		return "static void handle_example_event(void *data, /* XXX: fill header */)\n{\n}\n"
	}
	var b strings.Builder
	for i, a := range g.Atoms {
		fmt.Fprintf(&b, "static void %s(void *data, /* XXX: fill header */)\n", g.handlerName(i))
		b.WriteString("{\n")
		fmt.Fprintf(&b, "\tltl_atom_update(task, LTL_%s, true/false); /* XXX */\n", a)
		b.WriteString("}\n")
		b.WriteString("\n")
	}
	return b.String()
}

// TracepointAttachProbe renders the probe attach calls of enable_<name>.
func (g *Generator) TracepointAttachProbe() string {
	return g.probeCalls("rv_attach_trace_probe")
}

// TracepointDetachHelper renders the probe detach calls of disable_<name>.
func (g *Generator) TracepointDetachHelper() string {
	return g.probeCalls("rv_detach_trace_probe")
}

func (g *Generator) probeCalls(fn string) string {
	if len(g.Atoms) == 0 {
		return fmt.Sprintf("\t%s(%q, /* XXX: tracepoint */, handle_example_event);", fn, g.Name)
	}
	lines := make([]string, len(g.Atoms))
	for i := range g.Atoms {
		lines[i] = fmt.Sprintf("\t%s(%q, /* XXX: tracepoint */, %s);", fn, g.Name, g.handlerName(i))
	}
	return strings.Join(lines, "\n")
}

// AtomsInit renders the body of ltl_atoms_init: one initial value per atom.
func (g *Generator) AtomsInit() string {
	lines := make([]string, len(g.Atoms))
	for i, a := range g.Atoms {
		lines[i] = fmt.Sprintf("\tltl_atom_set(mon, LTL_%s, true/false); /* XXX */", a)
	}
	return strings.Join(lines, "\n")
}
