// ltl-debug prints the intermediate forms of an LTL spec: its tokens, the
// resolved rule, the normalized rule, the atoms the monitor would read and,
// with -states, the atoms each state guard reads.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/robert-at-pretension-io/rvgen-ltl/internal/automaton"
	"github.com/robert-at-pretension-io/rvgen-ltl/internal/codegen"
	"github.com/robert-at-pretension-io/rvgen-ltl/internal/ltl"
)

func main() {
	tokens := flag.Bool("tokens", false, "print the token stream")
	states := flag.Bool("states", false, "also build the automaton and print its states")
	flag.Parse()

	src, err := readSource(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *tokens {
		toks, err := ltl.Lex(src)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		for _, t := range toks {
			fmt.Println(t)
		}
		fmt.Println()
	}

	spec, err := ltl.ParseSpec(src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("rule:       %s\n", spec.Rule.Format())
	normal := spec.Arena.Clone(spec.Rule)
	ltl.NormalizeTree(normal)
	fmt.Printf("normalized: %s\n", normal.Format())
	fmt.Printf("atoms:      %s\n", strings.Join(ltl.Atoms(normal), ", "))
	if len(spec.Redefined) > 0 {
		fmt.Printf("redefined:  %s\n", strings.Join(spec.Redefined, ", "))
	}
	if len(spec.Unused) > 0 {
		fmt.Printf("unused:     %s\n", strings.Join(spec.Unused, ", "))
	}

	if !*states {
		return
	}
	g := automaton.Build(spec)
	gen, err := codegen.New(codegen.KindPerTask, "debug", g)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\n%d states, closure %d\n", len(g.Nodes), g.ClosureSize())
	for _, n := range g.Nodes {
		init := ""
		if n.Init {
			init = " (init)"
		}
		fmt.Printf("  S%d%s: %s  [reads: %s]\n", n.ID, init, automaton.Guard(n),
			strings.Join(gen.GuardAtoms(n.ID), ", "))
	}
}

func readSource(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(args[0])
	return string(data), err
}
