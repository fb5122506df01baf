// =============================================================================
// rvgen-ltl - Main Entry Point
// =============================================================================
//
// Turns an LTL property into the C sources of a kernel runtime verification
// monitor.
//
// THE PIPELINE:
//   1. The lexer and parser read NAME = <ltl> lines; sub-expressions are
//      substituted into RULE
//   2. The rule is pushed into negation normal form
//   3. The tableau construction builds the Büchi automaton
//   4. Fact tables of the automaton are checked against the CUE contract
//   5. OPA evaluates the lint policy against the fact tables
//   6. The code generator renders ltl_<name>.h and the <name>.c skeleton
//
// WHEN A MONITOR LOOKS WRONG:
//   Start at the beginning of the pipeline, not the end!
//   ltl-debug shows the tokens, the parsed and the normalized rule;
//   `rvgen-ltl dot` shows the automaton before any C is involved.
// =============================================================================

package main

func main() {
	Execute()
}
