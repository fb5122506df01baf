package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/robert-at-pretension-io/rvgen-ltl/internal/monitor"
	"github.com/robert-at-pretension-io/rvgen-ltl/internal/policy"
)

var lintOpts struct {
	specOptions
	json bool
}

var lintCmd = &cobra.Command{
	Use:   "lint [spec.ltl...]",
	Short: "Check compiled specs against the lint policy",
	Long: `Compile each spec and evaluate the lint policy over its automaton.
Nothing is written. Exits non-zero when a finding has severity error.`,
	RunE: runLint,
}

func init() {
	lintOpts.register(lintCmd)
	lintCmd.Flags().BoolVar(&lintOpts.json, "json", false, "print findings as JSON")
}

func runLint(cmd *cobra.Command, args []string) error {
	cfg, root, err := loadConfig(firstArg(args))
	if err != nil {
		return err
	}
	specs, err := lintOpts.resolve(args, cfg, root)
	if err != nil {
		return err
	}

	// Findings are printed below, not logged.
	c := monitor.NewCompiler(cfg, nil)
	mons, err := c.Load(cmd.Context(), specs)
	if err != nil {
		return err
	}
	_, result, err := c.Analyze(cmd.Context(), mons)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if lintOpts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
	} else {
		printViolations(out, result)
	}

	if result.HasErrors() {
		return fmt.Errorf("%w: %d error(s)", monitor.ErrLintFailed, result.Summary.Errors)
	}
	return nil
}

func printViolations(w io.Writer, result *policy.Result) {
	for _, v := range result.Violations {
		where := v.File
		if where == "" {
			where = v.Monitor
		}
		if v.State != nil {
			where = fmt.Sprintf("%s:S%d", where, *v.State)
		}
		fmt.Fprintf(w, "%s: %s: %s [%s]\n", where, v.Severity, v.Message, v.Rule)
	}
	s := result.Summary
	fmt.Fprintf(w, "%d finding(s): %d error(s), %d warning(s), %d info\n",
		s.TotalViolations, s.Errors, s.Warnings, s.Info)
}
