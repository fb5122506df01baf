package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/robert-at-pretension-io/rvgen-ltl/internal/facts"
	"github.com/robert-at-pretension-io/rvgen-ltl/internal/monitor"
)

var factsOpts struct {
	specOptions
	output    string
	deltaFrom string
	deltaOut  string
}

var factsCmd = &cobra.Command{
	Use:   "facts [spec.ltl...]",
	Short: "Print the fact tables of compiled specs as JSON",
	RunE:  runFacts,
}

func init() {
	factsOpts.register(factsCmd)
	f := factsCmd.Flags()
	f.StringVarP(&factsOpts.output, "output", "o", "", "write facts JSON to file (default: stdout)")
	f.StringVar(&factsOpts.deltaFrom, "delta-from", "", "previous facts JSON to compute delta from")
	f.StringVar(&factsOpts.deltaOut, "delta-out", "", "write delta JSON to file (requires --delta-from)")
}

func runFacts(cmd *cobra.Command, args []string) error {
	if (factsOpts.deltaFrom == "") != (factsOpts.deltaOut == "") {
		return fmt.Errorf("--delta-from and --delta-out must be used together")
	}

	cfg, root, err := loadConfig(firstArg(args))
	if err != nil {
		return err
	}
	specs, err := factsOpts.resolve(args, cfg, root)
	if err != nil {
		return err
	}

	c := monitor.NewCompiler(cfg, logger)
	mons, err := c.Load(cmd.Context(), specs)
	if err != nil {
		return err
	}
	tables, err := c.Facts(mons)
	if err != nil {
		return err
	}

	if factsOpts.output != "" {
		if err := facts.WriteFile(factsOpts.output, tables); err != nil {
			return err
		}
	} else {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(tables); err != nil {
			return fmt.Errorf("encoding facts: %w", err)
		}
	}

	if factsOpts.deltaFrom != "" {
		prev, err := facts.ReadFile(factsOpts.deltaFrom)
		if err != nil {
			return fmt.Errorf("delta-from: %w", err)
		}
		// prev may cover more monitors than were compiled here.
		compiled := make(map[string]bool, len(mons))
		for _, m := range mons {
			compiled[m.Name] = true
		}
		delta := facts.FilterDeltaByMonitors(facts.ComputeDelta(prev, tables), compiled)
		if err := facts.WriteFile(factsOpts.deltaOut, delta); err != nil {
			return fmt.Errorf("delta-out: %w", err)
		}
	}
	return nil
}
