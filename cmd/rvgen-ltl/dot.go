package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/robert-at-pretension-io/rvgen-ltl/internal/monitor"
)

var dotOpts specOptions

var dotCmd = &cobra.Command{
	Use:   "dot <spec.ltl>",
	Short: "Print the Büchi automaton of a spec in Graphviz DOT",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, root, err := loadConfig(args[0])
		if err != nil {
			return err
		}
		specs, err := dotOpts.resolve(args, cfg, root)
		if err != nil {
			return err
		}
		m, err := monitor.Load(specs[0], cfg)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), m.Graph.Dot(m.Name))
		return err
	},
}

func init() {
	dotOpts.register(dotCmd)
}
