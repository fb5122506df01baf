package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/robert-at-pretension-io/rvgen-ltl/internal/config"
)

var (
	verbose    bool
	configPath string
	logger     = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "rvgen-ltl",
	Short: "Generate kernel runtime verification monitors from LTL specifications",
	Long: `rvgen-ltl compiles linear temporal logic specifications into Büchi
automata and renders them as per-task kernel RV monitors.

Configuration is read from, in order:
  1. ./rvgen_ltl.yaml
  2. ./.rvgen_ltl.yaml
  3. <spec dir>/rvgen_ltl.yaml
  4. ~/.config/rvgen_ltl/config.yaml

Run 'rvgen-ltl init' to create a default configuration file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		l, err := newLogger(verbose)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "configuration file (default: search the usual locations)")

	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(factsCmd)
	rootCmd.AddCommand(lintCmd)
	rootCmd.AddCommand(dotCmd)
	rootCmd.AddCommand(initCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger builds a console logger on stderr, so stdout stays clean for
// DOT, facts and lint output.
func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.DisableStacktrace = !debug
	cfg.DisableCaller = !debug
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// loadConfig reads --config when given, otherwise searches next to specPath.
// It also returns the directory relative paths of the config are anchored at.
func loadConfig(specPath string) (*config.Config, string, error) {
	var (
		cfg  *config.Config
		path = configPath
		err  error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, path, err = config.Load(specPath)
	}
	if err != nil {
		return nil, "", fmt.Errorf("load config: %w", err)
	}
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, "", err
		}
		logger.Debug("no config file found, using defaults")
		return cfg, cwd, nil
	}
	logger.Debug("loaded config", zap.String("path", path))
	root, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, "", err
	}
	return cfg, root, nil
}

// specOptions are the flags shared by every command that takes specs.
type specOptions struct {
	kind string
	name string
}

func (o *specOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.kind, "kind", "", "monitor kind (default from config, per_task)")
	cmd.Flags().StringVar(&o.name, "name", "", "monitor name (default: spec file name); only with a single spec")
}

// resolve turns the spec arguments into monitors. Without arguments the
// monitors list of the configuration is used.
func (o *specOptions) resolve(args []string, cfg *config.Config, root string) ([]config.ResolvedMonitor, error) {
	if o.name != "" && len(args) != 1 {
		return nil, fmt.Errorf("--name needs exactly one spec")
	}
	if len(args) == 0 {
		if len(cfg.Monitors) == 0 {
			return nil, fmt.Errorf("no spec given and no monitors configured")
		}
		mons, err := cfg.ResolveMonitors(root)
		if err != nil {
			return nil, fmt.Errorf("resolve monitors: %w", err)
		}
		if o.kind != "" {
			for i := range mons {
				mons[i].Kind = o.kind
			}
		}
		return mons, nil
	}

	kind := o.kind
	if kind == "" {
		kind = cfg.Monitor.Kind
	}
	mons := make([]config.ResolvedMonitor, 0, len(args))
	for _, spec := range args {
		name := o.name
		if name == "" {
			name = config.MonitorName(spec)
		}
		mons = append(mons, config.ResolvedMonitor{Name: name, Spec: spec, Kind: kind})
	}
	return mons, nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
