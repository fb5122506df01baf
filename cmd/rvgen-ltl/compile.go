package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/robert-at-pretension-io/rvgen-ltl/internal/config"
	"github.com/robert-at-pretension-io/rvgen-ltl/internal/monitor"
)

var compileOpts struct {
	specOptions
	out        string
	dot        bool
	facts      bool
	force      bool
	watch      bool
	timing     bool
	timingPath string
}

var compileCmd = &cobra.Command{
	Use:   "compile [spec.ltl...]",
	Short: "Generate monitor sources from LTL specs",
	Long: `Compile each spec into <out>/<name>/ltl_<name>.h and a <name>.c skeleton.

An existing <name>.c is kept unless --force is given. Without arguments the
monitors listed in the configuration are compiled.`,
	RunE: runCompile,
}

func init() {
	compileOpts.register(compileCmd)
	f := compileCmd.Flags()
	f.StringVarP(&compileOpts.out, "out", "o", "", "output directory (default from config)")
	f.BoolVar(&compileOpts.dot, "dot", false, "also write <name>.dot")
	f.BoolVar(&compileOpts.facts, "facts", false, "also write <name>.facts.json")
	f.BoolVar(&compileOpts.force, "force", false, "overwrite an existing <name>.c")
	f.BoolVarP(&compileOpts.watch, "watch", "w", false, "recompile when a spec changes")
	f.BoolVar(&compileOpts.timing, "timing", false, "write stage timings as JSONL")
	f.StringVar(&compileOpts.timingPath, "timing-path", "", "timing output file (implies --timing)")
}

func runCompile(cmd *cobra.Command, args []string) error {
	cfg, root, err := loadConfig(firstArg(args))
	if err != nil {
		return err
	}
	specs, err := compileOpts.resolve(args, cfg, root)
	if err != nil {
		return err
	}

	c := monitor.NewCompiler(cfg, logger)
	c.Root = root
	if compileOpts.out != "" {
		c.Output.OutputDir = compileOpts.out
	} else if !filepath.IsAbs(c.Output.OutputDir) {
		c.Output.OutputDir = filepath.Join(root, c.Output.OutputDir)
	}
	c.Output.Dot = c.Output.Dot || compileOpts.dot
	c.Output.Facts = c.Output.Facts || compileOpts.facts
	c.Output.Force = compileOpts.force
	c.Timing = compileOpts.timing || compileOpts.timingPath != ""
	c.TimingPath = compileOpts.timingPath

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := c.Run(ctx, specs)
	if !compileOpts.watch {
		if err == nil {
			logSummary(report)
		}
		return err
	}
	if err != nil {
		logger.Error("compile failed", zap.Error(err))
	} else {
		logSummary(report)
	}
	return watchSpecs(ctx, c, specs)
}

func logSummary(report *monitor.Report) {
	logger.Info("done",
		zap.Int("compiled", len(report.Monitors)),
		zap.Int("up_to_date", len(report.UpToDate)),
	)
}

// watchSpecs recompiles the changed specs until ctx is cancelled. Failures
// are logged and the watch goes on.
func watchSpecs(ctx context.Context, c *monitor.Compiler, specs []config.ResolvedMonitor) error {
	byPath := make(map[string]config.ResolvedMonitor, len(specs))
	files := make([]string, 0, len(specs))
	for _, s := range specs {
		abs, err := filepath.Abs(s.Spec)
		if err != nil {
			return err
		}
		byPath[abs] = s
		files = append(files, abs)
	}

	logger.Info("watching specs", zap.Int("count", len(files)))
	return monitor.Watch(ctx, files, monitor.DefaultDebounce, logger, func(changed []string) {
		var todo []config.ResolvedMonitor
		for _, path := range changed {
			todo = append(todo, byPath[path])
		}
		report, err := c.Run(ctx, todo)
		if err != nil {
			logger.Error("compile failed", zap.Error(err))
			return
		}
		logSummary(report)
	})
}
