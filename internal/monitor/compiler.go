package monitor

// =============================================================================
// COMPILER PIPELINE: NO PARTIAL SUCCESS
// =============================================================================
//
// compile -> facts -> validate -> lint -> write
//
// A spec that does not parse, a kind the backend cannot generate, fact
// tables that break the CUE contract or a lint error stop the run before
// anything is written. Only soft failures (timing output, cache index) are
// collected on the way and reported together at the end.
// =============================================================================

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/robert-at-pretension-io/rvgen-ltl/internal/config"
	"github.com/robert-at-pretension-io/rvgen-ltl/internal/facts"
	"github.com/robert-at-pretension-io/rvgen-ltl/internal/policy"
	"github.com/robert-at-pretension-io/rvgen-ltl/internal/validator"
)

// ErrLintFailed is returned when the lint policy reports errors.
var ErrLintFailed = errors.New("lint failed")

// Compiler compiles spec files into monitor sources.
type Compiler struct {
	Config *config.Config
	// Root anchors the relative cache directory.
	Root   string
	Logger *zap.Logger
	Output WriteOptions

	// Timing output (JSONL)
	Timing     bool
	TimingPath string

	engine *policy.Engine
}

// NewCompiler returns a compiler writing to cfg's output directory.
// A nil logger discards all logging.
func NewCompiler(cfg *config.Config, logger *zap.Logger) *Compiler {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compiler{
		Config: cfg,
		Logger: logger,
		Output: WriteOptions{
			OutputDir: cfg.Monitor.OutputDir,
			Dot:       cfg.Monitor.Dot,
			Facts:     cfg.Monitor.Facts,
		},
	}
}

// Report is the outcome of Run.
type Report struct {
	Monitors []*Monitor
	Tables   facts.Tables
	Lint     *policy.Result
	Written  []Written
	// UpToDate lists the specs skipped because their outputs are current.
	UpToDate []string
}

// Load compiles every spec, stopping at the first failure.
func (c *Compiler) Load(ctx context.Context, specs []config.ResolvedMonitor) ([]*Monitor, error) {
	mons := make([]*Monitor, 0, len(specs))
	seen := make(map[string]string)
	for _, s := range specs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if prev, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("monitor name %q used by %s and %s", s.Name, prev, s.Spec)
		}
		seen[s.Name] = s.Spec

		m, err := Load(s, c.Config)
		if err != nil {
			return nil, err
		}
		c.logMonitor(m)
		mons = append(mons, m)
	}
	return mons, nil
}

func (c *Compiler) logMonitor(m *Monitor) {
	spec := m.Graph.Spec
	c.Logger.Debug("compiled monitor",
		zap.String("monitor", m.Name),
		zap.String("spec", m.Spec),
		zap.String("rule", m.Graph.Rule.Format()),
		zap.Int("atoms", len(m.Graph.Atoms)),
		zap.Int("states", len(m.Graph.Nodes)),
		zap.Int("closure", m.Graph.ClosureSize()),
	)
	if spec == nil {
		return
	}
	for _, name := range spec.Redefined {
		c.Logger.Warn("name assigned more than once, last assignment used",
			zap.String("monitor", m.Name), zap.String("name", name))
	}
	for _, name := range spec.Unused {
		c.Logger.Info("sub-expression not used by RULE",
			zap.String("monitor", m.Name), zap.String("name", name))
	}
}

// Facts builds the fact tables of mons and checks them against the schema.
func (c *Compiler) Facts(mons []*Monitor) (facts.Tables, error) {
	tables := facts.BuildTables(Sources(mons), facts.Limits{
		MaxAtoms:  c.Config.Limits.MaxAtoms,
		MaxStates: c.Config.Limits.MaxStates,
	})

	v, err := validator.NewFactsValidator()
	if err != nil {
		return tables, fmt.Errorf("init facts validator: %w", err)
	}
	if errs := v.ValidationErrors(tables); len(errs) > 0 {
		return tables, fmt.Errorf("fact tables break %s:\n- %s", v.Definition(), strings.Join(errs, "\n- "))
	}
	return tables, nil
}

// Analyze builds and checks the fact tables of mons, then runs the lint
// policy over them.
func (c *Compiler) Analyze(ctx context.Context, mons []*Monitor) (facts.Tables, *policy.Result, error) {
	tables, err := c.Facts(mons)
	if err != nil {
		return tables, nil, err
	}

	if c.engine == nil {
		engine, err := policy.New(c.Config.Lint.PolicyDir)
		if err != nil {
			return tables, nil, fmt.Errorf("load policy: %w", err)
		}
		c.engine = engine
	}
	result, err := c.engine.Evaluate(ctx, tables, c.Config.Lint.Rules)
	if err != nil {
		return tables, nil, fmt.Errorf("lint: %w", err)
	}
	for _, v := range result.Violations {
		fields := []zap.Field{
			zap.String("rule", v.Rule),
			zap.String("monitor", v.Monitor),
		}
		if v.State != nil {
			fields = append(fields, zap.Int("state", *v.State))
		}
		switch v.Severity {
		case policy.SeverityError:
			c.Logger.Error(v.Message, fields...)
		case policy.SeverityWarning:
			c.Logger.Warn(v.Message, fields...)
		default:
			c.Logger.Info(v.Message, fields...)
		}
	}
	return tables, result, nil
}

// Run compiles, checks and writes every spec. Specs whose outputs are up to
// date are skipped when the cache is enabled.
func (c *Compiler) Run(ctx context.Context, specs []config.ResolvedMonitor) (*Report, error) {
	runStart := time.Now()
	pipelineErrs := make([]error, 0)
	recordPipelineErr := func(err error) {
		pipelineErrs = append(pipelineErrs, err)
	}
	timing := newTimingRecorder(runStart, c.resolveTimingPath())
	if err := timing.Err(); err != nil {
		recordPipelineErr(fmt.Errorf("timing output disabled: %w", err))
	}
	defer timing.Close()

	report := &Report{}

	var cache *outputCache
	if c.Config.CacheEnabled() {
		cache = newOutputCache(c.Config.ResolveCacheDir(c.Root), generatorVersion)
		if err := cache.Load(); err != nil {
			recordPipelineErr(fmt.Errorf("cache load failed: %w", err))
			cache = nil
		}
	}

	// 1. Compile
	stageStart := time.Now()
	var todo []config.ResolvedMonitor
	for _, s := range specs {
		// Force has to reach Write to replace the skeleton.
		if cache != nil && !c.Output.Force {
			if h, err := hashFile(s.Spec); err == nil && cache.Fresh(s.Spec, h, c.settings(s)) {
				c.Logger.Debug("monitor up to date", zap.String("monitor", s.Name))
				report.UpToDate = append(report.UpToDate, s.Spec)
				timing.RecordMonitor("compile", s.Name, "cached", stageStart)
				continue
			}
		}
		todo = append(todo, s)
	}
	mons, err := c.Load(ctx, todo)
	if err != nil {
		timing.RecordStage("compile", stageStart, "failed")
		return report, err
	}
	report.Monitors = mons
	timing.RecordStage("compile", stageStart, "ok")

	if len(mons) == 0 {
		timing.RecordStage("total", runStart, "ok")
		return report, joinPipelineErrs(pipelineErrs)
	}

	// 2. Facts, schema and lint
	stageStart = time.Now()
	tables, result, err := c.Analyze(ctx, mons)
	report.Tables, report.Lint = tables, result
	if err != nil {
		timing.RecordStage("lint", stageStart, "failed")
		return report, err
	}
	if result.HasErrors() {
		timing.RecordStage("lint", stageStart, "failed")
		return report, fmt.Errorf("%w: %d error(s)", ErrLintFailed, result.Summary.Errors)
	}
	timing.RecordStage("lint", stageStart, "ok")

	// 3. Write
	stageStart = time.Now()
	for i, m := range mons {
		monStart := time.Now()
		w, err := Write(m, tables, c.Output)
		if err != nil {
			timing.RecordStage("write", stageStart, "failed")
			return report, fmt.Errorf("write %s: %w", m.Name, err)
		}
		report.Written = append(report.Written, w)
		if w.Kept != "" {
			c.Logger.Info("kept existing skeleton", zap.String("path", w.Kept))
		}
		c.Logger.Info("wrote monitor", zap.String("monitor", m.Name), zap.String("dir", c.Output.Dir(m)))
		if cache != nil {
			if err := cache.Put(m.Spec, m.Hash, c.settings(todo[i]), w.Generated, w.SkeletonPath()); err != nil {
				recordPipelineErr(fmt.Errorf("cache write failed for %s: %w", m.Name, err))
			}
		}
		timing.RecordMonitor("write", m.Name, "written", monStart)
	}
	if cache != nil {
		if err := cache.Save(); err != nil {
			recordPipelineErr(fmt.Errorf("cache save failed: %w", err))
		}
	}
	timing.RecordStage("write", stageStart, "ok")
	timing.RecordStage("total", runStart, "ok")

	return report, joinPipelineErrs(pipelineErrs)
}

// settings is the part of the configuration that shapes the outputs of s.
func (c *Compiler) settings(s config.ResolvedMonitor) string {
	return fmt.Sprintf("%s|%s|%d|%d|dot=%t|facts=%t|%s",
		s.Name, s.Kind,
		c.Config.Codegen.MaxColumns, c.Config.Codegen.TabExtraColumns,
		c.Output.Dot, c.Output.Facts, c.Output.OutputDir)
}

func joinPipelineErrs(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("pipeline errors:\n%s", formatPipelineErrors(errs))
}

func formatPipelineErrors(errs []error) string {
	var b strings.Builder
	for i, err := range errs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(err.Error())
	}
	return b.String()
}
