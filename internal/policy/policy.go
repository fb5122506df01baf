package policy

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/open-policy-agent/opa/rego"

	"github.com/robert-at-pretension-io/rvgen-ltl/internal/facts"
)

//go:embed monitor.rego
var builtinPolicy string

// Severities of the built-in rules.
const (
	SeverityOff     = "off"
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Engine evaluates OPA policies against monitor fact tables
type Engine struct {
	queries map[string]rego.PreparedEvalQuery
}

// Violation represents a policy violation
type Violation struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Monitor  string `json:"monitor"`
	File     string `json:"file,omitempty"`
	// State is the offending Büchi state, nil for monitor-wide findings.
	State   *int   `json:"state,omitempty"`
	Message string `json:"message"`
}

// Result contains the evaluation results
type Result struct {
	Violations []Violation `json:"violations"`
	Summary    Summary     `json:"summary"`
}

// HasErrors reports whether any violation is an error.
func (r *Result) HasErrors() bool {
	return r.Summary.Errors > 0
}

// Summary provides aggregate counts
type Summary struct {
	TotalViolations int `json:"total_violations"`
	Errors          int `json:"errors"`
	Warnings        int `json:"warnings"`
	Info            int `json:"info"`
}

// Input is the data structure passed to OPA
type Input struct {
	Tables     facts.Tables      `json:"tables"`
	Severities map[string]string `json:"severities"`
}

// New creates a policy engine from the built-in rules plus every .rego file
// in policyDir. An empty policyDir loads the built-in rules only.
func New(policyDir string) (*Engine, error) {
	engine := &Engine{
		queries: make(map[string]rego.PreparedEvalQuery),
	}

	modules := []func(*rego.Rego){rego.Module("monitor.rego", builtinPolicy)}

	if policyDir != "" {
		files, err := filepath.Glob(filepath.Join(policyDir, "*.rego"))
		if err != nil {
			return nil, fmt.Errorf("finding policy files: %w", err)
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no policy files found in %s", policyDir)
		}
		for _, f := range files {
			content, err := os.ReadFile(f)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", f, err)
			}
			modules = append(modules, rego.Module(f, string(content)))
		}
	}

	ctx := context.Background()
	for name, q := range map[string]string{
		"violations": "data.rvgen.ltl.all_violations",
		"summary":    "data.rvgen.ltl.summary",
	} {
		opts := append(append([]func(*rego.Rego){}, modules...), rego.Query(q))
		query, err := rego.New(opts...).PrepareForEval(ctx)
		if err != nil {
			return nil, fmt.Errorf("preparing %s query: %w", name, err)
		}
		engine.queries[name] = query
	}

	return engine, nil
}

// Evaluate runs the policies against the tables. severities overrides the
// default severity per rule; "off" silences a rule.
func (e *Engine) Evaluate(ctx context.Context, tables facts.Tables, severities map[string]string) (*Result, error) {
	if severities == nil {
		severities = map[string]string{}
	}
	inputMap, err := structToMap(Input{Tables: tables, Severities: severities})
	if err != nil {
		return nil, fmt.Errorf("converting input: %w", err)
	}

	result := &Result{Violations: []Violation{}}

	rs, err := e.queries["violations"].Eval(ctx, rego.EvalInput(inputMap))
	if err != nil {
		return nil, fmt.Errorf("evaluating violations: %w", err)
	}

	if len(rs) > 0 && len(rs[0].Expressions) > 0 {
		violations, ok := rs[0].Expressions[0].Value.([]interface{})
		if ok {
			for _, v := range violations {
				vmap, ok := v.(map[string]interface{})
				if !ok {
					continue
				}
				result.Violations = append(result.Violations, Violation{
					Rule:     getString(vmap, "rule"),
					Severity: getString(vmap, "severity"),
					Monitor:  getString(vmap, "monitor"),
					File:     getString(vmap, "file"),
					State:    getOptInt(vmap, "state"),
					Message:  getString(vmap, "message"),
				})
			}
		}
	}
	sortViolations(result.Violations)

	rs, err = e.queries["summary"].Eval(ctx, rego.EvalInput(inputMap))
	if err != nil {
		return nil, fmt.Errorf("evaluating summary: %w", err)
	}

	if len(rs) > 0 && len(rs[0].Expressions) > 0 {
		smap, ok := rs[0].Expressions[0].Value.(map[string]interface{})
		if ok {
			result.Summary = Summary{
				TotalViolations: getInt(smap, "total_violations"),
				Errors:          getInt(smap, "errors"),
				Warnings:        getInt(smap, "warnings"),
				Info:            getInt(smap, "info"),
			}
		}
	}

	return result, nil
}

// sortViolations orders by monitor, then monitor-wide findings before
// state findings, then state id, rule and message.
func sortViolations(vs []Violation) {
	state := func(v Violation) int {
		if v.State == nil {
			return -1
		}
		return *v.State
	}
	sort.SliceStable(vs, func(i, j int) bool {
		a, b := vs[i], vs[j]
		if a.Monitor != b.Monitor {
			return a.Monitor < b.Monitor
		}
		if state(a) != state(b) {
			return state(a) < state(b)
		}
		if a.Rule != b.Rule {
			return a.Rule < b.Rule
		}
		return a.Message < b.Message
	})
}

// Helper functions
func structToMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var result map[string]interface{}
	err = json.Unmarshal(data, &result)
	return result, err
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getInt(m map[string]interface{}, key string) int {
	if n := getOptInt(m, key); n != nil {
		return *n
	}
	return 0
}

func getOptInt(m map[string]interface{}, key string) *int {
	v, ok := m[key]
	if !ok {
		return nil
	}
	var i int
	switch n := v.(type) {
	case int:
		i = n
	case float64:
		i = int(n)
	case json.Number:
		i64, err := n.Int64()
		if err != nil {
			return nil
		}
		i = int(i64)
	default:
		return nil
	}
	return &i
}
