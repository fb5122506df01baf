package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/robert-at-pretension-io/rvgen-ltl/internal/validator"
)

// FileName is the configuration file looked up next to specs and in the
// working directory.
const FileName = "rvgen_ltl.yaml"

// Config is the top-level configuration for rvgen-ltl
type Config struct {
	// Monitor holds defaults for monitors compiled from the command line
	Monitor MonitorConfig `yaml:"monitor" json:"monitor"`

	// Monitors lists spec files compiled by a bare `rvgen-ltl compile`
	Monitors []MonitorEntry `yaml:"monitors,omitempty" json:"monitors,omitempty"`

	// Codegen controls the layout of generated C
	Codegen CodegenConfig `yaml:"codegen" json:"codegen"`

	// Limits are the kernel-side maxima generated monitors must fit in
	Limits LimitsConfig `yaml:"limits" json:"limits"`

	// Lint contains lint rule configuration
	Lint LintConfig `yaml:"lint" json:"lint"`

	// Timing controls the JSONL stage timing output
	Timing TimingConfig `yaml:"timing" json:"timing"`

	// Cache controls skipping of monitors whose outputs are up to date
	Cache CacheConfig `yaml:"cache" json:"cache"`
}

// MonitorConfig holds per-monitor defaults
type MonitorConfig struct {
	// Kind is the monitor type; the LTL backend only supports "per_task"
	Kind string `yaml:"kind" json:"kind"`

	// OutputDir receives one <name>/ directory per monitor
	OutputDir string `yaml:"output_dir" json:"output_dir"`

	// Dot also writes <name>.dot next to the C sources
	Dot bool `yaml:"dot,omitempty" json:"dot,omitempty"`

	// Facts also writes <name>.facts.json next to the C sources
	Facts bool `yaml:"facts,omitempty" json:"facts,omitempty"`
}

// MonitorEntry selects spec files for batch compilation
type MonitorEntry struct {
	// Spec is a file path or glob pattern (** allowed), relative to the config root
	Spec string `yaml:"spec" json:"spec"`

	// Name overrides the monitor name; only valid when Spec matches one file
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// Kind overrides Monitor.Kind
	Kind string `yaml:"kind,omitempty" json:"kind,omitempty"`

	// Exclude is a list of glob patterns removed from the matches
	Exclude []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`
}

// CodegenConfig controls guard wrapping
type CodegenConfig struct {
	MaxColumns      int `yaml:"max_columns" json:"max_columns"`
	TabExtraColumns int `yaml:"tab_extra_columns" json:"tab_extra_columns"`
}

// LimitsConfig mirrors RV_MAX_LTL_ATOM and RV_MAX_BA_STATES of the kernel
type LimitsConfig struct {
	MaxAtoms  int `yaml:"max_atoms" json:"max_atoms"`
	MaxStates int `yaml:"max_states" json:"max_states"`
}

// LintConfig contains linting configuration
type LintConfig struct {
	// Rules maps rule names to severity: "off", "info", "warning", "error"
	Rules map[string]string `yaml:"rules" json:"rules"`

	// PolicyDir holds extra .rego modules evaluated with the built-in policy
	PolicyDir string `yaml:"policy_dir,omitempty" json:"policy_dir,omitempty"`
}

// TimingConfig controls stage timing output
type TimingConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path,omitempty" json:"path,omitempty"`
}

// CacheConfig controls incremental compilation
type CacheConfig struct {
	// Enabled turns on the output cache
	Enabled *bool `yaml:"enabled,omitempty" json:"enabled,omitempty"`

	// Dir is the cache directory (relative to the config root if not absolute)
	Dir string `yaml:"dir,omitempty" json:"dir,omitempty"`
}

const (
	defaultKind      = "per_task"
	defaultCacheDir  = ".rvgen_ltl_cache"
	defaultMaxAtoms  = 32
	defaultMaxStates = 32
)

// DefaultConfig returns a sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		Monitor: MonitorConfig{
			Kind:      defaultKind,
			OutputDir: ".",
		},
		Codegen: CodegenConfig{
			MaxColumns:      100,
			TabExtraColumns: 7,
		},
		Limits: LimitsConfig{
			MaxAtoms:  defaultMaxAtoms,
			MaxStates: defaultMaxStates,
		},
		Lint: LintConfig{
			Rules: map[string]string{},
		},
		Cache: CacheConfig{
			Enabled: boolPtr(true),
			Dir:     defaultCacheDir,
		},
	}
}

func boolPtr(v bool) *bool {
	return &v
}

// Load finds and loads the configuration file
// Search order:
//  1. ./rvgen_ltl.yaml (current working directory)
//  2. ./.rvgen_ltl.yaml (current working directory)
//  3. <spec dir>/rvgen_ltl.yaml (if different from cwd)
//  4. ~/.config/rvgen_ltl/config.yaml
//
// specPath may be a spec file or a directory. Returns DefaultConfig and an
// empty path if no config file is found.
func Load(specPath string) (*Config, string, error) {
	path := Find(specPath)
	if path == "" {
		return DefaultConfig(), "", nil
	}
	cfg, err := LoadFile(path)
	return cfg, path, err
}

// Find returns the configuration file Load would read, or "".
func Find(specPath string) string {
	cwd, _ := os.Getwd()

	searchPaths := []string{
		filepath.Join(cwd, FileName),
		filepath.Join(cwd, "."+FileName),
	}

	if specPath != "" {
		dir := specPath
		if info, err := os.Stat(specPath); err == nil && !info.IsDir() {
			dir = filepath.Dir(specPath)
		}
		if absDir, _ := filepath.Abs(dir); absDir != cwd {
			searchPaths = append(searchPaths,
				filepath.Join(dir, FileName),
				filepath.Join(dir, "."+FileName),
			)
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, ".config", "rvgen_ltl", "config.yaml"))
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// LoadFile loads configuration from a specific file and checks it against
// the configuration schema.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the configuration against the embedded CUE schema.
func (c *Config) Validate() error {
	v, err := validator.NewConfigValidator()
	if err != nil {
		return fmt.Errorf("init config validator: %w", err)
	}
	return v.Validate(c)
}

// applyDefaults fills in missing configuration with defaults
func (c *Config) applyDefaults() {
	if c.Monitor.Kind == "" {
		c.Monitor.Kind = defaultKind
	}
	if c.Monitor.OutputDir == "" {
		c.Monitor.OutputDir = "."
	}
	if c.Codegen.MaxColumns == 0 {
		c.Codegen.MaxColumns = 100
	}
	if c.Codegen.TabExtraColumns == 0 {
		c.Codegen.TabExtraColumns = 7
	}
	if c.Limits.MaxAtoms == 0 {
		c.Limits.MaxAtoms = defaultMaxAtoms
	}
	if c.Limits.MaxStates == 0 {
		c.Limits.MaxStates = defaultMaxStates
	}
	if c.Lint.Rules == nil {
		c.Lint.Rules = make(map[string]string)
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = defaultCacheDir
	}
	if c.Cache.Enabled == nil {
		c.Cache.Enabled = boolPtr(true)
	}
}

// Save writes the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CacheEnabled reports whether the output cache is on
func (c *Config) CacheEnabled() bool {
	return c.Cache.Enabled != nil && *c.Cache.Enabled
}

// ResolveCacheDir returns the cache directory, anchored at root when relative
func (c *Config) ResolveCacheDir(root string) string {
	dir := c.Cache.Dir
	if dir == "" {
		dir = defaultCacheDir
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	return dir
}
