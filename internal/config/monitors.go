package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// SpecExt is the extension of LTL spec files picked up by glob patterns.
const SpecExt = ".ltl"

// ResolvedMonitor is one spec file selected by the monitors list
type ResolvedMonitor struct {
	Name string
	Spec string
	Kind string
}

// MonitorName derives a monitor name from its spec path: the base name
// without extension.
func MonitorName(specPath string) string {
	base := filepath.Base(specPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

var monitorNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateMonitorName checks that name can be used in C identifiers such as
// enable_<name> and ltl_<name>.h.
func ValidateMonitorName(name string) error {
	if !monitorNameRe.MatchString(name) {
		return fmt.Errorf("invalid monitor name %q: use letters, digits and underscores, not starting with a digit", name)
	}
	return nil
}

// ResolveMonitors expands the monitors list into spec files, sorted by path.
// Patterns are relative to rootPath. A spec matched by more than one entry
// keeps the first entry's settings.
func (c *Config) ResolveMonitors(rootPath string) ([]ResolvedMonitor, error) {
	var result []ResolvedMonitor
	seen := make(map[string]bool)

	for i, entry := range c.Monitors {
		if entry.Spec == "" {
			return nil, fmt.Errorf("monitors[%d]: spec is empty", i)
		}
		pattern := entry.Spec
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(rootPath, pattern)
		}

		matches, err := expandGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("monitors[%d]: bad pattern %q: %w", i, entry.Spec, err)
		}

		fileSet := make(map[string]bool)
		for _, match := range matches {
			if strings.ContainsAny(entry.Spec, "*?[") && filepath.Ext(match) != SpecExt {
				continue
			}
			fileSet[match] = true
		}

		for _, ex := range entry.Exclude {
			if !filepath.IsAbs(ex) {
				ex = filepath.Join(rootPath, ex)
			}
			excluded, err := expandGlob(ex)
			if err != nil {
				continue
			}
			for _, match := range excluded {
				delete(fileSet, match)
			}
		}

		files := make([]string, 0, len(fileSet))
		for f := range fileSet {
			files = append(files, f)
		}
		sort.Strings(files)

		if len(files) == 0 && !strings.ContainsAny(entry.Spec, "*?[") {
			return nil, fmt.Errorf("monitors[%d]: spec %s not found", i, entry.Spec)
		}
		if entry.Name != "" && len(files) > 1 {
			return nil, fmt.Errorf("monitors[%d]: name %q given but %q matches %d specs", i, entry.Name, entry.Spec, len(files))
		}

		kind := entry.Kind
		if kind == "" {
			kind = c.Monitor.Kind
		}
		for _, f := range files {
			if seen[f] {
				continue
			}
			seen[f] = true
			name := entry.Name
			if name == "" {
				name = MonitorName(f)
			}
			if err := ValidateMonitorName(name); err != nil {
				return nil, fmt.Errorf("monitors[%d]: %s: %w", i, f, err)
			}
			result = append(result, ResolvedMonitor{Name: name, Spec: f, Kind: kind})
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Spec < result[j].Spec })
	return result, nil
}

// expandGlob expands a glob pattern, handling ** for recursive matching
func expandGlob(pattern string) ([]string, error) {
	if strings.Contains(pattern, "**") {
		return expandDoubleStarGlob(pattern)
	}
	return filepath.Glob(pattern)
}

// expandDoubleStarGlob handles ** patterns by walking the directory tree
func expandDoubleStarGlob(pattern string) ([]string, error) {
	var results []string

	parts := strings.SplitN(pattern, "**", 2)
	baseDir := filepath.Clean(parts[0])
	if baseDir == "" {
		baseDir = "."
	}
	suffix := strings.TrimPrefix(parts[1], string(filepath.Separator))

	err := filepath.WalkDir(baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped
		}
		if d.IsDir() {
			return nil
		}
		if suffix == "" {
			results = append(results, path)
			return nil
		}
		relPath, err := filepath.Rel(baseDir, path)
		if err != nil {
			return nil
		}
		if matchSuffix(relPath, suffix) {
			results = append(results, path)
		}
		return nil
	})

	return results, err
}

// matchSuffix checks if a path matches the part of a pattern after **
func matchSuffix(path, pattern string) bool {
	if !strings.Contains(pattern, string(filepath.Separator)) {
		matched, _ := filepath.Match(pattern, filepath.Base(path))
		return matched
	}

	if matched, _ := filepath.Match(pattern, path); matched {
		return true
	}

	// The pattern may cover only the trailing directories of path.
	segments := strings.Count(pattern, string(filepath.Separator)) + 1
	parts := strings.Split(path, string(filepath.Separator))
	if len(parts) < segments {
		return false
	}
	tail := filepath.Join(parts[len(parts)-segments:]...)
	matched, _ := filepath.Match(pattern, tail)
	return matched
}
