package e2e

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-at-pretension-io/rvgen-ltl/internal/facts"
	"github.com/robert-at-pretension-io/rvgen-ltl/internal/policy"
)

func TestRvgenLtlE2E_Testdata(t *testing.T) {
	repoRoot := findRepoRoot(t)
	bin := buildBinary(t, repoRoot)
	work := copySpecs(t, filepath.Join(repoRoot, "testdata", "specs"))

	home := t.TempDir()
	env := append(os.Environ(),
		"HOME="+home,
		"XDG_CONFIG_HOME="+filepath.Join(home, ".config"),
		"RVGEN_TIMING=",
		"RVGEN_TIMING_JSONL=",
	)

	t.Run("compile", func(t *testing.T) {
		run(t, bin, work, env, "compile")
		for _, name := range []string{"pagefault", "sleep"} {
			header, err := os.ReadFile(filepath.Join(work, "out", name, "ltl_"+name+".h"))
			require.NoError(t, err)
			assert.Contains(t, string(header), "enum ltl_atom {")
			assert.FileExists(t, filepath.Join(work, "out", name, name+".c"))
		}
		assert.DirExists(t, filepath.Join(work, ".rvgen_ltl_cache"))
	})

	t.Run("compile keeps skeleton", func(t *testing.T) {
		skeleton := filepath.Join(work, "out", "pagefault", "pagefault.c")
		require.NoError(t, os.WriteFile(skeleton, []byte("/* edited */\n"), 0644))
		run(t, bin, work, env, "compile", "pagefault.ltl", "--out", "out")
		data, err := os.ReadFile(skeleton)
		require.NoError(t, err)
		assert.Equal(t, "/* edited */\n", string(data))
	})

	t.Run("lint", func(t *testing.T) {
		stdout := run(t, bin, work, env, "lint", "--json", "pagefault.ltl", "sleep.ltl")
		var result policy.Result
		require.NoError(t, json.Unmarshal(stdout, &result))
		assert.False(t, result.HasErrors())
	})

	t.Run("facts", func(t *testing.T) {
		stdout := run(t, bin, work, env, "facts", "pagefault.ltl", "sleep.ltl")
		var tables facts.Tables
		require.NoError(t, json.Unmarshal(stdout, &tables))
		require.Len(t, tables.Monitors, 2)
		assert.Equal(t, "pagefault", tables.Monitors[0].Name)
		assert.Equal(t, "sleep", tables.Monitors[1].Name)
	})

	t.Run("dot", func(t *testing.T) {
		stdout := run(t, bin, work, env, "dot", "pagefault.ltl")
		assert.Contains(t, string(stdout), `digraph "pagefault" {`)
	})

	t.Run("unsatisfiable rule fails lint", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(work, "never.ltl"), []byte("RULE = false\n"), 0644))
		cmd := exec.Command(bin, "lint", "never.ltl")
		cmd.Dir = work
		cmd.Env = env
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		err := cmd.Run()
		require.Error(t, err)
		assert.Contains(t, stderr.String(), "lint failed")
	})
}

func run(t *testing.T, bin, dir string, env []string, args ...string) []byte {
	t.Helper()

	cmd := exec.Command(bin, args...)
	cmd.Dir = dir
	cmd.Env = env
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("rvgen-ltl %v failed: %v\nstderr:\n%s", args, err, stderr.String())
	}
	return stdout.Bytes()
}

func buildBinary(t *testing.T, repoRoot string) string {
	t.Helper()
	binDir := t.TempDir()
	binPath := filepath.Join(binDir, "rvgen-ltl")
	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/rvgen-ltl")
	cmd.Dir = repoRoot
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("build rvgen-ltl failed: %v\n%s", err, string(out))
	}
	return binPath
}

func copySpecs(t *testing.T, src string) string {
	t.Helper()
	dst := t.TempDir()
	entries, err := os.ReadDir(src)
	require.NoError(t, err)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(src, e.Name()))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dst, e.Name()), data, 0644))
	}
	return dst
}

func findRepoRoot(t *testing.T) string {
	t.Helper()
	start, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}

	dir := start
	for {
		candidate := filepath.Join(dir, "testdata", "specs", "rvgen_ltl.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("repo root not found from %s", start)
		}
		dir = parent
	}
}
