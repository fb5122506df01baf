package monitor

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const cacheIndexVersion = 2

// cacheEntry records the inputs an output directory was generated from.
type cacheEntry struct {
	SpecHash  string            `json:"spec_hash"`
	Settings  string            `json:"settings"`
	Outputs   map[string]string `json:"outputs"`
	// Skeleton is the hand-edited <name>.c; only its presence is checked.
	Skeleton  string            `json:"skeleton"`
	Generator string            `json:"generator"`
}

type cacheIndex struct {
	Version int                   `json:"version"`
	Entries map[string]cacheEntry `json:"entries"`
}

// outputCache remembers which monitors are up to date so unchanged specs
// do not rewrite their outputs.
type outputCache struct {
	dir     string
	version string
	mu      sync.Mutex
	index   cacheIndex
}

func newOutputCache(dir, version string) *outputCache {
	return &outputCache{
		dir:     dir,
		version: version,
		index: cacheIndex{
			Version: cacheIndexVersion,
			Entries: make(map[string]cacheEntry),
		},
	}
}

func (c *outputCache) indexPath() string {
	return filepath.Join(c.dir, "index.json")
}

func (c *outputCache) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("cache mkdir: %w", err)
	}
	data, err := os.ReadFile(c.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read cache index: %w", err)
	}
	var idx cacheIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return fmt.Errorf("parse cache index: %w", err)
	}
	if idx.Version != cacheIndexVersion {
		// Reset on version mismatch
		c.index = cacheIndex{Version: cacheIndexVersion, Entries: make(map[string]cacheEntry)}
		return nil
	}
	if idx.Entries == nil {
		idx.Entries = make(map[string]cacheEntry)
	}
	c.index = idx
	return nil
}

func (c *outputCache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return writeJSONAtomic(c.indexPath(), c.index)
}

// Fresh reports whether the outputs of spec were generated from specHash
// with the same settings, are still on disk unmodified and the skeleton
// still exists.
func (c *outputCache) Fresh(spec, specHash, settings string) bool {
	c.mu.Lock()
	entry, ok := c.index.Entries[spec]
	c.mu.Unlock()
	if !ok || entry.SpecHash != specHash || entry.Settings != settings || entry.Generator != c.version {
		return false
	}
	if _, err := os.Stat(entry.Skeleton); err != nil {
		return false
	}
	for path, want := range entry.Outputs {
		got, err := hashFile(path)
		if err != nil || got != want {
			return false
		}
	}
	return true
}

// Put records the outputs written for spec and the path of its skeleton.
func (c *outputCache) Put(spec, specHash, settings string, outputs []string, skeleton string) error {
	hashes := make(map[string]string, len(outputs))
	for _, path := range outputs {
		h, err := hashFile(path)
		if err != nil {
			return fmt.Errorf("hash output: %w", err)
		}
		hashes[path] = h
	}
	c.mu.Lock()
	c.index.Entries[spec] = cacheEntry{
		SpecHash:  specHash,
		Settings:  settings,
		Outputs:   hashes,
		Skeleton:  skeleton,
		Generator: c.version,
	}
	c.mu.Unlock()
	return nil
}

func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	return writeFileAtomic(path, append(data, '\n'))
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("output dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

func hashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return hashBytes(data), nil
}

func hashBytes(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
