package build

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Cache remembers the modification time of every source file at its last
// successful build. It is safe for concurrent use.
type Cache struct {
	path string

	mu      sync.Mutex
	entries map[string]time.Time
}

// cacheFile is the on-disk layout.
type cacheFile struct {
	Version int                  `yaml:"version"`
	Files   map[string]time.Time `yaml:"files"`
}

const cacheVersion = 1

// LoadCache reads the cache at path. A missing file, or one written by
// another version, yields an empty cache.
func LoadCache(path string) (*Cache, error) {
	c := &Cache{path: path, entries: make(map[string]time.Time)}
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading build cache: %w", err)
	}

	var f cacheFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing build cache %s: %w", path, err)
	}
	if f.Version == cacheVersion && f.Files != nil {
		c.entries = f.Files
	}
	return c, nil
}

// Fresh reports whether rel was built from a file with modification time mod.
func (c *Cache) Fresh(rel string, mod time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev, ok := c.entries[rel]
	return ok && prev.Equal(mod)
}

// Update records a successful build of rel.
func (c *Cache) Update(rel string, mod time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[rel] = mod
}

// Forget drops rel, forcing its next build.
func (c *Cache) Forget(rel string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, rel)
}

// Prune drops entries whose source is not in keep.
func (c *Cache) Prune(keep map[string]bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for rel := range c.entries {
		if !keep[rel] {
			delete(c.entries, rel)
		}
	}
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Save writes the cache back to its file.
func (c *Cache) Save() error {
	if c.path == "" {
		return nil
	}
	c.mu.Lock()
	data, err := yaml.Marshal(cacheFile{Version: cacheVersion, Files: c.entries})
	c.mu.Unlock()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0644)
}
