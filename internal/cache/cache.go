// Package cache provides the process-scoped caches shared by knowledge
// sources and the tier processor. Caches are read-mostly and safe for
// concurrent use across pipeline runs; writers use at-most-once-per-key
// semantics so concurrent runs never duplicate an upstream call for the same
// key.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/verdantlabs/florasynth/pkg/logging"
)

// Cache is a byte-payload cache with optional disk persistence. The zero
// directory keeps everything in memory.
type Cache struct {
	mu   sync.RWMutex
	mem  map[string][]byte
	dir  string
	call singleflight.Group
}

// New creates a memory cache. If dir is non-empty, entries are also written
// under it and survive the process.
func New(dir string) (*Cache, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &Cache{mem: make(map[string][]byte), dir: dir}, nil
}

// Get returns the payload for a key.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	data, ok := c.mem[key]
	c.mu.RUnlock()
	if ok {
		return data, true
	}

	if c.dir == "" {
		return nil, false
	}
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}
	c.mu.Lock()
	c.mem[key] = data
	c.mu.Unlock()
	return data, true
}

// Set stores a payload. Last-writer-wins is acceptable: values are
// idempotent lookups keyed by their inputs.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	c.mem[key] = data
	c.mu.Unlock()

	if c.dir == "" {
		return
	}
	if err := os.WriteFile(c.path(key), data, 0o644); err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}

// GetOrFill returns the cached payload for key, or fills it by calling fn.
// Concurrent callers for the same key share one fn invocation.
func (c *Cache) GetOrFill(key string, fn func() ([]byte, error)) ([]byte, error) {
	if data, ok := c.Get(key); ok {
		return data, nil
	}

	result, err, _ := c.call.Do(key, func() (any, error) {
		// Re-check under the flight: another caller may have filled it
		// between our miss and the flight starting.
		if data, ok := c.Get(key); ok {
			return data, nil
		}
		data, err := fn()
		if err != nil {
			return nil, err
		}
		c.Set(key, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// path maps a key to a stable file name; keys may contain separators.
func (c *Cache) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+".cache")
}
