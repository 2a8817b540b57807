package sink

import (
	"fmt"
	"sync"
)

// FolderCache maps destination folder names to their resolved remote IDs.
// It is process-scoped and write-once per key: a folder's ID never changes
// within a run, so a conflicting second write indicates a bug upstream and is
// rejected rather than silently overwritten.
type FolderCache struct {
	mu  sync.RWMutex
	ids map[string]string
}

// NewFolderCache creates an empty cache.
func NewFolderCache() *FolderCache {
	return &FolderCache{ids: make(map[string]string)}
}

// Get returns the cached ID for a folder name.
func (c *FolderCache) Get(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.ids[name]
	return id, ok
}

// Set records a folder's ID. Re-recording the same ID is a no-op; recording
// a different ID for a known name fails.
func (c *FolderCache) Set(name, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.ids[name]; ok {
		if existing == id {
			return nil
		}
		return fmt.Errorf("folder %q already resolved to %s, refusing to rebind to %s", name, existing, id)
	}
	c.ids[name] = id
	return nil
}
