package upstream

import (
	"sync"
	"time"
)

// CacheStatus reports the state of a CatalogCache.
type CacheStatus struct {
	Populated   bool      `json:"populated"`
	ToolCount   int       `json:"tool_count"`
	PopulatedAt time.Time `json:"populated_at,omitzero"`
}

// CatalogCache holds the discovered tool catalog. Population is
// idempotent: a concurrent populate simply replaces the cache with an
// equivalent result, so readers never block on discovery beyond the
// usual mutex hold.
type CatalogCache struct {
	mu          sync.RWMutex
	tools       []ToolDescriptor
	populated   bool
	populatedAt time.Time
}

// Populate stores the given catalog, replacing any previous contents.
func (c *CatalogCache) Populate(tools []ToolDescriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tools = tools
	c.populated = true
	c.populatedAt = time.Now()
}

// Get returns the cached catalog and whether it has been populated.
// The returned slice must be treated as read-only.
func (c *CatalogCache) Get() ([]ToolDescriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tools, c.populated
}

// Invalidate clears the cache; the next ListTools call refetches.
func (c *CatalogCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tools = nil
	c.populated = false
	c.populatedAt = time.Time{}
}

// Status reports whether the cache is populated and with how many tools.
func (c *CatalogCache) Status() CacheStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheStatus{
		Populated:   c.populated,
		ToolCount:   len(c.tools),
		PopulatedAt: c.populatedAt,
	}
}
