package locator

import "sync"

// urlCache maps item names to resolved page URLs so repeated lookups for the
// same item within a run cost no network access. Safe for concurrent use.
type urlCache struct {
	mu    sync.RWMutex
	store map[string]string
}

func newURLCache() *urlCache {
	return &urlCache{store: make(map[string]string)}
}

func (c *urlCache) get(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.store[name]
	return u, ok
}

func (c *urlCache) set(name, u string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[name] = u
}
