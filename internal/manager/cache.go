package manager

import (
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ModelCache maps model ids to loaded handles. At most one handle exists per
// id; concurrent GetOrLoad calls for the same id share a single load. Failed
// loads are not cached.
type ModelCache struct {
	mu      sync.RWMutex
	handles map[string]*Handle
	group   singleflight.Group
}

// NewModelCache returns an empty cache.
func NewModelCache() *ModelCache {
	return &ModelCache{handles: make(map[string]*Handle)}
}

// Get returns the cached handle for id.
func (c *ModelCache) Get(id string) (*Handle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.handles[id]
	return h, ok
}

// GetOrLoad returns the cached handle for id, running load at most once
// across concurrent callers when it is missing. load must not panic.
func (c *ModelCache) GetOrLoad(id string, load func() (*Handle, error)) (*Handle, error) {
	if h, ok := c.Get(id); ok {
		return h, nil
	}
	v, err, _ := c.group.Do(id, func() (any, error) {
		// Re-check: a previous flight may have stored it between Get and Do.
		if h, ok := c.Get(id); ok {
			return h, nil
		}
		h, err := load()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.handles[id] = h
		c.mu.Unlock()
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Handle), nil
}

// Invalidate removes id and closes its session. It reports whether an entry
// was present.
func (c *ModelCache) Invalidate(id string) (bool, error) {
	c.mu.Lock()
	h, ok := c.handles[id]
	delete(c.handles, id)
	c.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, h.close()
}

// Len returns the number of cached handles.
func (c *ModelCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.handles)
}

// Handles returns the cached handles sorted by id.
func (c *ModelCache) Handles() []*Handle {
	c.mu.RLock()
	out := make([]*Handle, 0, len(c.handles))
	for _, h := range c.handles {
		out = append(out, h)
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Close closes every cached session and empties the cache. The first close
// error is returned.
func (c *ModelCache) Close() error {
	c.mu.Lock()
	hs := c.handles
	c.handles = make(map[string]*Handle)
	c.mu.Unlock()
	var first error
	for _, h := range hs {
		if err := h.close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
