package manager

import (
	"context"
	"time"

	"promptd/internal/registry"
	"promptd/pkg/types"
)

// Manager wires the registry, loader and engine together for the shells.
type Manager struct {
	registry  *registry.Registry
	cache     *ModelCache
	ownsCache bool
	loader    *Loader
	engine    *Engine
	startTime time.Time
}

// Loader returns the model loader.
func (m *Manager) Loader() *Loader { return m.loader }

// Engine returns the generation engine.
func (m *Manager) Engine() *Engine { return m.engine }

// ListModels returns the allow-list entries.
func (m *Manager) ListModels() []types.Model { return m.registry.Models() }

// DefaultModel returns the default model id.
func (m *Manager) DefaultModel() string { return m.registry.Default() }

// Select resolves a user choice to a member of the allow-list.
func (m *Manager) Select(choice string) string { return m.registry.Select(choice) }

// Load returns the cached handle for id, loading it if needed.
func (m *Manager) Load(ctx context.Context, id string) (*Handle, error) {
	return m.loader.Load(ctx, id)
}

// Generate runs one generation on h (which may be nil).
func (m *Manager) Generate(ctx context.Context, h *Handle, prompt string) Result {
	return m.engine.Generate(ctx, h, prompt)
}

// GenerateFor selects a model from choice, loads it and generates. A load
// failure degrades to the not-loaded reply with Err carrying the cause.
func (m *Manager) GenerateFor(ctx context.Context, choice, prompt string) Result {
	id := m.registry.Select(choice)
	h, err := m.loader.Load(ctx, id)
	if err != nil {
		res := m.engine.Generate(ctx, nil, prompt)
		res.ModelID = id
		res.Err = err
		return res
	}
	return m.engine.Generate(ctx, h, prompt)
}

// Unload invalidates the cached handle for id.
func (m *Manager) Unload(id string) error { return m.loader.Unload(id) }

// Ready reports whether at least one handle is loaded.
func (m *Manager) Ready() bool { return m.cache.Len() > 0 }

// Close releases every cached handle when the manager owns the cache.
func (m *Manager) Close() error {
	if !m.ownsCache {
		return nil
	}
	err := m.cache.Close()
	cachedHandles.Set(0)
	return err
}
