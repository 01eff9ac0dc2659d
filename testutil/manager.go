package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/rawes/component"
	"github.com/kbukum/rawes/logger"
)

// Manager runs several test components through a component.Registry and
// adds group reset and snapshot on top.
type Manager struct {
	ctx        context.Context
	registry   *component.Registry
	components []TestComponent
	mu         sync.RWMutex
}

// NewManager creates a manager whose components share ctx.
func NewManager(ctx context.Context, log *logger.Logger) *Manager {
	return &Manager{
		ctx:      ctx,
		registry: component.NewRegistry(component.WithRegistryLogger(log)),
	}
}

// Add registers a component. Names must be unique.
func (m *Manager) Add(c TestComponent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.registry.Register(c); err != nil {
		return err
	}
	m.components = append(m.components, c)
	return nil
}

// Get returns the named component, or nil.
func (m *Manager) Get(name string) TestComponent {
	if c, ok := m.registry.Get(name).(TestComponent); ok {
		return c
	}
	return nil
}

// StartAll starts components in the order they were added.
func (m *Manager) StartAll() error {
	return m.registry.StartAll(m.ctx)
}

// StopAll stops started components in reverse order.
func (m *Manager) StopAll() error {
	return m.registry.StopAll(m.ctx)
}

// ResetAll resets every component, stopping at the first failure.
func (m *Manager) ResetAll() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.components {
		if err := c.Reset(m.ctx); err != nil {
			return fmt.Errorf("failed to reset component %s: %w", c.Name(), err)
		}
	}
	return nil
}

// SnapshotAll captures every component's state keyed by name.
func (m *Manager) SnapshotAll() (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]any, len(m.components))
	for _, c := range m.components {
		s, err := c.Snapshot(m.ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to snapshot component %s: %w", c.Name(), err)
		}
		out[c.Name()] = s
	}
	return out, nil
}

// RestoreAll restores the snapshots taken by SnapshotAll. Components
// missing from snapshots are left alone.
func (m *Manager) RestoreAll(snapshots map[string]any) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.components {
		s, ok := snapshots[c.Name()]
		if !ok {
			continue
		}
		if err := c.Restore(m.ctx, s); err != nil {
			return fmt.Errorf("failed to restore component %s: %w", c.Name(), err)
		}
	}
	return nil
}

// Health reports every component's health in registration order.
func (m *Manager) Health() []component.Health {
	return m.registry.HealthAll(m.ctx)
}
