package component

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/krisvansteen/Dashboards/errors"
)

// managed tracks a component and its lifecycle state
type managed struct {
	component  Lifecycle
	state      State
	startOrder int
	lastError  error
}

// Manager initializes and starts registered components in registration order
// and stops them in reverse order. It is the single place lifecycle errors
// are collected.
type Manager struct {
	mu         sync.Mutex
	components []*managed
	started    bool
	logger     *slog.Logger
}

// NewManager creates an empty component manager
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{logger: logger}
}

// Register adds a component. Registration order is start order.
func (m *Manager) Register(c Lifecycle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components = append(m.components, &managed{
		component:  c,
		state:      StateCreated,
		startOrder: len(m.components),
	})
}

// StartAll initializes and starts every registered component in order.
// The first failure stops the sequence; components already started are
// stopped in reverse before returning.
func (m *Manager) StartAll(ctx context.Context, stopTimeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Manager", "StartAll", "check state")
	}

	for _, mc := range m.components {
		meta := mc.component.Meta()

		if err := mc.component.Initialize(); err != nil {
			mc.state = StateFailed
			mc.lastError = err
			m.stopStartedLocked(stopTimeout)
			return errors.Wrap(err, "Manager", "StartAll", "initialize "+meta.Name)
		}
		mc.state = StateInitialized

		m.logger.Info("starting component", "component", meta.Name, "type", meta.Type)
		if err := mc.component.Start(ctx); err != nil {
			mc.state = StateFailed
			mc.lastError = err
			m.stopStartedLocked(stopTimeout)
			return errors.Wrap(err, "Manager", "StartAll", "start "+meta.Name)
		}
		mc.state = StateStarted
	}

	m.started = true
	return nil
}

// StopAll stops all started components in reverse start order.
// Stop errors are logged and collected; every component gets its chance
// to shut down.
func (m *Manager) StopAll(timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return nil
	}
	err := m.stopStartedLocked(timeout)
	m.started = false
	return err
}

func (m *Manager) stopStartedLocked(timeout time.Duration) error {
	var firstErr error
	for i := len(m.components) - 1; i >= 0; i-- {
		mc := m.components[i]
		if mc.state != StateStarted {
			continue
		}
		meta := mc.component.Meta()
		m.logger.Info("stopping component", "component", meta.Name)
		if err := mc.component.Stop(timeout); err != nil {
			mc.state = StateFailed
			mc.lastError = err
			m.logger.Error("component stop failed", "component", meta.Name, "error", err)
			if firstErr == nil {
				firstErr = errors.Wrap(err, "Manager", "StopAll", "stop "+meta.Name)
			}
			continue
		}
		mc.state = StateStopped
	}
	return firstErr
}

// Health reports the health of every registered component keyed by name.
func (m *Manager) Health() map[string]HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	health := make(map[string]HealthStatus, len(m.components))
	for _, mc := range m.components {
		health[mc.component.Meta().Name] = mc.component.Health()
	}
	return health
}

// States reports the lifecycle state of every registered component.
func (m *Manager) States() map[string]State {
	m.mu.Lock()
	defer m.mu.Unlock()

	states := make(map[string]State, len(m.components))
	for _, mc := range m.components {
		states[mc.component.Meta().Name] = mc.state
	}
	return states
}
