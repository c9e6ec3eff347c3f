package session

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// Factory creates the interpreter backing a new session.
type Factory func(sessionID string) ports.Interpreter

// Turn is the outcome of one operation on a session.
type Turn struct {
	SessionID string               `json:"session_id"`
	Commands  []domain.Command     `json:"commands"`
	Snapshot  domain.Snapshot      `json:"snapshot"`
	Diff      *domain.SnapshotDiff `json:"diff,omitempty"`
}

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	factory Factory
	logger  *slog.Logger
	newID   func() string

	mu    sync.Mutex            // guards locks
	locks map[string]*lockEntry // active locks

	smu      sync.RWMutex
	sessions map[string]ports.Interpreter
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithIDGenerator replaces the UUID session id generator.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// NewManager creates a Manager that builds interpreters with factory.
func NewManager(factory Factory, opts ...Option) *Manager {
	m := &Manager{
		factory:  factory,
		logger:   logging.NewNop(),
		newID:    uuid.NewString,
		locks:    make(map[string]*lockEntry),
		sessions: make(map[string]ports.Interpreter),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu and call release after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// WithLock executes fn while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}

func (m *Manager) lookup(sessionID string) (ports.Interpreter, error) {
	m.smu.RLock()
	defer m.smu.RUnlock()
	interp, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}
	return interp, nil
}

// Create starts a new session and returns its first turn.
func (m *Manager) Create(ctx context.Context) (*Turn, error) {
	id := m.newID()
	interp := m.factory(id)

	var turn *Turn
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		cmds, err := interp.Start(ctx)
		if err != nil {
			return fmt.Errorf("failed to start session %s: %w", id, err)
		}
		m.smu.Lock()
		m.sessions[id] = interp
		m.smu.Unlock()

		turn = &Turn{SessionID: id, Commands: cmds, Snapshot: interp.Snapshot()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.logger.Info("Session created", "session_id", id, "configuration", turn.Snapshot.Configuration)
	return turn, nil
}

// Send delivers an event to a session. The turn carries what changed.
func (m *Manager) Send(ctx context.Context, sessionID string, ev domain.Event) (*Turn, error) {
	return m.step(ctx, sessionID, func(ctx context.Context, interp ports.Interpreter) ([]domain.Command, error) {
		return interp.Send(ctx, ev)
	})
}

// Restart forces a session back to its initial configuration.
func (m *Manager) Restart(ctx context.Context, sessionID string) (*Turn, error) {
	return m.step(ctx, sessionID, func(ctx context.Context, interp ports.Interpreter) ([]domain.Command, error) {
		return interp.Restart(ctx)
	})
}

func (m *Manager) step(ctx context.Context, sessionID string, fn func(context.Context, ports.Interpreter) ([]domain.Command, error)) (*Turn, error) {
	var turn *Turn
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		interp, err := m.lookup(sessionID)
		if err != nil {
			return err
		}
		before := interp.Snapshot()
		cmds, err := fn(ctx, interp)
		after := interp.Snapshot()
		turn = &Turn{
			SessionID: sessionID,
			Commands:  cmds,
			Snapshot:  after,
			Diff:      domain.Diff(&before, &after),
		}
		return err
	})
	return turn, err
}

// Snapshot returns the observable state of a session.
func (m *Manager) Snapshot(ctx context.Context, sessionID string) (domain.Snapshot, error) {
	var snap domain.Snapshot
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		interp, err := m.lookup(sessionID)
		if err != nil {
			return err
		}
		snap = interp.Snapshot()
		return nil
	})
	return snap, err
}

// Delete discards a session.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		m.smu.Lock()
		defer m.smu.Unlock()
		if _, ok := m.sessions[sessionID]; !ok {
			return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
		}
		delete(m.sessions, sessionID)
		m.logger.Info("Session deleted", "session_id", sessionID)
		return nil
	})
}

// List returns the ids of all live sessions, sorted.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.smu.RLock()
	defer m.smu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}
