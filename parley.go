package parley

import (
	"log/slog"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/internal/runtime"
	"github.com/aretw0/parley/pkg/chart"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/runner"
	"github.com/aretw0/parley/pkg/session"
)

// Engine spawns interpreters for one validated chart.
// It holds no conversation state and is safe for concurrent use.
type Engine struct {
	chart         *chart.Chart
	hooks         domain.LifecycleHooks
	logger        *slog.Logger
	maxMicrosteps int
	initial       map[string]any
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets the structured logger shared by interpreters and sessions.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks. Repeated calls merge.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithMaxMicrosteps bounds the internal steps of one event.
func WithMaxMicrosteps(n int) Option {
	return func(e *Engine) {
		e.maxMicrosteps = n
	}
}

// WithInitialContext seeds every interpreter's context on start.
func WithInitialContext(slots map[string]any) Option {
	return func(e *Engine) {
		e.initial = slots
	}
}

// New creates an Engine for the chart.
func New(c *chart.Chart, opts ...Option) *Engine {
	e := &Engine{chart: c}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	e.logger = e.logger.With("chart", c.Root().ID)
	return e
}

// Chart returns the chart the engine interprets.
func (e *Engine) Chart() *chart.Chart {
	return e.chart
}

// NewInterpreter returns a fresh, unstarted interpreter.
// Its signature matches session.Factory.
func (e *Engine) NewInterpreter(sessionID string) ports.Interpreter {
	opts := []runtime.Option{
		runtime.WithLogger(e.logger.With("session_id", sessionID)),
		runtime.WithLifecycleHooks(e.hooks),
		runtime.WithSessionID(sessionID),
	}
	if e.maxMicrosteps > 0 {
		opts = append(opts, runtime.WithMaxMicrosteps(e.maxMicrosteps))
	}
	if e.initial != nil {
		opts = append(opts, runtime.WithInitialContext(e.initial))
	}
	return runtime.NewInterpreter(e.chart, opts...)
}

// NewSession wires a new interpreter to collaborators. Call Run to start it.
func (e *Engine) NewSession(sessionID string, opts ...runner.Option) *runner.Session {
	opts = append([]runner.Option{runner.WithLogger(e.logger.With("session_id", sessionID))}, opts...)
	return runner.NewSession(e.NewInterpreter(sessionID), opts...)
}

// NewManager returns a manager holding many conversations of this chart.
func (e *Engine) NewManager(opts ...session.Option) *session.Manager {
	opts = append([]session.Option{session.WithLogger(e.logger)}, opts...)
	return session.NewManager(e.NewInterpreter, opts...)
}
