package runtime

import (
	"log/slog"
	"maps"

	"go.opentelemetry.io/otel/trace"

	"github.com/aretw0/parley/pkg/domain"
)

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpreter) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(i *Interpreter) {
		i.hooks = i.hooks.Merge(hooks)
	}
}

// WithMaxMicrosteps bounds eventless and internal steps per Send.
func WithMaxMicrosteps(n int) Option {
	return func(i *Interpreter) {
		if n > 0 {
			i.maxMicrosteps = n
		}
	}
}

// WithInitialContext seeds the Context on every Start.
func WithInitialContext(slots map[string]any) Option {
	return func(i *Interpreter) {
		i.initial = maps.Clone(slots)
	}
}

// WithTracer overrides the OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(i *Interpreter) {
		if t != nil {
			i.tracer = t
		}
	}
}

// WithSessionID tags snapshots with a session identifier.
func WithSessionID(id string) Option {
	return func(i *Interpreter) {
		i.sessionID = id
	}
}
