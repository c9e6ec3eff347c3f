package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/parley/pkg/domain"
)

// LoggingHooks writes lifecycle notifications to logger at debug level.
// Dropped events and discarded results are logged at info.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "state_enter", "node_id", e.NodeID, "kind", e.Kind)
		},
		OnStateExit: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "state_exit", "node_id", e.NodeID)
		},
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.DebugContext(ctx, "transition",
				"source", e.Source,
				"targets", e.Targets,
				"event", e.Event,
				"guard", e.Guard,
			)
		},
		OnEventDropped: func(ctx context.Context, e *domain.DropEvent) {
			logger.InfoContext(ctx, "event_dropped", "event", e.Event, "configuration", e.Configuration)
		},
		OnInvoke: func(ctx context.Context, e *domain.InvokeEvent) {
			logger.DebugContext(ctx, "invoke", "id", e.Invocation.ID, "src", e.Invocation.Src)
		},
		OnInvocationDiscarded: func(ctx context.Context, e *domain.InvokeEvent) {
			logger.InfoContext(ctx, "invocation_discarded", "id", e.Invocation.ID, "reason", e.Reason)
		},
	}
}
