package ports

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
)

// Interpreter is the engine contract used by adapters.
// Implementations are not safe for concurrent use; callers serialise access.
type Interpreter interface {
	// Start enters the initial configuration and returns the emitted commands.
	Start(ctx context.Context) ([]domain.Command, error)

	// Send processes one external event to completion.
	Send(ctx context.Context, ev domain.Event) ([]domain.Command, error)

	// Restart discards the current configuration and starts over.
	Restart(ctx context.Context) ([]domain.Command, error)

	// Snapshot captures the observable state.
	Snapshot() domain.Snapshot

	// Matches reports whether the referenced state is active.
	Matches(ref string) bool
}
