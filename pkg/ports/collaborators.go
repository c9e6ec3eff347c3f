package ports

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
)

// Speaker synthesises speech. Speak blocks until playback has finished or ctx is cancelled.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Recognizer captures a single user turn.
// It returns ctx.Err() when the turn is abandoned (silence timeout or cancellation).
type Recognizer interface {
	Listen(ctx context.Context) (domain.Recognition, error)
}

// Understander classifies a transcript into an intent with entities.
type Understander interface {
	Understand(ctx context.Context, utterance string) (domain.Prediction, error)
}

// KnowledgeBase looks up a short description of a subject.
// An empty Abstract with a nil error means "no information".
type KnowledgeBase interface {
	Lookup(ctx context.Context, subject string) (domain.LookupResult, error)
}

// Invoker performs an asynchronous invocation requested by the chart.
// The returned value becomes the Data of the done.invoke event.
type Invoker func(ctx context.Context, input any) (any, error)

// LookupInvoker adapts a KnowledgeBase to an Invoker taking the subject as input.
func LookupInvoker(kb KnowledgeBase) Invoker {
	return func(ctx context.Context, input any) (any, error) {
		subject, _ := input.(string)
		return kb.Lookup(ctx, subject)
	}
}
