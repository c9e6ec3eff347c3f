package runner

import (
	"log/slog"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// DefaultIntakeBufferSize is the number of events buffered between collaborators and the interpreter.
const DefaultIntakeBufferSize = 64

// DefaultSilenceTimeout is how long a LISTEN waits before posting TIMEOUT.
const DefaultSilenceTimeout = 8 * time.Second

// Option defines a functional option for configuring the Session.
type Option func(*Session)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithSpeaker configures the speech synthesiser.
func WithSpeaker(sp ports.Speaker) Option {
	return func(s *Session) {
		s.speaker = sp
	}
}

// WithRecognizer configures the speech recogniser.
func WithRecognizer(r ports.Recognizer) Option {
	return func(s *Session) {
		s.recognizer = r
	}
}

// WithUnderstander configures the NLU collaborator used to enrich recognitions.
func WithUnderstander(u ports.Understander) Option {
	return func(s *Session) {
		s.understander = u
	}
}

// WithInvoker registers the worker serving an invocation source.
func WithInvoker(src string, inv ports.Invoker) Option {
	return func(s *Session) {
		s.invokers[src] = inv
	}
}

// WithSilenceTimeout sets how long a LISTEN waits for the user.
// Zero disables the timeout.
func WithSilenceTimeout(d time.Duration) Option {
	return func(s *Session) {
		s.silence = d
	}
}

// WithIntakeBufferSize sets the capacity of the event intake queue.
func WithIntakeBufferSize(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.bufferSize = n
		}
	}
}

// WithTriggerSource forwards events from ch (e.g. UI clicks) into the session.
func WithTriggerSource(ch <-chan domain.Event) Option {
	return func(s *Session) {
		s.triggers = ch
	}
}

// WithCommandObserver is called with every batch of commands before dispatch.
func WithCommandObserver(fn func([]domain.Command)) Option {
	return func(s *Session) {
		s.observe = fn
	}
}
