package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// Session drives one interpreter with real collaborators.
// Run must be called at most once.
type Session struct {
	interp       ports.Interpreter
	logger       *slog.Logger
	speaker      ports.Speaker
	recognizer   ports.Recognizer
	understander ports.Understander
	invokers     map[string]ports.Invoker
	silence      time.Duration
	bufferSize   int
	triggers     <-chan domain.Event
	observe      func([]domain.Command)

	intake    chan domain.Event
	speech    chan string
	done      chan struct{}
	quit      chan error
	closeOnce sync.Once
	wg        sync.WaitGroup

	mu           sync.Mutex
	listenSeq    uint64
	listenCancel context.CancelFunc
	calls        map[string]context.CancelFunc
}

// NewSession creates a session around interp. Nothing runs until Run.
func NewSession(interp ports.Interpreter, opts ...Option) *Session {
	s := &Session{
		interp:     interp,
		logger:     logging.NewNop(),
		invokers:   make(map[string]ports.Invoker),
		silence:    DefaultSilenceTimeout,
		bufferSize: DefaultIntakeBufferSize,
		done:       make(chan struct{}),
		quit:       make(chan error, 1),
		calls:      make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.intake = make(chan domain.Event, s.bufferSize)
	s.speech = make(chan string, s.bufferSize)
	return s
}

// Post queues an event for the interpreter. It blocks while the intake is full.
// Posting to a session that stopped returns domain.ErrSessionClosed.
func (s *Session) Post(ctx context.Context, ev domain.Event) error {
	select {
	case <-s.done:
		return domain.ErrSessionClosed
	default:
	}
	select {
	case s.intake <- ev:
		return nil
	case <-s.done:
		return domain.ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run starts the interpreter and processes events until the chart reaches a
// top-level final state, the recognizer reports end of input, or ctx is done.
// The first two cases return nil.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		s.closeOnce.Do(func() { close(s.done) })
		cancel()
		s.wg.Wait()
	}()

	s.wg.Add(1)
	go s.speechWorker(ctx)

	cmds, err := s.interp.Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start interpreter: %w", err)
	}
	s.dispatch(ctx, cmds)

	triggers := s.triggers
	for {
		if s.interp.Snapshot().Status == domain.StatusDone {
			s.logger.Debug("Session finished")
			return nil
		}

		var ev domain.Event
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-s.quit:
			return err
		case ev = <-s.intake:
		case t, ok := <-triggers:
			if !ok {
				triggers = nil
				continue
			}
			ev = t
		}

		s.logger.Debug("Session event", "type", ev.Type)
		cmds, err := s.interp.Send(ctx, ev)
		if err != nil {
			return fmt.Errorf("failed to process %s: %w", ev.Type, err)
		}
		s.dispatch(ctx, cmds)
	}
}

func (s *Session) stop(err error) {
	select {
	case s.quit <- err:
	default:
	}
}

func (s *Session) dispatch(ctx context.Context, cmds []domain.Command) {
	if len(cmds) == 0 {
		return
	}
	if s.observe != nil {
		s.observe(cmds)
	}
	for _, cmd := range cmds {
		switch cmd.Type {
		case domain.CommandSpeak:
			select {
			case s.speech <- cmd.Text:
			case <-ctx.Done():
				return
			}
		case domain.CommandListen:
			s.listen(ctx)
		case domain.CommandInvoke:
			if cmd.Invocation != nil {
				s.invoke(ctx, *cmd.Invocation)
			}
		case domain.CommandCancel:
			if cmd.Invocation != nil {
				s.cancel(cmd.Invocation.ID)
			}
		default:
			s.logger.Warn("Unknown command", "type", cmd.Type)
		}
	}
}

// post delivers an event from a worker goroutine. Failures mean the session is gone.
func (s *Session) post(ctx context.Context, ev domain.Event) {
	if err := s.Post(ctx, ev); err != nil {
		s.logger.Debug("Event not delivered", "type", ev.Type, "err", err)
	}
}

func (s *Session) speechWorker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case text := <-s.speech:
			if s.speaker != nil {
				if err := s.speaker.Speak(ctx, text); err != nil {
					if ctx.Err() != nil {
						return
					}
					s.logger.Warn("Speech playback failed", "err", err)
				}
			}
			s.post(ctx, domain.NewEvent(domain.EventEndSpeech))
		}
	}
}

func (s *Session) listen(ctx context.Context) {
	if s.recognizer == nil {
		s.logger.Warn("LISTEN ignored: no recognizer configured")
		return
	}

	s.mu.Lock()
	if s.listenCancel != nil {
		s.listenCancel()
	}
	s.listenSeq++
	seq := s.listenSeq
	lctx, cancel := s.withSilence(ctx)
	s.listenCancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		rec, err := s.recognizer.Listen(lctx)
		if !s.currentListen(seq) {
			return
		}
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			s.logger.Debug("Recognizer reached end of input")
			s.stop(nil)
			return
		case errors.Is(lctx.Err(), context.DeadlineExceeded):
			s.post(ctx, domain.NewEvent(domain.EventTimeout))
			return
		case lctx.Err() != nil:
			return
		default:
			s.logger.Warn("Recognition failed", "err", err)
			s.post(ctx, domain.NewEvent(domain.EventTimeout))
			return
		}

		utterance, err := SanitizeUtterance(rec.Utterance)
		if err != nil {
			s.logger.Warn("Recognition rejected", "err", err)
			s.post(ctx, domain.NewEvent(domain.EventTimeout))
			return
		}
		rec.Utterance = utterance
		rec.Prediction = s.understand(ctx, rec)
		s.post(ctx, domain.Recognised(rec.Utterance, rec.Confidence, rec.Prediction))
	}()
}

func (s *Session) withSilence(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.silence > 0 {
		return context.WithTimeout(ctx, s.silence)
	}
	return context.WithCancel(ctx)
}

func (s *Session) currentListen(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listenSeq != seq {
		return false
	}
	s.listenCancel = nil
	return true
}

func (s *Session) understand(ctx context.Context, rec domain.Recognition) domain.Prediction {
	if s.understander == nil || rec.Prediction.TopIntent != "" || len(rec.Prediction.Entities) > 0 {
		return rec.Prediction
	}
	p, err := s.understander.Understand(ctx, rec.Utterance)
	if err != nil {
		s.logger.Warn("Understanding failed", "utterance", rec.Utterance, "err", err)
		return rec.Prediction
	}
	return p
}

func (s *Session) invoke(ctx context.Context, inv domain.Invocation) {
	call, ok := s.invokers[inv.Src]
	if !ok {
		s.logger.Warn("No invoker for source", "src", inv.Src, "id", inv.ID)
		ev := domain.ResultEvent(inv, nil, fmt.Errorf("%w: %s", domain.ErrUnknownInvoker, inv.Src))
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.post(ctx, ev)
		}()
		return
	}

	ictx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.calls[inv.ID] = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.cancel(inv.ID)

		start := time.Now()
		data, err := safeInvoke(ictx, call, inv.Input)
		if ictx.Err() != nil {
			s.logger.Debug("Invocation abandoned", "id", inv.ID, "err", ictx.Err())
			return
		}
		s.logger.Debug("Invocation finished", "id", inv.ID, "duration", time.Since(start), "err", err)
		s.post(ctx, domain.ResultEvent(inv, data, err))
	}()
}

func (s *Session) cancel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.calls[id]; ok {
		c()
		delete(s.calls, id)
	}
}

func safeInvoke(ctx context.Context, call ports.Invoker, input any) (data any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invoker panicked: %v", r)
		}
	}()
	return call(ctx, input)
}
