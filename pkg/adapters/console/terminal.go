package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/aretw0/parley/pkg/domain"
)

var (
	markup     = regexp.MustCompile(`<[^>]*>`)
	confidence = regexp.MustCompile(`^\[\s*([0-9]*\.?[0-9]+)\s*\]\s*`)
)

type line struct {
	text string
	err  error
}

// Terminal implements ports.Speaker and ports.Recognizer on a console.
type Terminal struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
	profile     termenv.Profile
	delay       time.Duration

	startOnce sync.Once
	clicks    chan domain.Event

	mu     sync.Mutex
	waiter chan line
	eof    bool
	outMu  sync.Mutex
}

// Option configures the Terminal.
type Option func(*Terminal)

// WithInput sets the line source. Defaults to os.Stdin.
func WithInput(r io.Reader) Option {
	return func(t *Terminal) {
		t.in = bufio.NewReader(r)
		t.interactive = isTerminal(r)
	}
}

// WithOutput sets where prompts are printed. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(t *Terminal) {
		t.out = w
		t.profile = profileFor(w)
	}
}

// WithProfile forces a color profile (termenv.Ascii disables styling).
func WithProfile(p termenv.Profile) Option {
	return func(t *Terminal) {
		t.profile = p
	}
}

// WithSpeechDelay simulates playback time per spoken word.
func WithSpeechDelay(perWord time.Duration) Option {
	return func(t *Terminal) {
		t.delay = perWord
	}
}

// New creates a Terminal bound to stdin and stdout unless overridden.
func New(opts ...Option) *Terminal {
	t := &Terminal{
		in:          bufio.NewReader(os.Stdin),
		out:         os.Stdout,
		interactive: isTerminal(os.Stdin),
		profile:     profileFor(os.Stdout),
		clicks:      make(chan domain.Event, 1),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func profileFor(w io.Writer) termenv.Profile {
	if isTerminal(w) {
		return termenv.ColorProfile()
	}
	return termenv.Ascii
}

// Clicks returns CLICK events for lines typed while nobody listens.
// The channel is closed at end of input.
func (t *Terminal) Clicks() <-chan domain.Event {
	t.initPump()
	return t.clicks
}

// Speak prints text as a system prompt.
func (t *Terminal) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(markup.ReplaceAllString(text, ""))

	t.outMu.Lock()
	styled := t.profile.String(text).Foreground(t.profile.Color("#a78bfa"))
	_, err := fmt.Fprintln(t.out, styled)
	t.outMu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to write prompt: %w", err)
	}

	if t.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(time.Duration(len(strings.Fields(text))) * t.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Listen waits for the next typed line.
func (t *Terminal) Listen(ctx context.Context) (domain.Recognition, error) {
	w := make(chan line, 1)
	t.mu.Lock()
	if t.eof {
		t.mu.Unlock()
		return domain.Recognition{}, io.EOF
	}
	t.waiter = w
	t.mu.Unlock()
	t.initPump()

	if t.interactive {
		t.outMu.Lock()
		fmt.Fprint(t.out, "> ")
		t.outMu.Unlock()
	}

	select {
	case <-ctx.Done():
		t.mu.Lock()
		if t.waiter == w {
			t.waiter = nil
		}
		t.mu.Unlock()
		if t.interactive {
			t.outMu.Lock()
			fmt.Fprintln(t.out)
			t.outMu.Unlock()
		}
		return domain.Recognition{}, ctx.Err()
	case l := <-w:
		if l.err != nil {
			return domain.Recognition{}, l.err
		}
		return ParseLine(l.text), nil
	}
}

// ParseLine turns a typed line into a recognition. An optional "[0.4]"
// prefix sets the confidence, which otherwise is 1.
func ParseLine(s string) domain.Recognition {
	s = strings.TrimSpace(s)
	rec := domain.Recognition{Utterance: s, Confidence: 1}
	if m := confidence.FindStringSubmatch(s); m != nil {
		if c, err := strconv.ParseFloat(m[1], 64); err == nil && c <= 1 {
			rec.Confidence = c
			rec.Utterance = strings.TrimSpace(s[len(m[0]):])
		}
	}
	return rec
}

func (t *Terminal) initPump() {
	t.startOnce.Do(func() {
		go t.pump()
	})
}

func (t *Terminal) pump() {
	for {
		text, err := t.in.ReadString('\n')
		if text != "" || err == nil {
			t.deliver(line{text: text})
		}
		if err != nil {
			t.mu.Lock()
			t.eof = true
			w := t.waiter
			t.waiter = nil
			t.mu.Unlock()
			if w != nil {
				w <- line{err: io.EOF}
			}
			close(t.clicks)
			return
		}
	}
}

func (t *Terminal) deliver(l line) {
	t.mu.Lock()
	w := t.waiter
	t.waiter = nil
	t.mu.Unlock()

	if w != nil {
		w <- l
		return
	}
	select {
	case t.clicks <- domain.NewEvent(domain.EventClick):
	default:
	}
}
