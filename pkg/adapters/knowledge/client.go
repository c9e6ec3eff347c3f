package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
)

// DefaultEndpoint is the DuckDuckGo instant answer API.
const DefaultEndpoint = "https://api.duckduckgo.com/"

// ErrEmptySubject is returned when asked to look up nothing.
var ErrEmptySubject = errors.New("empty lookup subject")

// Config tunes the client.
type Config struct {
	Endpoint string
	// Timeout bounds a single lookup.
	Timeout time.Duration
	// FailureThreshold is the number of consecutive failures that opens the circuit.
	FailureThreshold int
	// OpenTimeout is how long the circuit stays open before probing again.
	OpenTimeout time.Duration
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Endpoint:         DefaultEndpoint,
		Timeout:          5 * time.Second,
		FailureThreshold: 3,
		OpenTimeout:      30 * time.Second,
	}
}

// Client implements ports.KnowledgeBase against the instant answer API.
type Client struct {
	cfg     Config
	http    *http.Client
	breaker circuitbreaker.CircuitBreaker[domain.LookupResult]
	logger  *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the traced default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithLogger configures the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = l
	}
}

// New creates a Client.
func New(cfg Config, opts ...Option) *Client {
	def := DefaultConfig()
	if cfg.Endpoint == "" {
		cfg.Endpoint = def.Endpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	threshold := uint32(cfg.FailureThreshold) // #nosec G115 -- positive, checked above

	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		logger: logging.NewNop(),
		breaker: circuitbreaker.New[domain.LookupResult](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    cfg.OpenTimeout,
			Timeout:     cfg.OpenTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			// A caller abandoning the lookup says nothing about the upstream.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
		}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// answer is the part of the instant answer payload we read.
type answer struct {
	Heading      string `json:"Heading"`
	Abstract     string `json:"Abstract"`
	AbstractText string `json:"AbstractText"`
}

// Lookup returns the abstract for subject. An unknown subject yields an
// empty Abstract and no error.
func (c *Client) Lookup(ctx context.Context, subject string) (domain.LookupResult, error) {
	subject = strings.TrimSpace(subject)
	ctx, span := tracer.Start(ctx, "knowledge.lookup")
	defer span.End()
	span.SetAttributes(attribute.String("knowledge.subject", subject))

	if subject == "" {
		span.RecordError(ErrEmptySubject)
		span.SetStatus(codes.Error, ErrEmptySubject.Error())
		return domain.LookupResult{}, ErrEmptySubject
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	res, err := c.breaker.Execute(ctx, func(ctx context.Context) (domain.LookupResult, error) {
		return c.fetch(ctx, subject)
	})
	if err != nil && errors.Is(err, context.Canceled) {
		c.logger.Debug("Knowledge lookup cancelled", "subject", subject)
		return domain.LookupResult{}, fmt.Errorf("lookup %q: %w", subject, err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn("Knowledge lookup failed", "subject", subject, "err", err)
		return domain.LookupResult{}, fmt.Errorf("lookup %q: %w", subject, err)
	}
	span.SetAttributes(attribute.Bool("knowledge.found", res.Abstract != ""))
	c.logger.Debug("Knowledge lookup", "subject", subject, "found", res.Abstract != "")
	return res, nil
}

func (c *Client) fetch(ctx context.Context, subject string) (domain.LookupResult, error) {
	q := url.Values{}
	q.Set("q", subject)
	q.Set("format", "json")
	q.Set("skip_disambig", "1")
	q.Set("no_html", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return domain.LookupResult{}, fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.LookupResult{}, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return domain.LookupResult{}, fmt.Errorf("non-OK HTTP status: %s", resp.Status)
	}

	var a answer
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		return domain.LookupResult{}, fmt.Errorf("error decoding response: %w", err)
	}

	abstract := a.AbstractText
	if abstract == "" {
		abstract = a.Abstract
	}
	return domain.LookupResult{Subject: subject, Abstract: strings.TrimSpace(abstract)}, nil
}
