package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// DefaultTTL is how long a cached answer is kept.
const DefaultTTL = 24 * time.Hour

// Cache implements ports.KnowledgeBase by decorating another KnowledgeBase.
// Answers, including "no information", are cached. Failures are not.
// A Redis outage degrades to calling the upstream directly.
type Cache struct {
	client   *backend.Client
	upstream ports.KnowledgeBase
	prefix   string
	ttl      time.Duration
	logger   *slog.Logger
}

type Option func(*Cache)

// WithTTL sets the expiration for cached answers.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

// WithLogger configures the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = l
	}
}

// New creates a cache connected to the given Redis server.
func New(address, password string, db int, upstream ports.KnowledgeBase, opts ...Option) *Cache {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, upstream, opts...)
}

// NewFromClient creates a cache from an existing client.
func NewFromClient(client *backend.Client, upstream ports.KnowledgeBase, opts ...Option) *Cache {
	c := &Cache{
		client:   client,
		upstream: upstream,
		prefix:   "parley:knowledge:",
		ttl:      DefaultTTL,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) key(subject string) string {
	return c.prefix + strings.ToLower(strings.TrimSpace(subject))
}

// Lookup serves subject from the cache, falling back to the upstream.
func (c *Cache) Lookup(ctx context.Context, subject string) (domain.LookupResult, error) {
	key := c.key(subject)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var res domain.LookupResult
		if jerr := json.Unmarshal(data, &res); jerr == nil {
			c.logger.Debug("Knowledge cache hit", "subject", subject)
			return res, nil
		}
		c.logger.Warn("Discarding corrupt cache entry", "key", key)
	case errors.Is(err, backend.Nil):
	default:
		if ctx.Err() != nil {
			return domain.LookupResult{}, ctx.Err()
		}
		c.logger.Warn("Knowledge cache unavailable", "err", err)
	}

	res, err := c.upstream.Lookup(ctx, subject)
	if err != nil {
		return domain.LookupResult{}, err
	}

	payload, err := json.Marshal(res)
	if err != nil {
		return res, fmt.Errorf("failed to marshal lookup result: %w", err)
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to cache knowledge answer", "key", key, "err", err)
	}
	return res, nil
}

// Invalidate drops the cached answer for subject.
func (c *Cache) Invalidate(ctx context.Context, subject string) error {
	return c.client.Del(ctx, c.key(subject)).Err()
}
