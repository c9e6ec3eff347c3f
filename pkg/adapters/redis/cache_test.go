package redis_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/parley/pkg/adapters/redis"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// fakeKB answers from a map and counts calls per subject.
type fakeKB struct {
	mu      sync.Mutex
	answers map[string]string
	calls   map[string]int
	err     error
}

func (f *fakeKB) Lookup(ctx context.Context, subject string) (domain.LookupResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[subject]++
	if err := ctx.Err(); err != nil {
		return domain.LookupResult{}, err
	}
	if f.err != nil {
		return domain.LookupResult{}, f.err
	}
	return domain.LookupResult{Subject: subject, Abstract: f.answers[subject]}, nil
}

func (f *fakeKB) Calls(subject string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[subject]
}

func setup(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCache_Contract(t *testing.T) {
	_, client := setup(t)
	kb := &fakeKB{answers: map[string]string{"Ada Lovelace": "a mathematician"}}

	ports.RunKnowledgeBaseContract(t, redis.NewFromClient(client, kb), "Ada Lovelace", "a mathematician", "Nobody")
}

func TestCache_ServesRepeatsFromRedis(t *testing.T) {
	_, client := setup(t)
	kb := &fakeKB{answers: map[string]string{"Ada Lovelace": "a mathematician"}}
	cache := redis.NewFromClient(client, kb)
	ctx := context.Background()

	for _, subject := range []string{"Ada Lovelace", "ada lovelace ", "Nobody", "Nobody"} {
		_, err := cache.Lookup(ctx, subject)
		require.NoError(t, err)
	}

	assert.Equal(t, 1, kb.Calls("Ada Lovelace"))
	assert.Equal(t, 0, kb.Calls("ada lovelace "))
	assert.Equal(t, 1, kb.Calls("Nobody"), "no-information answers are cached too")
}

func TestCache_FailuresAreNotCached(t *testing.T) {
	mr, client := setup(t)
	kb := &fakeKB{err: errors.New("upstream down")}
	cache := redis.NewFromClient(client, kb)
	ctx := context.Background()

	_, err := cache.Lookup(ctx, "Ada Lovelace")
	require.Error(t, err)
	assert.Empty(t, mr.Keys())
}

func TestCache_TTL(t *testing.T) {
	mr, client := setup(t)
	kb := &fakeKB{answers: map[string]string{"Ada Lovelace": "a mathematician"}}
	cache := redis.NewFromClient(client, kb, redis.WithTTL(time.Minute), redis.WithPrefix("test:"))
	ctx := context.Background()

	_, err := cache.Lookup(ctx, "Ada Lovelace")
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:ada lovelace"))

	mr.FastForward(2 * time.Minute)
	_, err = cache.Lookup(ctx, "Ada Lovelace")
	require.NoError(t, err)
	assert.Equal(t, 2, kb.Calls("Ada Lovelace"))
}

func TestCache_Invalidate(t *testing.T) {
	_, client := setup(t)
	kb := &fakeKB{answers: map[string]string{"Ada Lovelace": "a mathematician"}}
	cache := redis.NewFromClient(client, kb)
	ctx := context.Background()

	_, _ = cache.Lookup(ctx, "Ada Lovelace")
	require.NoError(t, cache.Invalidate(ctx, "Ada Lovelace"))
	_, _ = cache.Lookup(ctx, "Ada Lovelace")
	assert.Equal(t, 2, kb.Calls("Ada Lovelace"))
}

func TestCache_RedisOutageFallsThrough(t *testing.T) {
	mr, client := setup(t)
	kb := &fakeKB{answers: map[string]string{"Ada Lovelace": "a mathematician"}}
	cache := redis.NewFromClient(client, kb)
	mr.Close()

	res, err := cache.Lookup(context.Background(), "Ada Lovelace")
	require.NoError(t, err)
	assert.Equal(t, "a mathematician", res.Abstract)
}

func TestCache_CorruptEntry(t *testing.T) {
	mr, client := setup(t)
	kb := &fakeKB{answers: map[string]string{"Ada Lovelace": "a mathematician"}}
	cache := redis.NewFromClient(client, kb)
	require.NoError(t, mr.Set("parley:knowledge:ada lovelace", "{not json"))

	res, err := cache.Lookup(context.Background(), "Ada Lovelace")
	require.NoError(t, err)
	assert.Equal(t, "a mathematician", res.Abstract)
}
