package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/authcore/pkg/clock"
)

// StateStore keeps OAuth state tokens between redirect and callback.
type StateStore interface {
	Store(ctx context.Context, state, provider string, expiresAt time.Time) error
	// Consume atomically removes the state and returns its provider.
	// Returns ErrStateNotFound if the state is unknown, expired or already used.
	Consume(ctx context.Context, state string) (string, error)
}

type stateEntry struct {
	provider  string
	expiresAt time.Time
}

// MemoryStateStore is a process-local StateStore.
type MemoryStateStore struct {
	mu     sync.Mutex
	states map[string]stateEntry
	clock  clock.Clock
}

func NewMemoryStateStore(c clock.Clock) *MemoryStateStore {
	if c == nil {
		c = clock.Default
	}
	return &MemoryStateStore{states: make(map[string]stateEntry), clock: c}
}

func (s *MemoryStateStore) Store(_ context.Context, state, provider string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	for k, e := range s.states {
		if !now.Before(e.expiresAt) {
			delete(s.states, k)
		}
	}
	s.states[state] = stateEntry{provider: provider, expiresAt: expiresAt}
	return nil
}

func (s *MemoryStateStore) Consume(_ context.Context, state string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.states[state]
	if !ok {
		return "", ErrStateNotFound
	}
	delete(s.states, state)
	if !s.clock.Now().Before(e.expiresAt) {
		return "", ErrStateNotFound
	}
	return e.provider, nil
}

// RedisStateStore shares OAuth state between instances.
type RedisStateStore struct {
	client redis.UniversalClient
	prefix string
	clock  clock.Clock
}

func NewRedisStateStore(client redis.UniversalClient, prefix string, c clock.Clock) *RedisStateStore {
	if c == nil {
		c = clock.Default
	}
	return &RedisStateStore{client: client, prefix: prefix + "oauth_state:", clock: c}
}

func (s *RedisStateStore) Store(ctx context.Context, state, provider string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.clock.Now())
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, s.prefix+state, provider, ttl).Err()
}

func (s *RedisStateStore) Consume(ctx context.Context, state string) (string, error) {
	provider, err := s.client.GetDel(ctx, s.prefix+state).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrStateNotFound
	}
	if err != nil {
		return "", err
	}
	return provider, nil
}
