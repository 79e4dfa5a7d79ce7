package otp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/authcore/pkg/clock"
)

// RedisStorage keeps each record as a JSON value under one key per
// (email, purpose). A single SET replaces the previous record and Redis
// drops it once it expires.
type RedisStorage struct {
	client redis.UniversalClient
	prefix string
	clock  clock.Clock
}

// NewRedisStorage creates a store that namespaces keys with prefix.
func NewRedisStorage(client redis.UniversalClient, prefix string, c clock.Clock) *RedisStorage {
	if c == nil {
		c = clock.Default
	}
	return &RedisStorage{client: client, prefix: prefix + "otp:", clock: c}
}

func (s *RedisStorage) key(email string, purpose Purpose) string {
	return s.prefix + string(purpose) + ":" + email
}

func (s *RedisStorage) Save(ctx context.Context, rec Record) error {
	key := s.key(rec.Email, rec.Purpose)

	ttl := rec.ExpiresAt.Sub(s.clock.Now())
	if ttl <= 0 {
		return s.client.Del(ctx, key).Err()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *RedisStorage) Find(ctx context.Context, email string, purpose Purpose) (Record, error) {
	data, err := s.client.Get(ctx, s.key(email, purpose)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("unmarshal record: %w", err)
	}
	return rec, nil
}

func (s *RedisStorage) Delete(ctx context.Context, email string, purpose Purpose) error {
	return s.client.Del(ctx, s.key(email, purpose)).Err()
}
