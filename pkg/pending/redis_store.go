package pending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps registrations as JSON values. Put uses SET NX and Take
// uses GETDEL, so both are single atomic commands.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a store namespaced with prefix. A non-positive ttl
// stores entries without expiry.
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix + "pending:", ttl: max(0, ttl)}
}

func (s *RedisStore) Put(ctx context.Context, reg Registration) error {
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = time.Now()
	}
	data, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("pending: marshal: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.prefix+reg.Email, data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("pending: put: %w", err)
	}
	if !ok {
		return ErrAlreadyExists
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, email string) (Registration, error) {
	return s.decode(s.client.Get(ctx, s.prefix+email).Bytes())
}

func (s *RedisStore) Take(ctx context.Context, email string) (Registration, error) {
	return s.decode(s.client.GetDel(ctx, s.prefix+email).Bytes())
}

func (s *RedisStore) Remove(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, s.prefix+email).Err(); err != nil {
		return fmt.Errorf("pending: remove: %w", err)
	}
	return nil
}

func (s *RedisStore) Contains(ctx context.Context, email string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+email).Result()
	if err != nil {
		return false, fmt.Errorf("pending: exists: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) decode(data []byte, err error) (Registration, error) {
	if errors.Is(err, redis.Nil) {
		return Registration{}, ErrNotFound
	}
	if err != nil {
		return Registration{}, fmt.Errorf("pending: read: %w", err)
	}

	var reg Registration
	if err := json.Unmarshal(data, &reg); err != nil {
		return Registration{}, fmt.Errorf("pending: unmarshal: %w", err)
	}
	return reg, nil
}
