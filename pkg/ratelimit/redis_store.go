package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// recordScript prunes the sorted set, checks capacity and records atomically.
// Scores are microsecond timestamps, passed as strings so Lua never formats
// them as floats.
//
// KEYS[1] window key
// ARGV[1] now, ARGV[2] exclusive prune bound, ARGV[3] limit, ARGV[4] n,
// ARGV[5] member prefix, ARGV[6] ttl in milliseconds
var recordScript = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[3])
local n = tonumber(ARGV[4])

redis.call('ZREMRANGEBYSCORE', key, '-inf', ARGV[2])
local count = redis.call('ZCARD', key)
if count + n > limit then
	return {0, count}
end

for i = 1, n do
	redis.call('ZADD', key, ARGV[1], ARGV[5] .. ':' .. i)
end
redis.call('PEXPIRE', key, ARGV[6])
return {1, count + n}
`)

// RedisStore keeps sliding windows in Redis sorted sets so that several
// processes share one view of each client's history.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a store that namespaces keys with prefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix + "ratelimit:"}
}

// RecordTimestampIfAllowed runs the prune-check-record script for key.
func (s *RedisStore) RecordTimestampIfAllowed(ctx context.Context, key string, now time.Time, window time.Duration, limit int, n int) (bool, int64, error) {
	res, err := recordScript.Run(ctx, s.client, []string{s.prefix + key},
		strconv.FormatInt(now.UnixMicro(), 10),
		"("+strconv.FormatInt(now.Add(-window).UnixMicro(), 10),
		limit,
		n,
		uuid.NewString(),
		max(int64(1), window.Milliseconds()),
	).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("ratelimit: record %q: %w", key, err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("ratelimit: record %q: unexpected script reply %v", key, res)
	}

	return res[0] == 1, res[1], nil
}

// CountInWindow counts members scored within window of now.
func (s *RedisStore) CountInWindow(ctx context.Context, key string, now time.Time, window time.Duration) (int64, error) {
	minScore := strconv.FormatInt(now.Add(-window).UnixMicro(), 10)
	count, err := s.client.ZCount(ctx, s.prefix+key, minScore, "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("ratelimit: count %q: %w", key, err)
	}
	return count, nil
}

// Delete removes the window for key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("ratelimit: delete %q: %w", key, err)
	}
	return nil
}
