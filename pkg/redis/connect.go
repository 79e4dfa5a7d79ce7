package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
)

// Connect dials Redis and pings it, retrying up to cfg.RetryAttempts times
// at a fixed interval until cfg.ConnectTimeout elapses.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.ConnectionURL == "" {
		return nil, ErrEmptyConnectionURL
	}

	opts, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrInvalidURL, err)
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	client, err := retry.DoValue(ctx, constantBackoff(cfg.RetryAttempts, cfg.RetryInterval), func(ctx context.Context) (*redis.Client, error) {
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, retry.RetryableError(err)
		}
		return client, nil
	})
	if err != nil {
		return nil, errors.Join(ErrNotReady, err)
	}
	return client, nil
}

func constantBackoff(attempts int, interval time.Duration) retry.Backoff {
	attempts = max(1, attempts)
	if interval <= 0 {
		interval = time.Second
	}
	return retry.WithMaxRetries(uint64(attempts-1), retry.NewConstant(interval))
}
