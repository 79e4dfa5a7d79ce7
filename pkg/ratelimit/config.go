package ratelimit

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Config selects and tunes the window store.
type Config struct {
	Driver          string        `env:"RATELIMIT_DRIVER" envDefault:"memory"`
	CleanupInterval time.Duration `env:"RATELIMIT_CLEANUP_INTERVAL" envDefault:"1m"`
}

// NewStore builds the store selected by cfg.Driver. The redis client is
// only required for the redis driver and the prefix namespaces its keys.
func NewStore(cfg Config, client redis.UniversalClient, prefix string) (Store, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemoryStore(WithCleanupInterval(cfg.CleanupInterval)), nil
	case DriverRedis:
		if client == nil {
			return nil, ErrStoreRequired
		}
		return NewRedisStore(client, prefix), nil
	default:
		return nil, ErrUnknownDriver
	}
}
