package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/authcore/migrations"
	"github.com/dmitrymomot/authcore/pkg/auth"
	"github.com/dmitrymomot/authcore/pkg/httpserver"
	"github.com/dmitrymomot/authcore/pkg/logger"
	"github.com/dmitrymomot/authcore/pkg/mongo"
	"github.com/dmitrymomot/authcore/pkg/mongostore"
	"github.com/dmitrymomot/authcore/pkg/otp"
	"github.com/dmitrymomot/authcore/pkg/pending"
	"github.com/dmitrymomot/authcore/pkg/pg"
	"github.com/dmitrymomot/authcore/pkg/pgstore"
	"github.com/dmitrymomot/authcore/pkg/ratelimit"
	"github.com/dmitrymomot/authcore/pkg/redis"
)

const otpSweepInterval = 10 * time.Minute

var (
	errUnknownDriver = errors.New("unknown driver")
	errRedisRequired = errors.New("driver requires a redis connection")
)

// backends holds the stores selected by configuration together with their
// readiness probes and shutdown hooks.
type backends struct {
	users   auth.Storage
	otps    otp.Storage
	pending pending.Store
	limits  ratelimit.Store
	states  auth.StateStore
	checks  []httpserver.Check
	closers []func()
}

func (b *backends) onClose(fn func()) { b.closers = append(b.closers, fn) }

// Close releases resources in reverse order of acquisition.
func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openBackends connects everything cfg selects. On error the returned
// backends still holds whatever was opened and must be closed.
func openBackends(ctx context.Context, cfg appConfig, log *slog.Logger) (*backends, error) {
	b := &backends{}

	var rdb goredis.UniversalClient
	if cfg.needsRedis() {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return b, fmt.Errorf("connect redis: %w", err)
		}
		rdb = client
		b.onClose(func() { _ = client.Close() })
		b.checks = append(b.checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)})
	}
	prefix := cfg.Redis.KeyPrefix

	if err := b.openStorage(ctx, cfg, rdb, log); err != nil {
		return b, err
	}

	switch cfg.Pending.Driver {
	case "", pending.DriverMemory:
		b.pending = pending.NewMemoryStore(cfg.Pending.TTL)
	case pending.DriverRedis:
		b.pending = pending.NewRedisStore(rdb, prefix, cfg.Pending.TTL)
	default:
		return b, fmt.Errorf("pending: %w %q", errUnknownDriver, cfg.Pending.Driver)
	}

	limits, err := ratelimit.NewStore(cfg.RateLimit, rdb, prefix)
	if err != nil {
		return b, fmt.Errorf("rate limit store: %w", err)
	}
	b.limits = limits
	if c, ok := limits.(io.Closer); ok {
		b.onClose(func() { _ = c.Close() })
	}

	if rdb != nil {
		b.states = auth.NewRedisStateStore(rdb, prefix, nil)
	} else {
		b.states = auth.NewMemoryStateStore(nil)
	}

	log.Info("backends ready",
		logger.Component("authd"),
		slog.String("storage", cfg.StorageDriver),
		slog.String("pending", cfg.Pending.Driver),
		slog.String("ratelimit", cfg.RateLimit.Driver),
	)
	return b, nil
}

// openStorage selects the user store and the OTP store. Durable backends
// keep OTP codes next to users; the memory driver falls back to OTP_DRIVER.
func (b *backends) openStorage(ctx context.Context, cfg appConfig, rdb goredis.UniversalClient, log *slog.Logger) error {
	switch cfg.StorageDriver {
	case "", storageMemory:
		b.users = auth.NewMemoryStorage()
		switch cfg.OTP.Driver {
		case "", otp.DriverMemory:
			b.otps = otp.NewMemoryStorage()
		case otp.DriverRedis:
			if rdb == nil {
				return fmt.Errorf("otp: %w", errRedisRequired)
			}
			b.otps = otp.NewRedisStorage(rdb, cfg.Redis.KeyPrefix, nil)
		default:
			return fmt.Errorf("otp: %w %q", errUnknownDriver, cfg.OTP.Driver)
		}

	case storagePostgres:
		pool, err := pg.Connect(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		b.onClose(pool.Close)
		if err := pg.Migrate(ctx, pool, migrations.FS, cfg.Postgres, log); err != nil {
			return fmt.Errorf("migrate postgres: %w", err)
		}
		b.users = pgstore.NewUserStore(pool)
		otps := pgstore.NewOTPStore(pool)
		b.otps = otps
		b.checks = append(b.checks, httpserver.Check{Name: "postgres", Fn: pg.Healthcheck(pool)})

		sweepCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		b.onClose(cancel)
		go sweepExpiredOTPs(sweepCtx, otps, otpSweepInterval, log)

	case storageMongo:
		db, err := mongo.NewWithDatabase(ctx, cfg.Mongo)
		if err != nil {
			return fmt.Errorf("connect mongo: %w", err)
		}
		b.onClose(func() { _ = db.Client().Disconnect(context.Background()) })
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			return fmt.Errorf("mongo indexes: %w", err)
		}
		b.users = mongostore.NewUserStore(db)
		b.otps = mongostore.NewOTPStore(db)
		b.checks = append(b.checks, httpserver.Check{Name: "mongo", Fn: mongo.Healthcheck(db.Client())})

	default:
		return fmt.Errorf("storage: %w %q", errUnknownDriver, cfg.StorageDriver)
	}
	return nil
}

// sweepExpiredOTPs periodically deletes expired Postgres OTP rows. Mongo
// relies on its TTL index instead.
func sweepExpiredOTPs(ctx context.Context, store *pgstore.OTPStore, every time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := store.DeleteExpired(ctx, now)
			if err != nil {
				log.WarnContext(ctx, "otp sweep failed", logger.Component("authd"), logger.Error(err))
				continue
			}
			if n > 0 {
				log.DebugContext(ctx, "expired otps removed", logger.Component("authd"), slog.Int64("count", n))
			}
		}
	}
}
