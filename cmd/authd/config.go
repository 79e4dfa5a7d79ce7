package main

import (
	"github.com/dmitrymomot/authcore/modules/account"
	"github.com/dmitrymomot/authcore/pkg/auth"
	"github.com/dmitrymomot/authcore/pkg/email"
	"github.com/dmitrymomot/authcore/pkg/httpserver"
	"github.com/dmitrymomot/authcore/pkg/mongo"
	"github.com/dmitrymomot/authcore/pkg/observability"
	"github.com/dmitrymomot/authcore/pkg/otp"
	"github.com/dmitrymomot/authcore/pkg/pending"
	"github.com/dmitrymomot/authcore/pkg/pg"
	"github.com/dmitrymomot/authcore/pkg/ratelimit"
	"github.com/dmitrymomot/authcore/pkg/redis"
)

// Storage drivers for users and, where the backend has one, OTP codes.
const (
	storageMemory   = "memory"
	storagePostgres = "postgres"
	storageMongo    = "mongo"
)

type appConfig struct {
	Env           string `env:"APP_ENV" envDefault:"development"`
	Name          string `env:"APP_NAME" envDefault:"authcore"`
	Release       string `env:"APP_RELEASE"`
	LogLevel      string `env:"LOG_LEVEL"`
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"memory"`

	HTTP          httpserver.Config
	Auth          auth.Config
	Account       account.Config
	OTP           otp.Config
	Pending       pending.Config
	RateLimit     ratelimit.Config
	Email         email.Config
	Google        auth.GoogleOAuthConfig
	GitHub        auth.GitHubOAuthConfig
	Redis         redis.Config
	Postgres      pg.Config
	Mongo         mongo.Config
	Observability observability.Config
}

// needsRedis reports whether any selected driver keeps its state in Redis.
func (c appConfig) needsRedis() bool {
	return c.RateLimit.Driver == ratelimit.DriverRedis ||
		c.Pending.Driver == pending.DriverRedis ||
		(c.memoryStorage() && c.OTP.Driver == otp.DriverRedis)
}

// memoryStorage reports whether users live in process memory. A blank
// STORAGE_DRIVER means memory.
func (c appConfig) memoryStorage() bool {
	return c.StorageDriver == "" || c.StorageDriver == storageMemory
}
