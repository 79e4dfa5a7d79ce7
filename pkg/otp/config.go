package otp

import "time"

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Config tunes the engine. Driver only applies when the durable store does
// not carry its own OTP table.
type Config struct {
	TTL    time.Duration `env:"OTP_TTL" envDefault:"5m"`
	Driver string        `env:"OTP_DRIVER" envDefault:"memory"`
}
