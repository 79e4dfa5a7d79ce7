// Package pending holds registrations that passed intake checks but are
// waiting for email verification. Nothing here is a user yet: the
// orchestrator turns an entry into a user once the OTP is confirmed.
package pending

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("pending: registration not found")
	ErrAlreadyExists = errors.New("pending: registration already exists")
	ErrUnknownDriver = errors.New("pending: unknown store driver")
)

// Registration is the payload captured at intake. The password is already
// hashed; the raw value never leaves the request.
type Registration struct {
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store keeps at most one registration per email.
type Store interface {
	// Put stores reg unless one already exists for the email, in which
	// case it returns ErrAlreadyExists. The check and insert are atomic.
	Put(ctx context.Context, reg Registration) error

	// Get returns the registration or ErrNotFound.
	Get(ctx context.Context, email string) (Registration, error)

	// Take atomically returns and removes the registration. Of several
	// concurrent callers exactly one receives it; the rest get ErrNotFound.
	Take(ctx context.Context, email string) (Registration, error)

	// Remove deletes the registration. Missing entries are not an error.
	Remove(ctx context.Context, email string) error

	// Contains reports whether a live registration exists.
	Contains(ctx context.Context, email string) (bool, error)
}

// Store drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Config tunes the pending store. TTL bounds how long an unverified
// registration blocks a new attempt for the same email.
type Config struct {
	Driver string        `env:"PENDING_DRIVER" envDefault:"memory"`
	TTL    time.Duration `env:"PENDING_TTL" envDefault:"30m"`
}
