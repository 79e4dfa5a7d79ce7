package otp

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/authcore/pkg/clock"
	"github.com/dmitrymomot/authcore/pkg/logger"
)

// DefaultTTL is how long an issued code stays valid.
const DefaultTTL = 5 * time.Minute

// Engine issues and verifies one-time codes scoped by (email, purpose).
type Engine struct {
	storage  Storage
	ttl      time.Duration
	clock    clock.Clock
	generate Generator
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithTTL overrides the code lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		if ttl > 0 {
			e.ttl = ttl
		}
	}
}

// WithClock overrides the time source.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithGenerator overrides the code generator.
func WithGenerator(g Generator) Option {
	return func(e *Engine) {
		if g != nil {
			e.generate = g
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an engine backed by storage.
func NewEngine(storage Storage, opts ...Option) *Engine {
	e := &Engine{
		storage:  storage,
		ttl:      DefaultTTL,
		clock:    clock.Default,
		generate: GenerateCode,
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewEngineFromConfig creates an engine using cfg.TTL.
func NewEngineFromConfig(cfg Config, storage Storage, opts ...Option) *Engine {
	return NewEngine(storage, append([]Option{WithTTL(cfg.TTL)}, opts...)...)
}

// Issue generates a fresh code for (email, purpose), replacing any earlier
// one, and returns it for delivery. Concurrent calls leave exactly one live
// code: the last one saved.
func (e *Engine) Issue(ctx context.Context, email string, purpose Purpose) (string, error) {
	if err := validate(email, purpose); err != nil {
		return "", err
	}

	code, err := e.generate()
	if err != nil {
		return "", err
	}

	rec := Record{
		Email:     email,
		Purpose:   purpose,
		Code:      code,
		ExpiresAt: e.clock.Now().Add(e.ttl),
	}
	if err := e.storage.Save(ctx, rec); err != nil {
		return "", fmt.Errorf("otp: save: %w", err)
	}

	e.logger.DebugContext(ctx, "otp issued",
		logger.Component("otp"),
		logger.Email(email),
		logger.Purpose(purpose),
	)

	return code, nil
}

// Verify reports whether candidate matches the live code for (email, purpose).
// It never consumes the code; callers Clear it once the flow completes.
func (e *Engine) Verify(ctx context.Context, email string, purpose Purpose, candidate string) (bool, error) {
	if err := validate(email, purpose); err != nil {
		return false, err
	}

	rec, err := e.storage.Find(ctx, email, purpose)
	if errors.Is(err, ErrNotFound) {
		e.logFailure(ctx, email, purpose, "no_record")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("otp: find: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(rec.Code), []byte(candidate)) != 1 {
		e.logFailure(ctx, email, purpose, "mismatch")
		return false, nil
	}
	if rec.Expired(e.clock.Now()) {
		e.logFailure(ctx, email, purpose, "expired")
		return false, nil
	}

	return true, nil
}

// Clear removes the code for (email, purpose). Safe to call when none exists.
func (e *Engine) Clear(ctx context.Context, email string, purpose Purpose) error {
	if err := validate(email, purpose); err != nil {
		return err
	}
	if err := e.storage.Delete(ctx, email, purpose); err != nil {
		return fmt.Errorf("otp: delete: %w", err)
	}
	return nil
}

func (e *Engine) logFailure(ctx context.Context, email string, purpose Purpose, reason string) {
	e.logger.DebugContext(ctx, "otp verification failed",
		logger.Component("otp"),
		logger.Email(email),
		logger.Purpose(purpose),
		logger.Reason(reason),
	)
}

func validate(email string, purpose Purpose) error {
	if email == "" {
		return ErrEmailRequired
	}
	if !purpose.Valid() {
		return ErrInvalidPurpose
	}
	return nil
}
