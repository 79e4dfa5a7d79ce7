package ratelimit

import (
	"context"
	"time"
)

// Result contains the result of a rate limit check.
type Result struct {
	// Allowed indicates whether the request is allowed.
	Allowed bool

	// Limit is the maximum number of requests allowed in the window.
	Limit int

	// Remaining is the number of requests remaining in the current window.
	Remaining int

	// Window is the length of the sliding window.
	Window time.Duration

	// ResetAt is the time when the window fully drains if no further requests arrive.
	ResetAt time.Time
}

// RetryAfter returns the back-off hint for a rejected request: the full
// window length. Returns 0 if the request was allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	return r.Window
}

// Limiter defines the interface for rate limiting implementations.
type Limiter interface {
	// Allow checks if a single request is allowed for the given key.
	// If allowed, the request is recorded.
	Allow(ctx context.Context, key string) (*Result, error)

	// AllowN checks if n requests are allowed for the given key.
	AllowN(ctx context.Context, key string, n int) (*Result, error)

	// Status returns the current rate limit status for the given key
	// without recording anything.
	Status(ctx context.Context, key string) (*Result, error)

	// Reset resets the rate limit for the given key.
	Reset(ctx context.Context, key string) error
}

// Store keeps the per-key timestamp history of a sliding window.
type Store interface {
	// RecordTimestampIfAllowed drops timestamps older than now-window, then
	// records n copies of now if the remaining count plus n fits within limit.
	// The check and the write are atomic per key. Returns whether the
	// timestamps were recorded and the count after the decision.
	RecordTimestampIfAllowed(ctx context.Context, key string, now time.Time, window time.Duration, limit int, n int) (bool, int64, error)

	// CountInWindow returns the number of timestamps within window of now.
	CountInWindow(ctx context.Context, key string, now time.Time, window time.Duration) (int64, error)

	// Delete removes the history for the given key.
	Delete(ctx context.Context, key string) error
}
