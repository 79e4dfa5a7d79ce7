package ratelimit

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrymomot/authcore/pkg/clientip"
	"github.com/dmitrymomot/authcore/pkg/logger"
)

// RejectFunc writes the response for a rejected request.
// Retry-After and the X-RateLimit-* headers are already set.
type RejectFunc func(w http.ResponseWriter, r *http.Request, result *Result)

// MiddlewareOption configures middleware behavior.
type MiddlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	action   string
	onReject RejectFunc
	skipFunc func(r *http.Request) bool
	logger   *slog.Logger
	opts     []Option
}

// WithOnLimitReached sets a custom writer for rejected requests.
func WithOnLimitReached(fn RejectFunc) MiddlewareOption {
	return func(c *middlewareConfig) {
		if fn != nil {
			c.onReject = fn
		}
	}
}

// WithSkipFunc sets a function to determine if rate limiting should be skipped.
func WithSkipFunc(fn func(r *http.Request) bool) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.skipFunc = fn
	}
}

// WithLogger logs rejections and store failures.
func WithLogger(l *slog.Logger) MiddlewareOption {
	return func(c *middlewareConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithLimiterOptions passes options to the limiter built by Limit.
func WithLimiterOptions(opts ...Option) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.opts = append(c.opts, opts...)
	}
}

func defaultReject(w http.ResponseWriter, _ *http.Request, _ *Result) {
	http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
}

// Limit wraps a route with a sliding window of limit requests per window,
// scoped to (action, client address). Panics on an invalid configuration
// since it runs at route registration.
func Limit(store Store, action string, limit int, window time.Duration, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := &middlewareConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	limiter, err := NewSlidingWindow(store, limit, window, cfg.opts...)
	if err != nil {
		panic(fmt.Sprintf("ratelimit.Limit(%s): %v", action, err))
	}

	opts = append(opts, withAction(action))
	return Middleware(limiter, Composite(Static(action), ClientIP()), opts...)
}

func withAction(action string) MiddlewareOption {
	return func(c *middlewareConfig) { c.action = action }
}

// Middleware enforces limiter on requests keyed by keyFunc. Store failures
// fail open: the request proceeds and the error is logged.
func Middleware(limiter Limiter, keyFunc KeyFunc, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	if keyFunc == nil {
		panic("ratelimit.Middleware: keyFunc is required")
	}

	cfg := &middlewareConfig{
		onReject: defaultReject,
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.skipFunc != nil && cfg.skipFunc(r) {
				next.ServeHTTP(w, r)
				return
			}

			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			result, err := limiter.Allow(r.Context(), key)
			if err != nil {
				cfg.logger.ErrorContext(r.Context(), "rate limit check failed",
					logger.Component("ratelimit"),
					logger.Action(cfg.action),
					logger.Error(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(RetryAfterSeconds(result)))
				cfg.logger.WarnContext(r.Context(), "rate limit exceeded",
					logger.Component("ratelimit"),
					logger.Action(cfg.action),
					logger.ClientIP(clientip.Resolve(r)),
				)
				cfg.onReject(w, r, result)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RetryAfterSeconds returns the Retry-After value for result, rounded up
// and never below one second.
func RetryAfterSeconds(result *Result) int {
	return max(1, int(math.Ceil(result.RetryAfter().Seconds())))
}
