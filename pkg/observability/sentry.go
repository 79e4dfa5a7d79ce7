package observability

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/dmitrymomot/authcore/pkg/requestid"
)

// Config holds the error tracking settings.
type Config struct {
	SentryDSN        string        `env:"SENTRY_DSN"`
	SentrySampleRate float64       `env:"SENTRY_SAMPLE_RATE" envDefault:"1.0"`
	FlushTimeout     time.Duration `env:"SENTRY_FLUSH_TIMEOUT" envDefault:"2s"`
}

// InitSentry initialises the global client and returns a function that
// flushes buffered events; call it before exit. Without a DSN both are
// no-ops.
func InitSentry(cfg Config, environment, release string) (flush func(), err error) {
	if cfg.SentryDSN == "" {
		return func() {}, nil
	}
	err = sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      environment,
		Release:          release,
		SampleRate:       cfg.SentrySampleRate,
		AttachStacktrace: true,
	})
	if err != nil {
		return nil, err
	}
	timeout := cfg.FlushTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return func() { sentry.Flush(timeout) }, nil
}

// NewReporter returns an error hook bound to hub, or to the global hub when
// hub is nil. Events carry the request id as a tag.
func NewReporter(hub *sentry.Hub) func(ctx context.Context, err error) {
	return func(ctx context.Context, err error) {
		if err == nil {
			return
		}
		h := hub
		if h == nil {
			h = sentry.GetHubFromContext(ctx)
		}
		if h == nil {
			h = sentry.CurrentHub()
		}
		h.WithScope(func(scope *sentry.Scope) {
			if id := requestid.FromContext(ctx); id != "" {
				scope.SetTag("request_id", id)
			}
			h.CaptureException(err)
		})
	}
}
