package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/authcore/pkg/logger"
	"github.com/dmitrymomot/authcore/pkg/requestid"
)

// ErrorHandlerConfig configures the default error handler
type ErrorHandlerConfig struct {
	// Classify translates domain errors into HTTPError or validation errors
	// before rendering. Errors it returns unchanged fall through to 500.
	Classify func(error) error

	// Report receives every error that renders as a 5xx.
	Report func(ctx context.Context, err error)
}

// NewErrorHandler returns an ErrorHandler that logs the error and renders it
// with JSONError. Client errors log at warn, server errors at error.
func NewErrorHandler(log *slog.Logger, cfg ErrorHandlerConfig) ErrorHandler[Context] {
	if log == nil {
		log = logger.Discard()
	}

	return func(ctx Context, err error) {
		r := ctx.Request()
		rendered := err
		if cfg.Classify != nil {
			rendered = cfg.Classify(err)
		}

		status, body := ErrorToBody(rendered)

		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
			if cfg.Report != nil {
				cfg.Report(r.Context(), err)
			}
		}

		log.LogAttrs(r.Context(), level, "request error",
			logger.RequestID(requestid.FromContext(r.Context())),
			logger.Error(err),
			slog.Int("status_code", status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Component("error_handler"),
		)

		if renderErr := (jsonResponse{status: status, body: body}).Render(ctx.ResponseWriter(), r); renderErr != nil {
			log.ErrorContext(r.Context(), "failed to render error response",
				logger.Error(renderErr),
				logger.Component("error_handler"),
			)
		}
	}
}
