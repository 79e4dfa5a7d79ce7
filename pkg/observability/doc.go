// Package observability wires error reporting and access logging.
//
// InitSentry configures the global Sentry client from Config; with an empty
// DSN it does nothing and reporting becomes a no-op. NewReporter returns the
// hook the HTTP error handler calls for 5xx responses. AccessLog logs one
// record per request through slog.
package observability
