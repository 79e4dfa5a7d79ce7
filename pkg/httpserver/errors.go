package httpserver

import "errors"

var (
	// ErrStart wraps listener failures returned by Run.
	ErrStart = errors.New("httpserver: listen failed")
	// ErrShutdown wraps failures to drain connections within ShutdownTimeout.
	ErrShutdown = errors.New("httpserver: graceful shutdown failed")
)
