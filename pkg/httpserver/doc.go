// Package httpserver runs an http.Handler with graceful shutdown and serves
// the liveness and readiness probes.
//
// Run blocks until its context is cancelled, SIGINT/SIGTERM arrives or the
// listener fails, then shuts down within the configured timeout. Listen
// failures wrap ErrStart and shutdown failures wrap ErrShutdown.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// LivenessHandler always answers 200. ReadinessHandler runs a list of named
// Check probes (Redis PING, Postgres and Mongo pings) and answers 503 when
// any of them fails.
package httpserver
