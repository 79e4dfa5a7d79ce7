package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/authcore/pkg/clientip"
	"github.com/dmitrymomot/authcore/pkg/requestid"
)

type Mountable interface {
	Handle() http.Handler
}

// RouterOptions configures what the account router serves.
type RouterOptions struct {
	// Auth is mounted under /api/auth.
	Auth Mountable

	// Liveness and Readiness are served under /health when set.
	Liveness  http.Handler
	Readiness http.Handler

	// Middlewares run after request id assignment and panic recovery.
	Middlewares []func(http.Handler) http.Handler
}

// Router builds the top-level router of the service.
//
//	authSvc := account.NewAuthService(cfg, authService, tokens, limits,
//		account.WithOAuth(oauthService),
//	)
//	r := account.Router(account.RouterOptions{
//		Auth:      authSvc,
//		Liveness:  httpserver.LivenessHandler(),
//		Readiness: httpserver.ReadinessHandler(log, checks),
//	})
func Router(opts RouterOptions) chi.Router {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(clientip.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(opts.Middlewares...)

	r.Route("/health", func(h chi.Router) {
		if opts.Liveness != nil {
			h.Method(http.MethodGet, "/live", opts.Liveness)
		}
		if opts.Readiness != nil {
			h.Method(http.MethodGet, "/ready", opts.Readiness)
		}
	})

	if opts.Auth != nil {
		r.Mount("/api/auth", opts.Auth.Handle())
	}

	return r
}
