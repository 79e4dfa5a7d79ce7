package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/authcore/pkg/clock"
	"github.com/dmitrymomot/authcore/pkg/jwt"
	"github.com/dmitrymomot/authcore/pkg/logger"
)

// DefaultTokenTTL is the lifetime of an issued token.
const DefaultTokenTTL = 24 * time.Hour

// Claims is the token payload. The subject is the user's email.
type Claims struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
	jwt.RegisteredClaims
}

// Identity converts validated claims.
func (c *Claims) Identity() Identity {
	id := Identity{
		Email:    c.Subject,
		Name:     c.Name,
		Provider: c.Provider,
	}
	if c.ExpiresAt != nil {
		id.ExpiresAt = c.ExpiresAt.Time.UTC()
	}
	return id
}

// TokenService issues and validates stateless access tokens. Tokens are not
// revocable: a token stays valid until it expires, even after the user's
// password changes.
type TokenService struct {
	signer *jwt.Service
	ttl    time.Duration
	clock  clock.Clock
	logger *slog.Logger
}

// TokenOption configures a TokenService.
type TokenOption func(*TokenService)

func WithTokenTTL(ttl time.Duration) TokenOption {
	return func(s *TokenService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithTokenClock sets the clock used for iat/exp. The signer validates with
// its own clock; pass the same one to both.
func WithTokenClock(c clock.Clock) TokenOption {
	return func(s *TokenService) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithTokenLogger(l *slog.Logger) TokenOption {
	return func(s *TokenService) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewTokenService(signer *jwt.Service, opts ...TokenOption) *TokenService {
	s := &TokenService{
		signer: signer,
		ttl:    DefaultTokenTTL,
		clock:  clock.Default,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue signs a token for the given identity.
func (s *TokenService) Issue(email, name, provider string) (string, error) {
	now := s.clock.Now()
	return s.signer.Generate(&Claims{
		Name:     name,
		Provider: provider,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NumericDate(now),
			ExpiresAt: jwt.NumericDate(now.Add(s.ttl)),
		},
	})
}

// Validate returns the identity asserted by token. Every failure collapses to
// ErrUnauthorized; the precise reason is logged.
func (s *TokenService) Validate(ctx context.Context, token string) (Identity, error) {
	var claims Claims
	if err := s.signer.Parse(token, &claims); err != nil {
		s.logRejected(ctx, err)
		return Identity{}, ErrUnauthorized
	}
	if claims.Subject == "" {
		s.logger.DebugContext(ctx, "token rejected",
			logger.Component("token"),
			logger.Reason("missing_subject"),
		)
		return Identity{}, ErrUnauthorized
	}
	return claims.Identity(), nil
}

// Middleware authenticates requests by bearer token and stores the claims in
// the request context; read them back with IdentityFromContext. onError
// writes the rejection response.
func (s *TokenService) Middleware(onError func(w http.ResponseWriter, r *http.Request, err error)) func(http.Handler) http.Handler {
	return jwt.MiddlewareWithConfig(jwt.MiddlewareConfig{
		Service:   s.signer,
		Extractor: jwt.BearerTokenExtractor,
		NewClaims: func() jwt.Claims { return &Claims{} },
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			s.logRejected(r.Context(), err)
			if onError != nil {
				onError(w, r, errors.Join(ErrUnauthorized, err))
				return
			}
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		},
	})
}

// IdentityFromContext returns the identity stored by Middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	claims, ok := jwt.GetClaims[*Claims](ctx)
	if !ok || claims == nil || claims.Subject == "" {
		return Identity{}, false
	}
	return claims.Identity(), true
}

func (s *TokenService) logRejected(ctx context.Context, err error) {
	s.logger.DebugContext(ctx, "token rejected",
		logger.Component("token"),
		logger.Reason(jwt.Reason(err)),
	)
}
