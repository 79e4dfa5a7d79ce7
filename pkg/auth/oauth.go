package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dmitrymomot/authcore/pkg/clock"
	"github.com/dmitrymomot/authcore/pkg/logger"
)

// ProviderAdapter hides the provider-specific parts of an OAuth login.
type ProviderAdapter interface {
	ProviderID() string
	AuthURL(state string) (string, error)
	// ResolveProfile exchanges the authorization code and fetches the
	// user's profile. Exchange failures are reported as ErrInvalidCode.
	ResolveProfile(ctx context.Context, code string) (ProviderProfile, error)
}

// ProviderProfile is the provider's view of the user, normalized.
type ProviderProfile struct {
	ProviderUserID string
	Email          string
	EmailVerified  bool
	Name           string
	AvatarURL      string
}

// OAuthService links external identities to users. It only consumes
// provider logins; it never acts as an authorization server.
type OAuthService struct {
	auth         *Service
	states       StateStore
	adapters     map[string]ProviderAdapter
	stateTTL     time.Duration
	verifiedOnly bool
	clock        clock.Clock
	logger       *slog.Logger
}

// OAuthOption configures an OAuthService during construction.
type OAuthOption func(*OAuthService)

// WithProvider registers an adapter under its ProviderID.
func WithProvider(adapter ProviderAdapter) OAuthOption {
	return func(s *OAuthService) {
		if adapter != nil {
			s.adapters[adapter.ProviderID()] = adapter
		}
	}
}

// WithStateTTL configures the TTL for state tokens used in CSRF protection.
func WithStateTTL(ttl time.Duration) OAuthOption {
	return func(s *OAuthService) {
		if ttl > 0 {
			s.stateTTL = ttl
		}
	}
}

// WithVerifiedOnly enforces that only verified provider emails are accepted.
func WithVerifiedOnly(verifiedOnly bool) OAuthOption {
	return func(s *OAuthService) {
		s.verifiedOnly = verifiedOnly
	}
}

func WithOAuthClock(c clock.Clock) OAuthOption {
	return func(s *OAuthService) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithOAuthLogger(l *slog.Logger) OAuthOption {
	return func(s *OAuthService) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewOAuthService constructs the service. Defaults: verifiedOnly = true,
// stateTTL = 10 minutes, logger discards.
func NewOAuthService(authService *Service, states StateStore, opts ...OAuthOption) *OAuthService {
	s := &OAuthService{
		auth:         authService,
		states:       states,
		adapters:     make(map[string]ProviderAdapter),
		stateTTL:     10 * time.Minute,
		verifiedOnly: true,
		clock:        clock.Default,
		logger:       logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Providers lists the configured provider IDs in sorted order.
func (s *OAuthService) Providers() []string {
	ids := make([]string, 0, len(s.adapters))
	for id := range s.adapters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AuthURL starts a login with provider and returns the URL to redirect to.
// The state parameter is bound to the provider and usable once.
func (s *OAuthService) AuthURL(ctx context.Context, provider string) (string, error) {
	adapter, ok := s.adapters[provider]
	if !ok {
		return "", ErrUnknownProvider
	}

	state, err := generateState()
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}

	if err := s.states.Store(ctx, state, provider, s.clock.Now().Add(s.stateTTL)); err != nil {
		return "", fmt.Errorf("failed to store state: %w", err)
	}

	url, err := adapter.AuthURL(state)
	if err != nil {
		return "", fmt.Errorf("failed to build auth url: %w", err)
	}
	return url, nil
}

// Callback completes a provider login and signs the user in, creating a
// password-less user on first sight.
func (s *OAuthService) Callback(ctx context.Context, provider, code, state string) (*Session, error) {
	adapter, ok := s.adapters[provider]
	if !ok {
		return nil, ErrUnknownProvider
	}

	// One-time use prevents replay.
	boundTo, err := s.states.Consume(ctx, state)
	if errors.Is(err, ErrStateNotFound) {
		return nil, ErrInvalidState
	}
	if err != nil {
		return nil, fmt.Errorf("failed to validate state: %w", err)
	}
	if boundTo != provider {
		s.logger.WarnContext(ctx, "oauth state used with another provider",
			logger.Component("oauth"),
			logger.Provider(provider),
		)
		return nil, ErrInvalidState
	}

	profile, err := adapter.ResolveProfile(ctx, code)
	if err != nil {
		if errors.Is(err, ErrInvalidCode) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("failed to resolve provider profile: %w", err)
	}

	if profile.ProviderUserID == "" || profile.Email == "" {
		return nil, ErrInvalidProfile
	}

	// Reject unverified emails to prevent account takeover.
	if s.verifiedOnly && !profile.EmailVerified {
		return nil, ErrUnverifiedEmail
	}

	return s.auth.AuthenticateExternal(ctx, profile.Email, profile.Name, provider)
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
