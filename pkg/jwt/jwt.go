package jwt

import (
	"errors"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/dmitrymomot/authcore/pkg/clock"
)

// MinKeyLength is the shortest accepted HMAC key.
const MinKeyLength = 32

// RegisteredClaims are the RFC 7519 registered claims; embed them in
// application claims.
type RegisteredClaims = gojwt.RegisteredClaims

// Claims is implemented by every claims type the service can sign or parse.
type Claims = gojwt.Claims

// NumericDate converts a time to a claims timestamp.
var NumericDate = gojwt.NewNumericDate

// Service signs and parses HS256 tokens with a symmetric key.
// It holds no mutable state and is safe for concurrent use.
type Service struct {
	signingKey []byte
	clock      clock.Clock
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used to validate exp/nbf/iat.
func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// New creates a service with the provided signing key.
func New(signingKey []byte, opts ...Option) (*Service, error) {
	if len(signingKey) == 0 {
		return nil, ErrMissingSigningKey
	}
	if len(signingKey) < MinKeyLength {
		return nil, ErrInvalidSigningKey
	}

	s := &Service{signingKey: signingKey, clock: clock.Default}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewFromString creates a service from a string key.
func NewFromString(signingKey string, opts ...Option) (*Service, error) {
	return New([]byte(signingKey), opts...)
}

// Generate signs claims with HS256.
func (s *Service) Generate(claims Claims) (string, error) {
	if claims == nil {
		return "", ErrMissingClaims
	}
	return gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(s.signingKey)
}

// Parse verifies tokenString and decodes it into claims. Tokens without an
// exp claim are rejected. The returned error wraps one of ErrMalformedToken,
// ErrInvalidSignature, ErrExpiredToken or ErrInvalidToken together with the
// underlying library error.
func (s *Service) Parse(tokenString string, claims Claims) error {
	if claims == nil {
		return ErrMissingClaims
	}
	if tokenString == "" {
		return ErrMissingToken
	}

	_, err := gojwt.ParseWithClaims(tokenString, claims, s.keyFunc,
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithTimeFunc(s.clock.Now),
		gojwt.WithExpirationRequired(),
		gojwt.WithIssuedAt(),
	)
	if err != nil {
		return classify(err)
	}
	return nil
}

func (s *Service) keyFunc(t *gojwt.Token) (any, error) {
	if _, ok := t.Method.(*gojwt.SigningMethodHMAC); !ok {
		return nil, ErrUnexpectedSigningAlg
	}
	return s.signingKey, nil
}

// classify maps library errors onto the package sentinels.
func classify(err error) error {
	switch {
	case errors.Is(err, gojwt.ErrTokenMalformed):
		return errors.Join(ErrMalformedToken, err)
	case errors.Is(err, gojwt.ErrTokenSignatureInvalid), errors.Is(err, gojwt.ErrTokenUnverifiable):
		return errors.Join(ErrInvalidSignature, err)
	case errors.Is(err, gojwt.ErrTokenExpired):
		return errors.Join(ErrExpiredToken, err)
	default:
		return errors.Join(ErrInvalidToken, err)
	}
}

// Reason returns a short label for a Parse error, for logs.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingToken):
		return "missing"
	case errors.Is(err, ErrMalformedToken):
		return "malformed"
	case errors.Is(err, ErrInvalidSignature):
		return "bad_signature"
	case errors.Is(err, ErrExpiredToken):
		return "expired"
	default:
		return "invalid"
	}
}
