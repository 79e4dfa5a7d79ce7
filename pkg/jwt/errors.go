package jwt

import "errors"

var (
	ErrInvalidToken         = errors.New("jwt: invalid token")
	ErrMalformedToken       = errors.New("jwt: malformed token")
	ErrExpiredToken         = errors.New("jwt: token is expired")
	ErrInvalidSignature     = errors.New("jwt: invalid signature")
	ErrMissingSigningKey    = errors.New("jwt: missing signing key")
	ErrInvalidSigningKey    = errors.New("jwt: signing key must be at least 32 bytes")
	ErrMissingClaims        = errors.New("jwt: missing claims")
	ErrMissingToken         = errors.New("jwt: missing token")
	ErrUnexpectedSigningAlg = errors.New("jwt: unexpected signing method")
)
