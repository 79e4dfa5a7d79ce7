// Package jwt signs and validates HS256 JSON Web Tokens on top of
// github.com/golang-jwt/jwt/v5.
//
// Service is stateless apart from the signing key, so a single instance is
// shared across goroutines. Parse rejects tokens without an expiry and
// reports why a token failed through wrapped sentinels
// (ErrMalformedToken, ErrInvalidSignature, ErrExpiredToken); Reason turns
// them into short labels for logs.
//
//	svc, err := jwt.NewFromString(secret)
//	token, err := svc.Generate(claims)
//	err = svc.Parse(token, &claims)
//
// Middleware extracts a bearer token, validates it and stores the token and
// its claims in the request context; GetClaims reads them back with a type
// parameter.
package jwt
