package auth

import "errors"

// General authentication errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
)

// Registration and OTP errors
var (
	ErrRegistrationPending  = errors.New("registration already in progress for this email")
	ErrRegistrationNotFound = errors.New("no registration in progress for this email")
	ErrInvalidOTP           = errors.New("invalid or expired otp")
)

// Password-specific errors
var (
	ErrPasswordPolicy = errors.New("password does not meet security requirements")
)

// Configuration errors
var (
	ErrMissingSecret = errors.New("jwt secret is required")
)

// OAuth-specific errors
var (
	ErrInvalidState    = errors.New("invalid OAuth state")
	ErrStateNotFound   = errors.New("OAuth state not found or expired")
	ErrInvalidCode     = errors.New("invalid OAuth code")
	ErrUnverifiedEmail = errors.New("email not verified by provider")
	ErrNoPrimaryEmail  = errors.New("no primary email from provider")
	ErrUnknownProvider = errors.New("unknown OAuth provider")
	ErrInvalidProfile  = errors.New("invalid provider profile")
)
