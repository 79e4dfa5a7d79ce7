package otp

import "errors"

var (
	ErrNotFound       = errors.New("otp: record not found")
	ErrInvalidPurpose = errors.New("otp: invalid purpose")
	ErrEmailRequired  = errors.New("otp: email is required")
	ErrUnknownDriver  = errors.New("otp: unknown storage driver")
)
