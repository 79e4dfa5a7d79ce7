package auth

import (
	"context"

	"github.com/dmitrymomot/authcore/pkg/otp"
)

// Notifier delivers one-time codes out of band.
type Notifier interface {
	SendOTP(ctx context.Context, to, code string, purpose otp.Purpose) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, to, code string, purpose otp.Purpose) error

func (f NotifierFunc) SendOTP(ctx context.Context, to, code string, purpose otp.Purpose) error {
	return f(ctx, to, code, purpose)
}
