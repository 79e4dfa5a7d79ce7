package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/authcore/pkg/email/templates"
	"github.com/dmitrymomot/authcore/pkg/logger"
	"github.com/dmitrymomot/authcore/pkg/otp"
)

// Subjects of the one-time code emails.
const (
	SubjectVerifyAccount = "Verify your account"
	SubjectResetPassword = "Reset your password"
)

// OTPMailer delivers one-time codes by email.
type OTPMailer struct {
	sender EmailSender
	ttl    time.Duration
	logger *slog.Logger
}

// OTPMailerOption configures an OTPMailer.
type OTPMailerOption func(*OTPMailer)

// WithCodeTTL sets the lifetime quoted in the message body.
func WithCodeTTL(ttl time.Duration) OTPMailerOption {
	return func(m *OTPMailer) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

func WithLogger(l *slog.Logger) OTPMailerOption {
	return func(m *OTPMailer) {
		if l != nil {
			m.logger = l
		}
	}
}

func NewOTPMailer(sender EmailSender, opts ...OTPMailerOption) *OTPMailer {
	m := &OTPMailer{
		sender: sender,
		ttl:    otp.DefaultTTL,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SendOTP renders and sends the message for purpose.
func (m *OTPMailer) SendOTP(ctx context.Context, to, code string, purpose otp.Purpose) error {
	data := templates.OTPData{Code: code, TTL: m.ttl.String()}
	var subject string

	switch purpose {
	case otp.PurposeEmailVerification:
		subject = SubjectVerifyAccount
		data.Heading = "Confirm your email"
		data.Intro = "Enter this code to finish creating your account:"
	case otp.PurposePasswordReset:
		subject = SubjectResetPassword
		data.Heading = "Password reset"
		data.Intro = "Enter this code to choose a new password:"
	default:
		return fmt.Errorf("%w: %s", otp.ErrInvalidPurpose, purpose)
	}

	body, err := templates.Render(ctx, templates.OTPEmail(data))
	if err != nil {
		return fmt.Errorf("render otp email: %w", err)
	}

	if err := m.sender.SendEmail(ctx, SendEmailParams{
		SendTo:   to,
		Subject:  subject,
		BodyHTML: body,
		Tag:      "otp_" + string(purpose),
	}); err != nil {
		return err
	}

	m.logger.DebugContext(ctx, "otp email sent",
		logger.Component("email"),
		logger.Email(to),
		logger.Purpose(purpose),
	)
	return nil
}
