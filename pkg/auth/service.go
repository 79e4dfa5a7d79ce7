package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authcore/pkg/clock"
	"github.com/dmitrymomot/authcore/pkg/logger"
	"github.com/dmitrymomot/authcore/pkg/otp"
	"github.com/dmitrymomot/authcore/pkg/pending"
	"github.com/dmitrymomot/authcore/pkg/sanitizer"
	"github.com/dmitrymomot/authcore/pkg/validator"
)

// RegisterInput is the registration form.
type RegisterInput struct {
	Email           string
	Name            string
	Password        string
	ConfirmPassword string
}

// ResetPasswordInput carries the reset code alongside the new password.
type ResetPasswordInput struct {
	Email           string
	OTP             string
	Password        string
	ConfirmPassword string
}

// Service runs the registration, login and password reset flows.
//
// Errors returned to callers are the package sentinels (or
// validator.ValidationErrors) for expected outcomes. Anything else is a
// dependency failure wrapped with context; flow state such as the pending
// registration or an issued code is left in place so the user can retry.
type Service struct {
	storage  Storage
	pending  pending.Store
	otp      *otp.Engine
	tokens   *TokenService
	notifier Notifier
	hasher   Hasher
	clock    clock.Clock
	logger   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithHasher replaces the default bcrypt hasher.
func WithHasher(h Hasher) ServiceOption {
	return func(s *Service) {
		if h != nil {
			s.hasher = h
		}
	}
}

func WithClock(c clock.Clock) ServiceOption {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewService(
	storage Storage,
	pendingStore pending.Store,
	otpEngine *otp.Engine,
	tokens *TokenService,
	notifier Notifier,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		storage:  storage,
		pending:  pendingStore,
		otp:      otpEngine,
		tokens:   tokens,
		notifier: notifier,
		hasher:   NewBcryptHasher(0),
		clock:    clock.Default,
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register validates the form, reserves a pending registration and sends a
// verification code. No user exists until VerifyRegistration succeeds.
func (s *Service) Register(ctx context.Context, in RegisterInput) error {
	email := sanitizer.NormalizeEmail(in.Email)
	name := cleanName(in.Name)

	if err := validator.Apply(
		validator.ValidEmail("email", email),
		validator.RequiredString("name", name),
	); err != nil {
		return err
	}

	exists, err := s.storage.UserExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("check existing user: %w", err)
	}
	if exists {
		return ErrEmailAlreadyExists
	}

	inProgress, err := s.pending.Contains(ctx, email)
	if err != nil {
		return fmt.Errorf("check pending registration: %w", err)
	}
	if inProgress {
		return ErrRegistrationPending
	}

	if err := ValidatePassword(in.Password, in.ConfirmPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	// The reservation decides concurrent registrations for the same email:
	// only the winner goes on to issue a code.
	err = s.pending.Put(ctx, pending.Registration{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    s.clock.Now(),
	})
	if errors.Is(err, pending.ErrAlreadyExists) {
		return ErrRegistrationPending
	}
	if err != nil {
		return fmt.Errorf("store pending registration: %w", err)
	}

	if err := s.sendCode(ctx, email, otp.PurposeEmailVerification); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "registration started",
		logger.Component("auth"),
		logger.Email(email),
	)
	return nil
}

// VerifyRegistration confirms the code and turns the pending registration
// into a user. Of several concurrent calls with the right code exactly one
// creates the user; the others get ErrRegistrationNotFound.
func (s *Service) VerifyRegistration(ctx context.Context, email, code string) (*Session, error) {
	email = sanitizer.NormalizeEmail(email)

	if err := s.checkCode(ctx, email, otp.PurposeEmailVerification, code); err != nil {
		return nil, err
	}

	reg, err := s.pending.Take(ctx, email)
	if errors.Is(err, pending.ErrNotFound) {
		return nil, ErrRegistrationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("take pending registration: %w", err)
	}

	user := &User{
		ID:           uuid.New(),
		Email:        reg.Email,
		Name:         reg.Name,
		PasswordHash: []byte(reg.PasswordHash),
		Provider:     ProviderLocal,
		CreatedAt:    s.clock.Now(),
	}

	if err := s.storage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			return nil, ErrEmailAlreadyExists
		}
		s.restorePending(ctx, reg)
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.clearCode(ctx, email, otp.PurposeEmailVerification)

	token, err := s.tokens.Issue(user.Email, user.Name, user.Provider)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.InfoContext(ctx, "registration verified",
		logger.Component("auth"),
		logger.Email(email),
		logger.UserID(user.ID),
	)
	return &Session{Token: token, User: user}, nil
}

// ResendRegistrationOTP replaces the verification code of a pending
// registration. The earlier code stops working.
func (s *Service) ResendRegistrationOTP(ctx context.Context, email string) error {
	email = sanitizer.NormalizeEmail(email)
	if err := validator.Apply(validator.ValidEmail("email", email)); err != nil {
		return err
	}

	inProgress, err := s.pending.Contains(ctx, email)
	if err != nil {
		return fmt.Errorf("check pending registration: %w", err)
	}
	if !inProgress {
		return ErrRegistrationNotFound
	}

	return s.sendCode(ctx, email, otp.PurposeEmailVerification)
}

// Login authenticates with email and password. Every failure is reported as
// ErrInvalidCredentials; the log records which check failed.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = sanitizer.NormalizeEmail(email)

	user, err := s.storage.GetUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		s.logLoginFailure(ctx, email, "unknown_email")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !user.HasPassword() {
		s.logLoginFailure(ctx, email, "external_identity")
		return nil, ErrInvalidCredentials
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		s.logLoginFailure(ctx, email, "password_mismatch")
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Email, user.Name, user.Provider)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Token: token, User: user}, nil
}

// ForgotPassword sends a password reset code to a registered email.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	return s.sendResetCode(ctx, email)
}

// ResendResetOTP replaces the reset code. The earlier code stops working.
func (s *Service) ResendResetOTP(ctx context.Context, email string) error {
	return s.sendResetCode(ctx, email)
}

// VerifyResetOTP checks the reset code without consuming it, so the client
// can confirm the code before asking for the new password.
func (s *Service) VerifyResetOTP(ctx context.Context, email, code string) error {
	return s.checkCode(ctx, sanitizer.NormalizeEmail(email), otp.PurposePasswordReset, code)
}

// ResetPassword sets a new password. The code is checked again here and
// cleared only after the new hash is stored.
func (s *Service) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	email := sanitizer.NormalizeEmail(in.Email)

	if err := s.checkCode(ctx, email, otp.PurposePasswordReset, in.OTP); err != nil {
		return err
	}

	if err := ValidatePassword(in.Password, in.ConfirmPassword); err != nil {
		return err
	}

	exists, err := s.storage.UserExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return ErrUserNotFound
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.storage.UpdatePasswordHash(ctx, email, hash); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("update password: %w", err)
	}

	s.clearCode(ctx, email, otp.PurposePasswordReset)

	s.logger.InfoContext(ctx, "password reset",
		logger.Component("auth"),
		logger.Email(email),
	)
	return nil
}

// AuthenticateExternal signs in a user whose email was asserted by an
// external provider, creating the user without a password on first sight.
// It never touches codes or pending registrations.
func (s *Service) AuthenticateExternal(ctx context.Context, email, name, provider string) (*Session, error) {
	email = sanitizer.NormalizeEmail(email)
	if err := validator.Apply(validator.ValidEmail("email", email)); err != nil {
		return nil, err
	}

	user, err := s.storage.GetUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		user, err = s.createExternalUser(ctx, email, name, provider)
	}
	if err != nil {
		return nil, err
	}

	if user.Name != "" {
		name = user.Name
	}
	token, err := s.tokens.Issue(user.Email, name, provider)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.InfoContext(ctx, "external authentication",
		logger.Component("auth"),
		logger.Email(email),
		logger.Provider(provider),
	)
	return &Session{Token: token, User: user}, nil
}

// ValidateToken returns the identity of a token's bearer or ErrUnauthorized.
func (s *Service) ValidateToken(ctx context.Context, token string) (Identity, error) {
	return s.tokens.Validate(ctx, token)
}

// maxNameLength bounds display names in runes.
const maxNameLength = 100

func cleanName(name string) string {
	name = sanitizer.Apply(name, sanitizer.RemoveControlChars, sanitizer.SingleLine, sanitizer.Trim)
	return sanitizer.MaxLength(name, maxNameLength)
}

func (s *Service) createExternalUser(ctx context.Context, email, name, provider string) (*User, error) {
	user := &User{
		ID:        uuid.New(),
		Email:     email,
		Name:      cleanName(name),
		Provider:  provider,
		CreatedAt: s.clock.Now(),
	}

	err := s.storage.CreateUser(ctx, user)
	if errors.Is(err, ErrEmailAlreadyExists) {
		// Lost a race with another first sign-in for the same email.
		existing, err := s.storage.GetUserByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("get user: %w", err)
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *Service) sendResetCode(ctx context.Context, email string) error {
	email = sanitizer.NormalizeEmail(email)
	if err := validator.Apply(validator.ValidEmail("email", email)); err != nil {
		return err
	}

	exists, err := s.storage.UserExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return ErrUserNotFound
	}

	return s.sendCode(ctx, email, otp.PurposePasswordReset)
}

// sendCode issues a fresh code and delivers it. A delivery failure leaves
// the issued code in place.
func (s *Service) sendCode(ctx context.Context, email string, purpose otp.Purpose) error {
	code, err := s.otp.Issue(ctx, email, purpose)
	if err != nil {
		return fmt.Errorf("issue otp: %w", err)
	}
	if err := s.notifier.SendOTP(ctx, email, code, purpose); err != nil {
		s.logger.ErrorContext(ctx, "otp delivery failed",
			logger.Component("auth"),
			logger.Email(email),
			logger.Purpose(purpose),
			logger.Error(err),
		)
		return fmt.Errorf("send otp: %w", err)
	}
	return nil
}

func (s *Service) checkCode(ctx context.Context, email string, purpose otp.Purpose, code string) error {
	if email == "" || code == "" {
		return ErrInvalidOTP
	}
	ok, err := s.otp.Verify(ctx, email, purpose, code)
	if err != nil {
		return fmt.Errorf("verify otp: %w", err)
	}
	if !ok {
		return ErrInvalidOTP
	}
	return nil
}

func (s *Service) clearCode(ctx context.Context, email string, purpose otp.Purpose) {
	if err := s.otp.Clear(ctx, email, purpose); err != nil {
		s.logger.WarnContext(ctx, "failed to clear otp",
			logger.Component("auth"),
			logger.Email(email),
			logger.Purpose(purpose),
			logger.Error(err),
		)
	}
}

func (s *Service) restorePending(ctx context.Context, reg pending.Registration) {
	if err := s.pending.Put(ctx, reg); err != nil {
		s.logger.ErrorContext(ctx, "failed to restore pending registration",
			logger.Component("auth"),
			logger.Email(reg.Email),
			logger.Error(err),
		)
	}
}

func (s *Service) logLoginFailure(ctx context.Context, email, reason string) {
	s.logger.InfoContext(ctx, "login failed",
		logger.Component("auth"),
		logger.Email(email),
		logger.Reason(reason),
	)
}
