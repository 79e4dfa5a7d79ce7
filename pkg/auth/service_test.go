package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/authcore/pkg/clock"
	"github.com/dmitrymomot/authcore/pkg/jwt"
	"github.com/dmitrymomot/authcore/pkg/otp"
	"github.com/dmitrymomot/authcore/pkg/pending"
	"github.com/dmitrymomot/authcore/pkg/validator"
)

var epoch = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

const testSecret = "0123456789abcdef0123456789abcdef"

type fixture struct {
	svc     *Service
	users   *MemoryStorage
	pending *pending.MemoryStore
	otp     *otp.Engine
	tokens  *TokenService
	clock   *clock.Mock
	outbox  *outbox
}

// newFixture wires a Service over in-memory stores. storage and notifier
// default to MemoryStorage and an outbox when nil.
func newFixture(t *testing.T, storage Storage, notifier Notifier) *fixture {
	t.Helper()

	clk := clock.NewMock(epoch)
	f := &fixture{
		clock:   clk,
		outbox:  newOutbox(),
		pending: pending.NewMemoryStore(30*time.Minute, pending.WithClock(clk)),
		otp:     otp.NewEngine(otp.NewMemoryStorage(), otp.WithClock(clk)),
	}

	signer, err := jwt.NewFromString(testSecret, jwt.WithClock(clk))
	require.NoError(t, err)
	f.tokens = NewTokenService(signer, WithTokenClock(clk))

	if storage == nil {
		f.users = NewMemoryStorage()
		storage = f.users
	}
	if notifier == nil {
		notifier = f.outbox
	}

	f.svc = NewService(storage, f.pending, f.otp, f.tokens, notifier,
		WithHasher(NewBcryptHasher(bcrypt.MinCost)),
		WithClock(clk),
	)
	return f
}

func validRegistration(email string) RegisterInput {
	return RegisterInput{
		Email:           email,
		Name:            "A",
		Password:        "Abcdef1!",
		ConfirmPassword: "Abcdef1!",
	}
}

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

// register runs Register and VerifyRegistration for email.
func (f *fixture) register(t *testing.T, email string) *Session {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.svc.Register(ctx, validRegistration(email)))
	session, err := f.svc.VerifyRegistration(ctx, email, f.outbox.code(email, otp.PurposeEmailVerification))
	require.NoError(t, err)
	return session
}

func TestService_RegistrationScenario(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, nil, nil)

	require.NoError(t, f.svc.Register(ctx, validRegistration("a@x.com")))
	code := f.outbox.code("a@x.com", otp.PurposeEmailVerification)
	require.Len(t, code, otp.CodeLength)

	_, err := f.svc.VerifyRegistration(ctx, "a@x.com", wrongCode(code))
	assert.ErrorIs(t, err, ErrInvalidOTP)
	inProgress, err := f.pending.Contains(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, inProgress, "wrong code must not drop the pending registration")

	session, err := f.svc.VerifyRegistration(ctx, "a@x.com", code)
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
	assert.Equal(t, "a@x.com", session.User.Email)
	assert.Equal(t, ProviderLocal, session.User.Provider)

	inProgress, err = f.pending.Contains(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, inProgress)

	ok, err := f.otp.Verify(ctx, "a@x.com", otp.PurposeEmailVerification, code)
	require.NoError(t, err)
	assert.False(t, ok, "code must be cleared after verification")

	id, err := f.svc.ValidateToken(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, Identity{
		Email:     "a@x.com",
		Name:      "A",
		Provider:  ProviderLocal,
		ExpiresAt: epoch.Add(DefaultTokenTTL),
	}, id)

	_, err = f.svc.Login(ctx, "a@x.com", "Abcdef1!")
	assert.NoError(t, err)
}

func TestService_Register(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("checks run in order", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil, nil)
		f.register(t, "taken@x.com")
		require.NoError(t, f.svc.Register(ctx, validRegistration("pending@x.com")))

		weak := func(email string) RegisterInput {
			in := validRegistration(email)
			in.Password, in.ConfirmPassword = "weak", "weak"
			return in
		}

		tests := []struct {
			name  string
			input RegisterInput
			check func(t *testing.T, err error)
		}{
			{
				name:  "invalid email before anything else",
				input: weak("not-an-email"),
				check: func(t *testing.T, err error) {
					assert.True(t, validator.ExtractValidationErrors(err).Has("email"))
				},
			},
			{
				name:  "existing user before password policy",
				input: weak("taken@x.com"),
				check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrEmailAlreadyExists) },
			},
			{
				name:  "pending registration before password policy",
				input: weak("pending@x.com"),
				check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrRegistrationPending) },
			},
			{
				name:  "password policy",
				input: weak("fresh@x.com"),
				check: func(t *testing.T, err error) {
					assert.ErrorIs(t, err, ErrPasswordPolicy)
					assert.Equal(t, "password must be at least 8 characters long",
						validator.ExtractValidationErrors(err).First())
				},
			},
			{
				name: "name is required",
				input: RegisterInput{
					Email: "noname@x.com", Name: "  ",
					Password: "Abcdef1!", ConfirmPassword: "Abcdef1!",
				},
				check: func(t *testing.T, err error) {
					assert.True(t, validator.ExtractValidationErrors(err).Has("name"))
				},
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := f.svc.Register(ctx, tt.input)
				require.Error(t, err)
				tt.check(t, err)
			})
		}
	})

	t.Run("email is normalized", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil, nil)
		require.NoError(t, f.svc.Register(ctx, validRegistration("  A@X.com ")))

		ok, err := f.pending.Contains(ctx, "a@x.com")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.NotEmpty(t, f.outbox.code("a@x.com", otp.PurposeEmailVerification))
	})

	t.Run("password is stored hashed", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil, nil)
		require.NoError(t, f.svc.Register(ctx, validRegistration("a@x.com")))

		reg, err := f.pending.Get(ctx, "a@x.com")
		require.NoError(t, err)
		assert.NotEqual(t, "Abcdef1!", reg.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(reg.PasswordHash), []byte("Abcdef1!")))
	})

	t.Run("concurrent registrations leave exactly one pending entry", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil, nil)

		const workers = 16
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
			conflicts int
		)
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := f.svc.Register(ctx, validRegistration("race@x.com"))
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					successes++
				case errors.Is(err, ErrRegistrationPending):
					conflicts++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, successes)
		assert.Equal(t, workers-1, conflicts)
		assert.Equal(t, 1, f.pending.Len())
		assert.Equal(t, 1, f.outbox.count())
	})

	t.Run("delivery failure keeps the registration resumable", func(t *testing.T) {
		t.Parallel()
		notifier := &MockNotifier{}
		notifier.On("SendOTP", mock.Anything, "a@x.com", mock.AnythingOfType("string"), otp.PurposeEmailVerification).
			Return(errors.New("smtp down")).Once()
		notifier.On("SendOTP", mock.Anything, "a@x.com", mock.AnythingOfType("string"), otp.PurposeEmailVerification).
			Return(nil).Once()
		f := newFixture(t, nil, notifier)

		err := f.svc.Register(ctx, validRegistration("a@x.com"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrRegistrationPending)

		ok, err := f.pending.Contains(ctx, "a@x.com")
		require.NoError(t, err)
		assert.True(t, ok)

		require.NoError(t, f.svc.ResendRegistrationOTP(ctx, "a@x.com"))
		notifier.AssertExpectations(t)
	})
}

func TestService_VerifyRegistration(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("expired code", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil, nil)
		require.NoError(t, f.svc.Register(ctx, validRegistration("a@x.com")))
		code := f.outbox.code("a@x.com", otp.PurposeEmailVerification)

		f.clock.Advance(otp.DefaultTTL)
		_, err := f.svc.VerifyRegistration(ctx, "a@x.com", code)
		assert.ErrorIs(t, err, ErrInvalidOTP)
	})

	t.Run("code without pending registration", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil, nil)
		code, err := f.otp.Issue(ctx, "ghost@x.com", otp.PurposeEmailVerification)
		require.NoError(t, err)

		_, err = f.svc.VerifyRegistration(ctx, "ghost@x.com", code)
		assert.ErrorIs(t, err, ErrRegistrationNotFound)
	})

	t.Run("concurrent verifications create one user", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil, nil)
		require.NoError(t, f.svc.Register(ctx, validRegistration("race@x.com")))
		code := f.outbox.code("race@x.com", otp.PurposeEmailVerification)

		const workers = 16
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
			others    []error
		)
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.svc.VerifyRegistration(ctx, "race@x.com", code)
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					successes++
					return
				}
				others = append(others, err)
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, successes)
		assert.Equal(t, 1, f.users.Len())
		for _, err := range others {
			assert.True(t, errors.Is(err, ErrRegistrationNotFound) || errors.Is(err, ErrInvalidOTP), err)
		}
	})

	t.Run("store failure restores pending registration and code", func(t *testing.T) {
		t.Parallel()
		storage := &MockStorage{}
		storage.On("UserExistsByEmail", mock.Anything, "a@x.com").Return(false, nil)
		storage.On("CreateUser", mock.Anything, mock.AnythingOfType("*auth.User")).Return(errors.New("db down")).Once()
		storage.On("CreateUser", mock.Anything, mock.AnythingOfType("*auth.User")).Return(nil).Once()
		f := newFixture(t, storage, nil)

		require.NoError(t, f.svc.Register(ctx, validRegistration("a@x.com")))
		code := f.outbox.code("a@x.com", otp.PurposeEmailVerification)

		_, err := f.svc.VerifyRegistration(ctx, "a@x.com", code)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrRegistrationNotFound)

		ok, err := f.pending.Contains(ctx, "a@x.com")
		require.NoError(t, err)
		assert.True(t, ok)

		session, err := f.svc.VerifyRegistration(ctx, "a@x.com", code)
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", session.User.Email)
		storage.AssertExpectations(t)
	})

	t.Run("email taken meanwhile", func(t *testing.T) {
		t.Parallel()
		storage := &MockStorage{}
		storage.On("UserExistsByEmail", mock.Anything, "a@x.com").Return(false, nil)
		storage.On("CreateUser", mock.Anything, mock.AnythingOfType("*auth.User")).Return(ErrEmailAlreadyExists)
		f := newFixture(t, storage, nil)

		require.NoError(t, f.svc.Register(ctx, validRegistration("a@x.com")))
		_, err := f.svc.VerifyRegistration(ctx, "a@x.com", f.outbox.code("a@x.com", otp.PurposeEmailVerification))
		assert.ErrorIs(t, err, ErrEmailAlreadyExists)
	})
}

func TestService_ResendRegistrationOTP(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, nil, nil)

	assert.ErrorIs(t, f.svc.ResendRegistrationOTP(ctx, "a@x.com"), ErrRegistrationNotFound)

	require.NoError(t, f.svc.Register(ctx, validRegistration("a@x.com")))
	first := f.outbox.code("a@x.com", otp.PurposeEmailVerification)

	require.NoError(t, f.svc.ResendRegistrationOTP(ctx, "a@x.com"))
	second := f.outbox.code("a@x.com", otp.PurposeEmailVerification)
	assert.Equal(t, 2, f.outbox.count())

	if first != second {
		_, err := f.svc.VerifyRegistration(ctx, "a@x.com", first)
		assert.ErrorIs(t, err, ErrInvalidOTP, "resend must invalidate the earlier code")
	}

	ok, err := f.pending.Contains(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.svc.VerifyRegistration(ctx, "a@x.com", second)
	assert.NoError(t, err)
}

func TestService_Login(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, nil, nil)
	f.register(t, "local@x.com")
	_, err := f.svc.AuthenticateExternal(ctx, "ext@x.com", "Ext", ProviderGoogle)
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"valid credentials", "local@x.com", "Abcdef1!", nil},
		{"email is normalized", " LOCAL@x.com", "Abcdef1!", nil},
		{"unknown email", "nobody@x.com", "Abcdef1!", ErrInvalidCredentials},
		{"wrong password", "local@x.com", "Abcdef1?", ErrInvalidCredentials},
		{"external identity has no password", "ext@x.com", "", ErrInvalidCredentials},
		{"external identity with any password", "ext@x.com", "Abcdef1!", ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			session, err := f.svc.Login(ctx, tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, session)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, session.Token)
		})
	}
}

func TestService_PasswordReset(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("unknown email", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil, nil)
		assert.ErrorIs(t, f.svc.ForgotPassword(ctx, "nobody@x.com"), ErrUserNotFound)
		assert.ErrorIs(t, f.svc.ResendResetOTP(ctx, "nobody@x.com"), ErrUserNotFound)
		assert.Zero(t, f.outbox.count())
	})

	t.Run("full flow", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil, nil)
		f.register(t, "a@x.com")

		require.NoError(t, f.svc.ForgotPassword(ctx, "a@x.com"))
		code := f.outbox.code("a@x.com", otp.PurposePasswordReset)

		assert.ErrorIs(t, f.svc.VerifyResetOTP(ctx, "a@x.com", wrongCode(code)), ErrInvalidOTP)
		require.NoError(t, f.svc.VerifyResetOTP(ctx, "a@x.com", code))
		require.NoError(t, f.svc.VerifyResetOTP(ctx, "a@x.com", code), "verify must not consume the code")

		err := f.svc.ResetPassword(ctx, ResetPasswordInput{
			Email: "a@x.com", OTP: code, Password: "NewPass1!", ConfirmPassword: "NewPass2!",
		})
		assert.ErrorIs(t, err, ErrPasswordPolicy)
		require.NoError(t, f.svc.VerifyResetOTP(ctx, "a@x.com", code), "policy failure must keep the code")

		require.NoError(t, f.svc.ResetPassword(ctx, ResetPasswordInput{
			Email: "a@x.com", OTP: code, Password: "NewPass1!", ConfirmPassword: "NewPass1!",
		}))

		assert.ErrorIs(t, f.svc.VerifyResetOTP(ctx, "a@x.com", code), ErrInvalidOTP)

		_, err = f.svc.Login(ctx, "a@x.com", "Abcdef1!")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		_, err = f.svc.Login(ctx, "a@x.com", "NewPass1!")
		assert.NoError(t, err)
	})

	t.Run("reset requires a live code", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil, nil)
		f.register(t, "a@x.com")

		err := f.svc.ResetPassword(ctx, ResetPasswordInput{
			Email: "a@x.com", OTP: "", Password: "NewPass1!", ConfirmPassword: "NewPass1!",
		})
		assert.ErrorIs(t, err, ErrInvalidOTP)

		require.NoError(t, f.svc.ForgotPassword(ctx, "a@x.com"))
		code := f.outbox.code("a@x.com", otp.PurposePasswordReset)
		f.clock.Advance(otp.DefaultTTL + time.Second)

		err = f.svc.ResetPassword(ctx, ResetPasswordInput{
			Email: "a@x.com", OTP: code, Password: "NewPass1!", ConfirmPassword: "NewPass1!",
		})
		assert.ErrorIs(t, err, ErrInvalidOTP)
	})

	t.Run("resend replaces the reset code", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil, nil)
		f.register(t, "a@x.com")

		require.NoError(t, f.svc.ForgotPassword(ctx, "a@x.com"))
		first := f.outbox.code("a@x.com", otp.PurposePasswordReset)
		require.NoError(t, f.svc.ResendResetOTP(ctx, "a@x.com"))
		second := f.outbox.code("a@x.com", otp.PurposePasswordReset)

		if first != second {
			assert.ErrorIs(t, f.svc.VerifyResetOTP(ctx, "a@x.com", first), ErrInvalidOTP)
		}
		assert.NoError(t, f.svc.VerifyResetOTP(ctx, "a@x.com", second))
	})

	t.Run("registration code does not reset passwords", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil, nil)
		f.register(t, "a@x.com")

		code, err := f.otp.Issue(ctx, "a@x.com", otp.PurposeEmailVerification)
		require.NoError(t, err)
		assert.ErrorIs(t, f.svc.VerifyResetOTP(ctx, "a@x.com", code), ErrInvalidOTP)
	})
}

func TestService_AuthenticateExternal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, nil, nil)

	first, err := f.svc.AuthenticateExternal(ctx, "G@x.com", "Gee", ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, "g@x.com", first.User.Email)
	assert.False(t, first.User.HasPassword())
	assert.Equal(t, ProviderGoogle, first.User.Provider)

	second, err := f.svc.AuthenticateExternal(ctx, "g@x.com", "Other", ProviderGitHub)
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)
	assert.Equal(t, 1, f.users.Len())

	id, err := f.svc.ValidateToken(ctx, second.Token)
	require.NoError(t, err)
	assert.Equal(t, "Gee", id.Name)
	assert.Equal(t, ProviderGitHub, id.Provider)

	assert.Zero(t, f.outbox.count())
	assert.Zero(t, f.pending.Len())

	_, err = f.svc.AuthenticateExternal(ctx, "bad", "X", ProviderGoogle)
	assert.True(t, validator.IsValidationError(err))
}
