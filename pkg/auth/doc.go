// Package auth composes the account flows: registration with email
// verification, password login, password reset by one-time code and sign-in
// through external OAuth providers. Every successful flow ends with a signed,
// stateless access token.
//
// # Architecture
//
// Service is the orchestrator. It owns no state of its own and coordinates:
//
//   - Storage, the durable user store (MemoryStorage here, Postgres and
//     MongoDB implementations in pkg/pgstore and pkg/mongostore)
//   - pending.Store, registrations waiting for email verification
//   - otp.Engine, one-time codes scoped by email and purpose
//   - TokenService, access token issue and validation over pkg/jwt
//   - Notifier, out-of-band code delivery (pkg/email.OTPMailer)
//   - Hasher, bcrypt by default
//
// # Registration
//
//	err := svc.Register(ctx, auth.RegisterInput{
//		Email: "a@x.com", Name: "A",
//		Password: "Abcdef1!", ConfirmPassword: "Abcdef1!",
//	})
//	// the code arrives by email
//	session, err := svc.VerifyRegistration(ctx, "a@x.com", code)
//
// Register checks, in order: email format, no existing user, no pending
// registration, password policy. The password is hashed before it is parked
// in the pending store. VerifyRegistration takes the pending entry
// atomically, so only one of several concurrent verifications creates the
// user; the store's unique email constraint is the final arbiter.
//
// # Password policy
//
// ValidatePassword reports the first violated rule: confirmation matches,
// at least 8 characters, an uppercase letter, a lowercase letter, a digit, a
// character outside [a-zA-Z0-9], and at most 72 bytes (bcrypt's limit).
//
// # Login
//
// Login reports ErrInvalidCredentials for an unknown email, a user without a
// password (created by an OAuth provider) and a wrong password alike. The
// log line carries the real reason.
//
// # Password reset
//
// ForgotPassword and ResendResetOTP send a reset code to a known email.
// VerifyResetOTP checks it without consuming it; ResetPassword checks it
// again, stores the new hash and only then clears the code.
//
// Issued tokens are not revoked by a password reset; they stay valid until
// they expire.
//
// # OAuth
//
// OAuthService drives the redirect and callback of a provider login through
// a ProviderAdapter (Google and GitHub are included) and hands the verified
// email to Service.AuthenticateExternal, which finds or creates the user.
// State tokens are bound to the provider and consumed once.
//
//	oauth := auth.NewOAuthService(svc, auth.NewMemoryStateStore(nil),
//		auth.WithProvider(auth.NewGoogleAdapter(googleCfg)),
//		auth.WithProvider(auth.NewGitHubAdapter(githubCfg)),
//	)
//	url, err := oauth.AuthURL(ctx, auth.ProviderGoogle)
//	session, err := oauth.Callback(ctx, auth.ProviderGoogle, code, state)
//
// # Errors
//
// Expected outcomes are sentinels: ErrEmailAlreadyExists and
// ErrRegistrationPending (conflict), ErrUserNotFound and
// ErrRegistrationNotFound (not found), ErrInvalidCredentials, ErrInvalidOTP
// and ErrUnauthorized (unauthorized), and validator.ValidationErrors for bad
// input. Anything else is a dependency failure.
package auth
