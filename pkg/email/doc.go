// Package email sends transactional email through a provider-agnostic
// EmailSender.
//
// Two senders are included:
//   - the Postmark client for production delivery
//   - DevSender, which writes each message to disk as .html and .json files
//
// NewSender picks one from Config.Driver ("postmark" or "dev").
//
// OTPMailer sits on top of a sender and delivers one-time codes. Each
// purpose gets its own subject ("Verify your account", "Reset your
// password") and the body is rendered from a templ component:
//
//	sender, err := email.NewSender(cfg)
//	mailer := email.NewOTPMailer(sender, email.WithCodeTTL(otpCfg.TTL))
//	err = mailer.SendOTP(ctx, "user@example.com", "042917", otp.PurposeEmailVerification)
//
// All senders validate SendEmailParams first and wrap failures in
// ErrInvalidParams or ErrFailedToSendEmail.
package email
