// Command authd serves the authentication API: registration with email
// verification, login, password reset, OAuth sign-in and token checks.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrymomot/authcore/modules/account"
	"github.com/dmitrymomot/authcore/pkg/auth"
	"github.com/dmitrymomot/authcore/pkg/config"
	"github.com/dmitrymomot/authcore/pkg/email"
	"github.com/dmitrymomot/authcore/pkg/environment"
	"github.com/dmitrymomot/authcore/pkg/httpserver"
	"github.com/dmitrymomot/authcore/pkg/jwt"
	"github.com/dmitrymomot/authcore/pkg/logger"
	"github.com/dmitrymomot/authcore/pkg/observability"
	"github.com/dmitrymomot/authcore/pkg/otp"
	"github.com/dmitrymomot/authcore/pkg/requestid"
)

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("authd exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	env := environment.Parse(cfg.Env)

	log := logger.New(
		logger.WithLevelName(cfg.LogLevel),
		logger.WithEnvironment(env.String(), cfg.Name),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	flush, err := observability.InitSentry(cfg.Observability, env.String(), cfg.Release)
	if err != nil {
		// Reporting is optional; the service runs without it.
		log.Error("sentry init failed", logger.Component("authd"), logger.Error(err))
		flush = func() {}
	}
	defer flush()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openBackends(ctx, cfg, log)
	defer b.Close()
	if err != nil {
		return err
	}

	signer, err := jwt.NewFromString(cfg.Auth.JWTSecret)
	if err != nil {
		return fmt.Errorf("jwt signer: %w", err)
	}
	tokens := auth.NewTokenService(signer,
		auth.WithTokenTTL(cfg.Auth.TokenTTL),
		auth.WithTokenLogger(log),
	)

	if env.IsProduction() && cfg.Email.Driver != email.DriverPostmark {
		log.Warn("OTP emails are written to disk, not delivered",
			logger.Component("authd"),
			slog.String("driver", cfg.Email.Driver),
		)
	}
	sender, err := email.NewSender(cfg.Email)
	if err != nil {
		return fmt.Errorf("email sender: %w", err)
	}
	mailer := email.NewOTPMailer(sender,
		email.WithCodeTTL(cfg.OTP.TTL),
		email.WithLogger(log),
	)

	engine := otp.NewEngineFromConfig(cfg.OTP, b.otps, otp.WithLogger(log))
	authService := auth.NewService(b.users, b.pending, engine, tokens, mailer,
		auth.WithHasher(auth.NewBcryptHasher(cfg.Auth.BcryptCost)),
		auth.WithLogger(log),
	)

	opts := []account.Option{
		account.WithLogger(log),
		account.WithErrorReporter(observability.NewReporter(nil)),
	}
	if oauth := newOAuthService(cfg, authService, b.states, log); oauth != nil {
		opts = append(opts, account.WithOAuth(oauth))
	}

	router := account.Router(account.RouterOptions{
		Auth:        account.NewAuthService(cfg.Account, authService, tokens, b.limits, opts...),
		Liveness:    httpserver.LivenessHandler(),
		Readiness:   httpserver.ReadinessHandler(log, b.checks...),
		Middlewares: []func(http.Handler) http.Handler{observability.AccessLog(log)},
	})

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
	return srv.Run(ctx, router)
}

// newOAuthService registers every provider with credentials. It returns nil
// when none is configured, which leaves the OAuth routes unmounted.
func newOAuthService(cfg appConfig, authService *auth.Service, states auth.StateStore, log *slog.Logger) *auth.OAuthService {
	var opts []auth.OAuthOption
	if cfg.Google.Enabled() {
		opts = append(opts, auth.WithProvider(auth.NewGoogleAdapter(cfg.Google)))
	}
	if cfg.GitHub.Enabled() {
		opts = append(opts, auth.WithProvider(auth.NewGitHubAdapter(cfg.GitHub)))
	}
	if len(opts) == 0 {
		return nil
	}
	opts = append(opts, auth.WithOAuthLogger(log))
	return auth.NewOAuthService(authService, states, opts...)
}
