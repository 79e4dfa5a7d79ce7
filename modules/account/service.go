package account

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/authcore/handler"
	"github.com/dmitrymomot/authcore/pkg/auth"
	"github.com/dmitrymomot/authcore/pkg/binder"
	"github.com/dmitrymomot/authcore/pkg/logger"
	"github.com/dmitrymomot/authcore/pkg/ratelimit"
)

// Route limits, requests per window per client address.
const (
	limitWindow     = time.Minute
	registerLimit   = 5
	loginLimit      = 5
	otpLimit        = 3
	passwordLimit   = 3
	tooManyRequests = "Too many requests. Please try again later."
)

// AuthService serves the /api/auth endpoints.
type AuthService struct {
	cfg          Config
	auth         *auth.Service
	tokens       *auth.TokenService
	oauth        *auth.OAuthService
	limits       ratelimit.Store
	errorHandler handler.ErrorHandler[handler.Context]
	report       func(ctx context.Context, err error)
	logger       *slog.Logger
}

// Option configures AuthService.
type Option func(*AuthService)

// WithOAuth enables the /oauth/{provider} routes.
func WithOAuth(svc *auth.OAuthService) Option {
	return func(s *AuthService) {
		s.oauth = svc
	}
}

// WithLogger sets the logger used for request errors and rate limit rejections.
func WithLogger(l *slog.Logger) Option {
	return func(s *AuthService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithErrorReporter receives every error answered with a 5xx status.
func WithErrorReporter(report func(ctx context.Context, err error)) Option {
	return func(s *AuthService) {
		s.report = report
	}
}

func NewAuthService(cfg Config, authService *auth.Service, tokens *auth.TokenService, limits ratelimit.Store, opts ...Option) *AuthService {
	s := &AuthService{
		cfg:    cfg,
		auth:   authService,
		tokens: tokens,
		limits: limits,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.errorHandler = handler.NewErrorHandler(s.logger, handler.ErrorHandlerConfig{
		Classify: classifyError,
		Report:   s.report,
	})
	return s
}

// Handle returns the router mounted under /api/auth.
func (s *AuthService) Handle() http.Handler {
	r := chi.NewRouter()

	r.With(s.limit("register", registerLimit)).Post("/register", wrapJSON(s, s.register))
	r.With(s.limit("verify-otp", otpLimit)).Post("/verify-otp", wrapJSON(s, s.verifyOTP))
	r.With(s.limit("resend-otp", otpLimit)).Post("/resend-otp", wrapJSON(s, s.resendOTP))
	r.With(s.limit("login", loginLimit)).Post("/login", wrapJSON(s, s.login))
	r.With(s.limit("forgot-password", passwordLimit)).Post("/forgot-password", wrapJSON(s, s.forgotPassword))
	r.With(s.limit("verify-reset-otp", passwordLimit)).Post("/verify-reset-otp", wrapJSON(s, s.verifyResetOTP))
	r.With(s.limit("resend-reset-otp", passwordLimit)).Post("/resend-reset-otp", wrapJSON(s, s.resendResetOTP))
	r.With(s.limit("reset-password", passwordLimit)).Post("/reset-password", wrapJSON(s, s.resetPassword))

	if s.oauth != nil {
		r.Get("/oauth/providers", handler.Wrap(s.providers,
			handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
		))
		r.Get("/oauth/{provider}/login", handler.Wrap(s.oauthLogin,
			handler.WithBinders[handler.Context, OAuthLoginRequest](binder.Path(chi.URLParam)),
			handler.WithErrorHandler[handler.Context, OAuthLoginRequest](s.errorHandler),
		))
		r.Get("/oauth/{provider}/callback", handler.Wrap(s.oauthCallback,
			handler.WithBinders[handler.Context, OAuthCallbackRequest](binder.Path(chi.URLParam), binder.Query()),
			handler.WithErrorHandler[handler.Context, OAuthCallbackRequest](s.errorHandler),
		))
	}

	r.With(s.tokens.Middleware(s.rejectToken)).Get("/me", handler.Wrap(s.me,
		handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
	))

	return r
}

func wrapJSON[R any](s *AuthService, h handler.HandlerFunc[handler.Context, R]) http.HandlerFunc {
	return handler.Wrap(h,
		handler.WithBinders[handler.Context, R](binder.JSON()),
		handler.WithErrorHandler[handler.Context, R](s.errorHandler),
	)
}

func (s *AuthService) limit(action string, maxRequests int) func(http.Handler) http.Handler {
	return ratelimit.Limit(s.limits, action, maxRequests, limitWindow,
		ratelimit.WithLogger(s.logger),
		ratelimit.WithOnLimitReached(func(w http.ResponseWriter, r *http.Request, _ *ratelimit.Result) {
			_ = handler.JSONError(handler.ErrTooManyRequests.WithMessage(tooManyRequests)).Render(w, r)
		}),
	)
}

func (s *AuthService) rejectToken(w http.ResponseWriter, r *http.Request, err error) {
	s.errorHandler(handler.NewContext(w, r), err)
}

func (s *AuthService) register(ctx handler.Context, req RegisterRequest) handler.Response {
	err := s.auth.Register(ctx, auth.RegisterInput{
		Email:           req.Email,
		Name:            req.Name,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(MessageResponse{Message: "OTP sent to your email"})
}

func (s *AuthService) verifyOTP(ctx handler.Context, req VerifyOTPRequest) handler.Response {
	session, err := s.auth.VerifyRegistration(ctx, req.Email, req.OTP)
	if err != nil {
		return handler.Error(err)
	}
	return sessionResponse(session, "Account verified successfully!")
}

func (s *AuthService) resendOTP(ctx handler.Context, req EmailRequest) handler.Response {
	if err := s.auth.ResendRegistrationOTP(ctx, req.Email); err != nil {
		return handler.Error(err)
	}
	return handler.JSON(MessageResponse{Message: "OTP resent successfully"})
}

func (s *AuthService) login(ctx handler.Context, req LoginRequest) handler.Response {
	session, err := s.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return handler.Error(err)
	}
	return sessionResponse(session, "Login successful")
}

func (s *AuthService) forgotPassword(ctx handler.Context, req EmailRequest) handler.Response {
	if err := s.auth.ForgotPassword(ctx, req.Email); err != nil {
		return handler.Error(err)
	}
	return handler.JSON(MessageResponse{Message: "OTP sent to your email"})
}

func (s *AuthService) verifyResetOTP(ctx handler.Context, req VerifyOTPRequest) handler.Response {
	if err := s.auth.VerifyResetOTP(ctx, req.Email, req.OTP); err != nil {
		return handler.Error(err)
	}
	return handler.JSON(MessageResponse{Message: "OTP verified successfully"})
}

func (s *AuthService) resendResetOTP(ctx handler.Context, req EmailRequest) handler.Response {
	if err := s.auth.ResendResetOTP(ctx, req.Email); err != nil {
		return handler.Error(err)
	}
	return handler.JSON(MessageResponse{Message: "OTP resent successfully to your email."})
}

func (s *AuthService) resetPassword(ctx handler.Context, req ResetPasswordRequest) handler.Response {
	err := s.auth.ResetPassword(ctx, auth.ResetPasswordInput{
		Email:           req.Email,
		OTP:             req.OTP,
		Password:        req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(MessageResponse{Message: "Password reset successfully!"})
}

func (s *AuthService) providers(_ handler.Context, _ struct{}) handler.Response {
	return handler.JSON(map[string][]string{"providers": s.oauth.Providers()})
}

func (s *AuthService) oauthLogin(ctx handler.Context, req OAuthLoginRequest) handler.Response {
	authURL, err := s.oauth.AuthURL(ctx, req.Provider)
	if err != nil {
		return handler.Error(err)
	}
	return handler.RedirectWithCode(authURL, http.StatusTemporaryRedirect)
}

func (s *AuthService) oauthCallback(ctx handler.Context, req OAuthCallbackRequest) handler.Response {
	if req.Error != "" {
		s.logger.WarnContext(ctx, "oauth provider returned an error",
			logger.Component("oauth"),
			logger.Provider(req.Provider),
			logger.Reason(req.Error),
		)
		return handler.Redirect(s.oauthRedirect(url.Values{"error": {req.Error}}))
	}

	session, err := s.oauth.Callback(ctx, req.Provider, req.Code, req.State)
	if err != nil {
		code := oauthErrorCode(err)
		if code == "server_error" && s.report != nil {
			s.report(ctx, err)
		}
		s.logger.WarnContext(ctx, "oauth callback failed",
			logger.Component("oauth"),
			logger.Provider(req.Provider),
			logger.Reason(code),
			logger.Error(err),
		)
		return handler.Redirect(s.oauthRedirect(url.Values{"error": {code}}))
	}

	return handler.Redirect(s.oauthRedirect(url.Values{
		"token": {session.Token},
		"name":  {session.User.Name},
	}))
}

func (s *AuthService) me(ctx handler.Context, _ struct{}) handler.Response {
	id, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return handler.Error(auth.ErrUnauthorized)
	}
	return handler.JSON(MeResponse{
		Email:     id.Email,
		Name:      id.Name,
		Provider:  id.Provider,
		ExpiresAt: id.ExpiresAt.Unix(),
	})
}

func (s *AuthService) oauthRedirect(params url.Values) string {
	u, err := url.Parse(s.cfg.OAuthRedirectURL)
	if err != nil {
		return s.cfg.OAuthRedirectURL + "?" + params.Encode()
	}
	q := u.Query()
	for k, v := range params {
		q[k] = v
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func sessionResponse(session *auth.Session, message string) handler.Response {
	return handler.JSON(SessionResponse{
		Token:   session.Token,
		Name:    session.User.Name,
		Message: message,
	})
}
