package account

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/authcore/handler"
	"github.com/dmitrymomot/authcore/pkg/auth"
	"github.com/dmitrymomot/authcore/pkg/binder"
	"github.com/dmitrymomot/authcore/pkg/validator"
)

var errInvalidRequest = handler.NewHTTPError(http.StatusBadRequest, "invalid_request")

// classifyError maps domain errors onto HTTP errors. Validation errors pass
// through unchanged; unknown errors are left for the 500 path.
func classifyError(err error) error {
	switch {
	case validator.IsValidationError(err):
		return err
	case errors.Is(err, binder.ErrFailedToParseJSON),
		errors.Is(err, binder.ErrMissingContentType),
		errors.Is(err, binder.ErrFailedToParsePath),
		errors.Is(err, binder.ErrFailedToParseQuery):
		return errInvalidRequest.WithMessage("malformed request body")
	case errors.Is(err, binder.ErrUnsupportedMediaType):
		return handler.NewHTTPError(http.StatusUnsupportedMediaType, "unsupported_media_type")
	case errors.Is(err, auth.ErrEmailAlreadyExists):
		return handler.ErrConflict.WithMessage("Email already registered!")
	case errors.Is(err, auth.ErrRegistrationPending):
		return handler.ErrConflict.WithMessage("Registration already in progress for this email. Please verify OTP sent to your email.")
	case errors.Is(err, auth.ErrRegistrationNotFound):
		return handler.ErrNotFound.WithMessage("No registration in progress for this email. Please register first.")
	case errors.Is(err, auth.ErrUserNotFound):
		return handler.ErrNotFound.WithMessage("User not found")
	case errors.Is(err, auth.ErrInvalidCredentials):
		return handler.ErrUnauthorized.WithMessage("Invalid credentials")
	case errors.Is(err, auth.ErrInvalidOTP):
		return handler.ErrUnauthorized.WithMessage("Invalid or expired OTP")
	case errors.Is(err, auth.ErrUnauthorized):
		return handler.ErrUnauthorized
	case errors.Is(err, auth.ErrUnknownProvider):
		return handler.ErrNotFound.WithMessage("Unknown OAuth provider")
	}
	return err
}

// oauthErrorCode is the ?error= value sent to the frontend when a callback fails.
func oauthErrorCode(err error) string {
	switch {
	case errors.Is(err, auth.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, auth.ErrInvalidCode):
		return "invalid_code"
	case errors.Is(err, auth.ErrUnverifiedEmail):
		return "email_not_verified"
	case errors.Is(err, auth.ErrNoPrimaryEmail), errors.Is(err, auth.ErrInvalidProfile):
		return "email_not_found"
	case errors.Is(err, auth.ErrUnknownProvider):
		return "unknown_provider"
	default:
		return "server_error"
	}
}
