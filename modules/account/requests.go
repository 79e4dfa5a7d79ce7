package account

type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// EmailRequest is the body of the resend and forgot-password endpoints.
type EmailRequest struct {
	Email string `json:"email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type ResetPasswordRequest struct {
	Email           string `json:"email"`
	OTP             string `json:"otp"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// OAuthLoginRequest starts an external login.
type OAuthLoginRequest struct {
	Provider string `path:"provider"`
}

// OAuthCallbackRequest is what the provider sends back to the callback URL.
type OAuthCallbackRequest struct {
	Provider string `path:"provider"`
	Code     string `query:"code"`
	State    string `query:"state"`
	Error    string `query:"error"`
}

// MessageResponse is returned by flows that do not authenticate the caller.
type MessageResponse struct {
	Message string `json:"message"`
}

// SessionResponse is returned by flows that end with a signed token.
type SessionResponse struct {
	Token   string `json:"token"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// MeResponse echoes the claims of the presented token.
type MeResponse struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	Provider  string `json:"provider"`
	ExpiresAt int64  `json:"expires_at"`
}
