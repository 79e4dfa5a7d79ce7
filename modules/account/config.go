package account

// Config holds the HTTP-facing settings of the account module.
type Config struct {
	// OAuthRedirectURL receives ?token=&name= after a successful external
	// login, or ?error= when the callback fails.
	OAuthRedirectURL string `env:"OAUTH_SUCCESS_REDIRECT_URL" envDefault:"http://localhost:5173/login"`
}
