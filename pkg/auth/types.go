package auth

import (
	"time"

	"github.com/google/uuid"
)

// Provider tags recorded on users and carried in token claims.
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

// User is a durable account. PasswordHash is nil for users created through
// an external provider; such users cannot log in with a password.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash []byte    `json:"-"`
	Provider     string    `json:"provider"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasPassword reports whether the user can authenticate locally.
func (u *User) HasPassword() bool {
	return u != nil && len(u.PasswordHash) > 0
}

// Identity is what a valid token asserts about its bearer.
type Identity struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Provider  string    `json:"provider"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Session is the outcome of every successful authentication flow.
type Session struct {
	Token string
	User  *User
}
