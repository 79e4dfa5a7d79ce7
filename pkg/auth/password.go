package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/authcore/pkg/validator"
)

const (
	// MinPasswordLength is the shortest accepted password.
	MinPasswordLength = 8
	// MaxPasswordBytes is bcrypt's input limit; longer passwords are rejected
	// rather than silently truncated.
	MaxPasswordBytes = 72
)

// Hasher turns passwords into storable hashes and checks them.
type Hasher interface {
	Hash(password string) ([]byte, error)
	// Compare returns nil when password matches hash.
	Compare(hash []byte, password string) error
}

// BcryptHasher implements Hasher with bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a hasher. Costs outside bcrypt's range fall back
// to bcrypt.DefaultCost.
func NewBcryptHasher(cost int) BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return BcryptHasher{cost: cost}
}

func (h BcryptHasher) Hash(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), h.cost)
}

func (h BcryptHasher) Compare(hash []byte, password string) error {
	return bcrypt.CompareHashAndPassword(hash, []byte(password))
}

// ValidatePassword applies the password policy and reports the first
// violated rule, in this order: confirmation matches, length, uppercase,
// lowercase, digit, special character, byte limit. The returned error
// matches both ErrPasswordPolicy and validator.ValidationErrors.
func ValidatePassword(password, confirmation string) error {
	err := validator.ApplyFirst(
		validator.PasswordsMatch("confirm_password", password, confirmation),
		validator.PasswordMinLength("password", password, MinPasswordLength),
		validator.PasswordUppercase("password", password),
		validator.PasswordLowercase("password", password),
		validator.PasswordDigit("password", password),
		validator.PasswordSpecialChar("password", password),
		validator.PasswordMaxBytes("password", password, MaxPasswordBytes),
	)
	if err != nil {
		return errors.Join(ErrPasswordPolicy, err)
	}
	return nil
}
