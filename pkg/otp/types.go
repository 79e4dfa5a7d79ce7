package otp

import (
	"context"
	"time"
)

// Purpose separates codes issued for different flows for the same email.
type Purpose string

const (
	PurposeEmailVerification Purpose = "email_verification"
	PurposePasswordReset     Purpose = "password_reset"
)

// Valid reports whether p is a known purpose.
func (p Purpose) Valid() bool {
	return p == PurposeEmailVerification || p == PurposePasswordReset
}

// Record is a single issued code. Records are replaced, never edited.
type Record struct {
	Email     string    `json:"email" bson:"email"`
	Purpose   Purpose   `json:"purpose" bson:"purpose"`
	Code      string    `json:"code" bson:"code"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
}

// Expired reports whether the record is no longer usable at now.
func (r Record) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Storage persists at most one record per (email, purpose).
type Storage interface {
	// Save stores rec, atomically replacing any record with the same
	// email and purpose.
	Save(ctx context.Context, rec Record) error

	// Find returns the current record or ErrNotFound.
	Find(ctx context.Context, email string, purpose Purpose) (Record, error)

	// Delete removes the record. Deleting a missing record is not an error.
	Delete(ctx context.Context, email string, purpose Purpose) error
}
