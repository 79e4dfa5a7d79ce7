// Package pgstore implements auth.Storage and otp.Storage on Postgres.
//
// The schema lives in the migrations package. Uniqueness is enforced by the
// database: a duplicate email surfaces as auth.ErrEmailAlreadyExists, and
// OTP records are upserted on their (email, purpose) key.
package pgstore
