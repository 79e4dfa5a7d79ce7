package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrymomot/authcore/pkg/otp"
	"github.com/dmitrymomot/authcore/pkg/pg"
)

const queryOTPUpsert = `INSERT INTO otps (email, purpose, code, expires_at) VALUES ($1, $2, $3, $4)
ON CONFLICT (email, purpose) DO UPDATE SET code = EXCLUDED.code, expires_at = EXCLUDED.expires_at`

const (
	queryOTPGet          = `SELECT code, expires_at FROM otps WHERE email = $1 AND purpose = $2`
	queryOTPDelete       = `DELETE FROM otps WHERE email = $1 AND purpose = $2`
	queryOTPDeleteBefore = `DELETE FROM otps WHERE expires_at <= $1`
)

// OTPStore keeps one row per (email, purpose) in the otps table.
type OTPStore struct {
	db DB
}

var _ otp.Storage = (*OTPStore)(nil)

func NewOTPStore(db DB) *OTPStore {
	return &OTPStore{db: db}
}

func (s *OTPStore) Save(ctx context.Context, rec otp.Record) error {
	_, err := s.db.Exec(ctx, queryOTPUpsert, rec.Email, string(rec.Purpose), rec.Code, rec.ExpiresAt.UTC())
	if err != nil {
		return fmt.Errorf("save otp: %w", err)
	}
	return nil
}

func (s *OTPStore) Find(ctx context.Context, email string, purpose otp.Purpose) (otp.Record, error) {
	rec := otp.Record{Email: email, Purpose: purpose}
	err := s.db.QueryRow(ctx, queryOTPGet, email, string(purpose)).Scan(&rec.Code, &rec.ExpiresAt)
	if pg.IsNotFoundError(err) {
		return otp.Record{}, otp.ErrNotFound
	}
	if err != nil {
		return otp.Record{}, fmt.Errorf("find otp: %w", err)
	}
	return rec, nil
}

func (s *OTPStore) Delete(ctx context.Context, email string, purpose otp.Purpose) error {
	if _, err := s.db.Exec(ctx, queryOTPDelete, email, string(purpose)); err != nil {
		return fmt.Errorf("delete otp: %w", err)
	}
	return nil
}

// DeleteExpired removes rows that expired at or before now and returns how
// many were removed. Expired rows are never accepted, so this only reclaims
// space.
func (s *OTPStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, queryOTPDeleteBefore, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired otps: %w", err)
	}
	return tag.RowsAffected(), nil
}
