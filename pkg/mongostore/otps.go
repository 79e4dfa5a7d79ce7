package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/authcore/pkg/otp"
)

// OTPStore keeps one document per (email, purpose) in the otps collection.
type OTPStore struct {
	coll *mongo.Collection
}

var _ otp.Storage = (*OTPStore)(nil)

func NewOTPStore(db *mongo.Database) *OTPStore {
	return &OTPStore{coll: db.Collection(OTPCollection)}
}

func otpFilter(email string, purpose otp.Purpose) bson.D {
	return bson.D{{Key: "email", Value: email}, {Key: "purpose", Value: purpose}}
}

func (s *OTPStore) Save(ctx context.Context, rec otp.Record) error {
	rec.ExpiresAt = rec.ExpiresAt.UTC()
	_, err := s.coll.ReplaceOne(ctx, otpFilter(rec.Email, rec.Purpose), rec, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save otp: %w", err)
	}
	return nil
}

func (s *OTPStore) Find(ctx context.Context, email string, purpose otp.Purpose) (otp.Record, error) {
	var rec otp.Record
	err := s.coll.FindOne(ctx, otpFilter(email, purpose)).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return otp.Record{}, otp.ErrNotFound
	}
	if err != nil {
		return otp.Record{}, fmt.Errorf("find otp: %w", err)
	}
	rec.ExpiresAt = rec.ExpiresAt.UTC()
	return rec, nil
}

func (s *OTPStore) Delete(ctx context.Context, email string, purpose otp.Purpose) error {
	if _, err := s.coll.DeleteOne(ctx, otpFilter(email, purpose)); err != nil {
		return fmt.Errorf("delete otp: %w", err)
	}
	return nil
}
