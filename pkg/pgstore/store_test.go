package pgstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authcore/pkg/auth"
	"github.com/dmitrymomot/authcore/pkg/otp"
)

var epoch = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func TestUserStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("exists", func(t *testing.T) {
		t.Parallel()
		db := &MockDB{}
		db.On("QueryRow", queryUserExists, []any{"a@x.com"}).Return(row{values: []any{true}})

		ok, err := NewUserStore(db).UserExistsByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("get maps no rows to not found", func(t *testing.T) {
		t.Parallel()
		db := &MockDB{}
		db.On("QueryRow", queryUserGet, []any{"a@x.com"}).Return(row{err: pgx.ErrNoRows})

		_, err := NewUserStore(db).GetUserByEmail(ctx, "a@x.com")
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
	})

	t.Run("get scans every column", func(t *testing.T) {
		t.Parallel()
		id := uuid.New()
		db := &MockDB{}
		db.On("QueryRow", queryUserGet, []any{"a@x.com"}).Return(row{values: []any{
			id, "a@x.com", "A", []byte("hash"), auth.ProviderLocal, epoch,
		}})

		u, err := NewUserStore(db).GetUserByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, &auth.User{
			ID: id, Email: "a@x.com", Name: "A", PasswordHash: []byte("hash"),
			Provider: auth.ProviderLocal, CreatedAt: epoch,
		}, u)
	})

	t.Run("create", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name     string
			hash     []byte
			wantHash any
			execErr  error
			wantErr  error
		}{
			{"local user", []byte("hash"), []byte("hash"), nil, nil},
			{"password-less user stores null", nil, nil, nil, nil},
			{"duplicate email", []byte("hash"), []byte("hash"), &pgconn.PgError{Code: "23505"}, auth.ErrEmailAlreadyExists},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()
				user := &auth.User{
					ID: uuid.New(), Email: "a@x.com", Name: "A",
					PasswordHash: tt.hash, Provider: auth.ProviderLocal, CreatedAt: epoch,
				}
				db := &MockDB{}
				db.On("Exec", queryUserInsert, []any{
					user.ID, user.Email, user.Name, tt.wantHash, user.Provider, user.CreatedAt,
				}).Return(pgconn.NewCommandTag("INSERT 0 1"), tt.execErr)

				err := NewUserStore(db).CreateUser(ctx, user)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				} else {
					assert.NoError(t, err)
				}
				db.AssertExpectations(t)
			})
		}
	})

	t.Run("update password", func(t *testing.T) {
		t.Parallel()
		db := &MockDB{}
		db.On("Exec", queryUserPasswd, []any{"a@x.com", []byte("new")}).Return(pgconn.NewCommandTag("UPDATE 1"), nil)
		db.On("Exec", queryUserPasswd, []any{"ghost@x.com", []byte("new")}).Return(pgconn.NewCommandTag("UPDATE 0"), nil)
		store := NewUserStore(db)

		assert.NoError(t, store.UpdatePasswordHash(ctx, "a@x.com", []byte("new")))
		assert.ErrorIs(t, store.UpdatePasswordHash(ctx, "ghost@x.com", []byte("new")), auth.ErrUserNotFound)
	})

	t.Run("driver errors are wrapped", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("conn reset")
		db := &MockDB{}
		db.On("QueryRow", queryUserExists, mock.Anything).Return(row{err: boom})

		_, err := NewUserStore(db).UserExistsByEmail(ctx, "a@x.com")
		assert.ErrorIs(t, err, boom)
	})
}

func TestOTPStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("save upserts in utc", func(t *testing.T) {
		t.Parallel()
		local := epoch.In(time.FixedZone("X", 3600))
		db := &MockDB{}
		db.On("Exec", queryOTPUpsert, []any{"a@x.com", "password_reset", "123456", epoch}).
			Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

		err := NewOTPStore(db).Save(ctx, otp.Record{
			Email: "a@x.com", Purpose: otp.PurposePasswordReset, Code: "123456", ExpiresAt: local,
		})
		require.NoError(t, err)
		db.AssertExpectations(t)
	})

	t.Run("find", func(t *testing.T) {
		t.Parallel()
		db := &MockDB{}
		db.On("QueryRow", queryOTPGet, []any{"a@x.com", "email_verification"}).
			Return(row{values: []any{"654321", epoch}})
		db.On("QueryRow", queryOTPGet, []any{"a@x.com", "password_reset"}).
			Return(row{err: pgx.ErrNoRows})
		store := NewOTPStore(db)

		rec, err := store.Find(ctx, "a@x.com", otp.PurposeEmailVerification)
		require.NoError(t, err)
		assert.Equal(t, otp.Record{
			Email: "a@x.com", Purpose: otp.PurposeEmailVerification, Code: "654321", ExpiresAt: epoch,
		}, rec)

		_, err = store.Find(ctx, "a@x.com", otp.PurposePasswordReset)
		assert.ErrorIs(t, err, otp.ErrNotFound)
	})

	t.Run("delete and sweep", func(t *testing.T) {
		t.Parallel()
		db := &MockDB{}
		db.On("Exec", queryOTPDelete, []any{"a@x.com", "password_reset"}).Return(pgconn.NewCommandTag("DELETE 0"), nil)
		db.On("Exec", queryOTPDeleteBefore, []any{epoch}).Return(pgconn.NewCommandTag("DELETE 3"), nil)
		store := NewOTPStore(db)

		require.NoError(t, store.Delete(ctx, "a@x.com", otp.PurposePasswordReset))
		n, err := store.DeleteExpired(ctx, epoch)
		require.NoError(t, err)
		assert.EqualValues(t, 3, n)
	})
}
