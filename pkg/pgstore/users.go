package pgstore

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/authcore/pkg/auth"
	"github.com/dmitrymomot/authcore/pkg/pg"
)

const (
	userColumns = `id, email, name, password_hash, provider, created_at`

	queryUserExists = `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`
	queryUserGet    = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	queryUserInsert = `INSERT INTO users (` + userColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	queryUserPasswd = `UPDATE users SET password_hash = $2 WHERE email = $1`
)

// UserStore persists users in the users table.
type UserStore struct {
	db DB
}

var _ auth.Storage = (*UserStore)(nil)

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) UserExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	if err := s.db.QueryRow(ctx, queryUserExists, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("check user: %w", err)
	}
	return exists, nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	var u auth.User
	err := s.db.QueryRow(ctx, queryUserGet, email).Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Provider, &u.CreatedAt,
	)
	if pg.IsNotFoundError(err) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (s *UserStore) CreateUser(ctx context.Context, user *auth.User) error {
	// NULL rather than an empty bytea marks a password-less user.
	var hash any
	if len(user.PasswordHash) > 0 {
		hash = user.PasswordHash
	}

	_, err := s.db.Exec(ctx, queryUserInsert,
		user.ID, user.Email, user.Name, hash, user.Provider, user.CreatedAt,
	)
	if pg.IsDuplicateKeyError(err) {
		return auth.ErrEmailAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *UserStore) UpdatePasswordHash(ctx context.Context, email string, hash []byte) error {
	tag, err := s.db.Exec(ctx, queryUserPasswd, email, hash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}
