package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/auth-gateway/internal/domain"
)

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// ErrDirectoryUnavailable is returned when no database is configured.
var ErrDirectoryUnavailable = errors.New("user directory unavailable")

// UserRepository defines read access to the user directory.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type userRepository struct {
	db rowQuerier
}

// NewUserRepository returns a Postgres-backed implementation. A nil pool
// yields a repository that reports ErrDirectoryUnavailable.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	if pool == nil {
		return &userRepository{}
	}
	return &userRepository{db: pool}
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if r.db == nil {
		return nil, ErrDirectoryUnavailable
	}

	const query = `
        SELECT id, username, email, password_hash, COALESCE(role, ''), created_at
        FROM users WHERE username=$1`

	var user domain.User
	if err := r.db.QueryRow(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
