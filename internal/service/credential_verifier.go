package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/spec-kit/auth-gateway/internal/auth"
	"github.com/spec-kit/auth-gateway/internal/repository"
)

// Identity is a verified user as reported by the credential verifier.
type Identity struct {
	Username string
	Roles    []string
}

// CredentialVerifier checks a username/password pair. Bad credentials of
// any kind are reported as ErrAuthenticationFailed.
type CredentialVerifier interface {
	Verify(ctx context.Context, username, password string) (*Identity, error)
}

// DirectoryVerifier verifies credentials against the user directory.
type DirectoryVerifier struct {
	users     repository.UserRepository
	dummyHash string
}

// NewDirectoryVerifier builds a verifier. bcryptCost should match the cost of
// stored hashes so unknown users take as long to reject as wrong passwords.
func NewDirectoryVerifier(users repository.UserRepository, bcryptCost int) (*DirectoryVerifier, error) {
	dummy, err := auth.HashPassword("dummy-password-for-timing", bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &DirectoryVerifier{users: users, dummyHash: dummy}, nil
}

// Verify looks the user up and compares the bcrypt hash.
func (v *DirectoryVerifier) Verify(ctx context.Context, username, password string) (*Identity, error) {
	user, err := v.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_, _ = auth.PasswordMatches(v.dummyHash, password)
			return nil, ErrAuthenticationFailed
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := auth.PasswordMatches(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("compare password for user %s: %w", user.ID, err)
	}
	if !ok {
		return nil, ErrAuthenticationFailed
	}
	return &Identity{Username: user.Username, Roles: user.Roles()}, nil
}
