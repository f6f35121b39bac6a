package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/auth-gateway/internal/auth"
	"github.com/spec-kit/auth-gateway/internal/config"
	"github.com/spec-kit/auth-gateway/internal/domain"
	"github.com/spec-kit/auth-gateway/internal/events"
	"github.com/spec-kit/auth-gateway/internal/repository"
)

var (
	// ErrAuthenticationFailed is returned for any bad username/password pair.
	ErrAuthenticationFailed = errors.New("invalid credentials")
	// ErrTooManyAttempts is returned while a username is locked out.
	ErrTooManyAttempts = errors.New("too many failed login attempts")
)

// AuthService coordinates login and logout.
type AuthService struct {
	verifier    CredentialVerifier
	tokens      *auth.TokenCodec
	revocations *auth.RevocationStore
	attempts    repository.LoginAttemptRepository
	events      events.Dispatcher
	logger      *zap.Logger
	ttl         time.Duration
	maxFailures int64
}

// AuthDependencies encapsulates collaborators for the auth service.
// LoginAttempts and Events are optional.
type AuthDependencies struct {
	Verifier      CredentialVerifier
	Tokens        *auth.TokenCodec
	Revocations   *auth.RevocationStore
	LoginAttempts repository.LoginAttemptRepository
	Events        events.Dispatcher
	Logger        *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		verifier:    deps.Verifier,
		tokens:      deps.Tokens,
		revocations: deps.Revocations,
		attempts:    deps.LoginAttempts,
		events:      deps.Events,
		logger:      logger,
		ttl:         cfg.TokenTTL(),
		maxFailures: int64(cfg.LoginMaxFailures),
	}
}

// Login verifies credentials and issues a bearer token. Unknown users and
// wrong passwords both yield ErrAuthenticationFailed.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.TokenIssuance, error) {
	if s.lockedOut(ctx, username) {
		s.publish(ctx, events.EventLoginThrottled, username)
		return nil, ErrTooManyAttempts
	}

	identity, err := s.verifier.Verify(ctx, username, password)
	if err != nil {
		if errors.Is(err, ErrAuthenticationFailed) {
			s.recordFailure(ctx, username)
			s.publish(ctx, events.EventLoginFailed, username)
			return nil, ErrAuthenticationFailed
		}
		return nil, fmt.Errorf("verify credentials: %w", err)
	}

	principal := auth.NewPrincipal(identity.Username, identity.Roles)
	token, expiresAt, err := s.tokens.Issue(principal, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.resetFailures(ctx, username)
	s.publish(ctx, events.EventLoginSucceeded, identity.Username)

	return &domain.TokenIssuance{
		Token:     token,
		TokenType: domain.TokenTypeBearer,
		ExpiresAt: expiresAt,
		ExpiresIn: int64(s.ttl / time.Second),
		Username:  identity.Username,
	}, nil
}

// Logout revokes token. Invalid or expired tokens are accepted silently.
func (s *AuthService) Logout(ctx context.Context, token string) {
	if !s.revocations.Add(token) {
		return
	}
	subject := ""
	if principal, ok := auth.PrincipalFrom(ctx); ok {
		subject = principal.Subject()
	}
	s.publish(ctx, events.EventTokenRevoked, subject)
}

func (s *AuthService) lockedOut(ctx context.Context, username string) bool {
	if s.attempts == nil || s.maxFailures <= 0 {
		return false
	}
	failures, err := s.attempts.Failures(ctx, username)
	if err != nil {
		s.logger.Warn("login attempt lookup failed", zap.Error(err))
		return false
	}
	return failures >= s.maxFailures
}

func (s *AuthService) recordFailure(ctx context.Context, username string) {
	if s.attempts == nil || s.maxFailures <= 0 {
		return
	}
	if _, err := s.attempts.RecordFailure(ctx, username); err != nil {
		s.logger.Warn("login failure not recorded", zap.Error(err))
	}
}

func (s *AuthService) resetFailures(ctx context.Context, username string) {
	if s.attempts == nil || s.maxFailures <= 0 {
		return
	}
	if err := s.attempts.Reset(ctx, username); err != nil {
		s.logger.Warn("login failures not reset", zap.Error(err))
	}
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, subject string) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, events.NewEvent(eventType, subject)); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}
