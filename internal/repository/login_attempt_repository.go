package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultLoginAttemptPrefix = "login:failures"
	defaultLoginAttemptWindow = 15 * time.Minute
)

// recordFailureLua increments the counter and gives it a TTL when it has none,
// in one step, so a counter can never be left without an expiry.
// KEYS[1] = counter key
// ARGV[1] = window in milliseconds
var recordFailureLua = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if redis.call('PTTL', KEYS[1]) < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return count
`)

// LoginAttemptRepository counts failed logins per username in fixed windows.
type LoginAttemptRepository interface {
	Failures(ctx context.Context, username string) (int64, error)
	RecordFailure(ctx context.Context, username string) (int64, error)
	Reset(ctx context.Context, username string) error
}

type loginAttemptRepository struct {
	client *redis.Client
	prefix string
	window time.Duration
}

// NewLoginAttemptRepository builds a Redis-backed counter. The window starts
// at the first failure and is not extended by later ones. A non-positive
// window falls back to 15 minutes.
func NewLoginAttemptRepository(client *redis.Client, keyPrefix string, window time.Duration) LoginAttemptRepository {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultLoginAttemptPrefix
	}
	if window <= 0 {
		window = defaultLoginAttemptWindow
	}
	return &loginAttemptRepository{client: client, prefix: prefix, window: window}
}

func (r *loginAttemptRepository) Failures(ctx context.Context, username string) (int64, error) {
	count, err := r.client.Get(ctx, r.key(username)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get login failures: %w", err)
	}
	return count, nil
}

func (r *loginAttemptRepository) RecordFailure(ctx context.Context, username string) (int64, error) {
	count, err := recordFailureLua.Run(ctx, r.client, []string{r.key(username)}, r.window.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("redis record login failure: %w", err)
	}
	return count, nil
}

func (r *loginAttemptRepository) Reset(ctx context.Context, username string) error {
	if err := r.client.Del(ctx, r.key(username)).Err(); err != nil {
		return fmt.Errorf("redis del login failures: %w", err)
	}
	return nil
}

func (r *loginAttemptRepository) key(username string) string {
	return fmt.Sprintf("%s:%s", r.prefix, strings.ToLower(strings.TrimSpace(username)))
}
