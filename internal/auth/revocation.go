package auth

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-gateway/internal/observability"
)

const revocationShardCount = 32

// TokenVerifier is the subset of TokenCodec the revocation store depends on.
type TokenVerifier interface {
	Verify(tokenString string) (*Claims, error)
}

type revocationShard struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

// RevocationStore tracks tokens revoked before their natural expiry. Entries
// are spread over independently locked shards; a sweep locks one shard at a
// time so concurrent Add and Contains calls are only briefly delayed.
type RevocationStore struct {
	verifier TokenVerifier
	shards   [revocationShardCount]revocationShard
	size     atomic.Int64
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewRevocationStore builds an empty store. Tokens are decoded with verifier
// to learn their expiry.
func NewRevocationStore(verifier TokenVerifier, logger *zap.Logger, metrics *observability.Metrics) *RevocationStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &RevocationStore{verifier: verifier, logger: logger, metrics: metrics}
	for i := range s.shards {
		s.shards[i].entries = make(map[string]time.Time)
	}
	return s
}

// Add revokes token until its expiry. Tokens that are already expired or do
// not verify are ignored since they can never be accepted again anyway.
// Adding a tracked token again is a no-op. It reports whether the token is
// tracked after the call.
func (s *RevocationStore) Add(token string) bool {
	claims, err := s.verifier.Verify(token)
	if err != nil {
		s.logger.Debug("revocation ignored", zap.Error(err))
		return false
	}

	// Request buffers may be reused after the handler returns.
	key := strings.Clone(token)
	shard := s.shardFor(key)

	shard.mu.Lock()
	_, exists := shard.entries[key]
	if !exists {
		shard.entries[key] = claims.ExpiresAt.Time
		s.size.Add(1)
	}
	shard.mu.Unlock()

	if !exists {
		s.metrics.RecordRevocation(s.Len())
		s.logger.Debug("token revoked",
			zap.String("subject", claims.Subject),
			zap.Time("expires_at", claims.ExpiresAt.Time))
	}
	return true
}

// Contains reports whether token has been revoked and not yet swept.
func (s *RevocationStore) Contains(token string) bool {
	shard := s.shardFor(token)
	shard.mu.RLock()
	_, ok := shard.entries[token]
	shard.mu.RUnlock()
	return ok
}

// Sweep removes every entry whose expiry is strictly before now and returns
// how many were removed.
func (s *RevocationStore) Sweep(now time.Time) int {
	removed := 0
	for i := range s.shards {
		shard := &s.shards[i]
		shard.mu.Lock()
		for key, expiresAt := range shard.entries {
			if expiresAt.Before(now) {
				delete(shard.entries, key)
				s.size.Add(-1)
				removed++
			}
		}
		shard.mu.Unlock()
	}
	s.metrics.RecordSweep(removed, s.Len())
	return removed
}

// Len returns the number of tracked revocations.
func (s *RevocationStore) Len() int {
	return int(s.size.Load())
}

func (s *RevocationStore) shardFor(token string) *revocationShard {
	return &s.shards[xxhash.Sum64String(token)%revocationShardCount]
}
