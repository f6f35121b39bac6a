package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper is the part of the revocation store the sweeper drives.
type Sweeper interface {
	Sweep(now time.Time) int
	Len() int
}

// RevocationSweeper periodically drops revocations whose tokens have expired.
type RevocationSweeper struct {
	store    Sweeper
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewRevocationSweeper builds a sweeper. A nil now uses time.Now.
func NewRevocationSweeper(store Sweeper, interval time.Duration, logger *zap.Logger, now func() time.Time) *RevocationSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &RevocationSweeper{store: store, interval: interval, logger: logger, now: now}
}

// Run sweeps on every tick until ctx is cancelled.
func (s *RevocationSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("revocation sweeper started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("revocation sweeper stopped")
			return nil
		case <-ticker.C:
			s.SweepOnce()
		}
	}
}

// SweepOnce performs a single sweep and returns how many entries were removed.
func (s *RevocationSweeper) SweepOnce() int {
	removed := s.store.Sweep(s.now())
	if removed > 0 {
		s.logger.Debug("revocations swept", zap.Int("removed", removed), zap.Int("remaining", s.store.Len()))
	}
	return removed
}
