package session

import (
	"context"
	"log/slog"
	"time"

	"proconnect/internal/metrics"
)

// Sweeper periodically removes expired sessions that were never resolved
// again. It is optional; lazy expiry in Resolve works without it.
type Sweeper struct {
	store    Store
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// NewSweeper creates a sweeper that runs every interval.
func NewSweeper(store Store, interval time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		store:    store,
		interval: interval,
		now:      time.Now,
		logger:   logger,
	}
}

// Run sweeps on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Session sweeper started", "interval", s.interval.String())

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Session sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("Session sweep failed", "error", err)
			}
		}
	}
}

// SweepOnce deletes all sessions expired as of now.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	removed, err := s.store.DeleteExpired(ctx, s.now().Unix())
	if removed > 0 {
		metrics.SessionsSweptTotal.Add(float64(removed))
		s.logger.Info("Expired sessions removed", "count", removed)
	}
	return removed, err
}
