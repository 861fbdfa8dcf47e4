package core

// sweeper.go expires idle sessions.
//
// Finished sessions keep their whole table and history in memory, so a
// background loop drops those nobody has touched within the TTL. The loop is
// long-running and stops when its context is cancelled.

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is how often expired sessions are collected.
const DefaultSweepInterval = 5 * time.Minute

// StartSessionSweeper removes expired sessions every interval until ctx is
// cancelled. It blocks; run it in its own goroutine.
func (s *Service) StartSessionSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	slog.Info("session sweeper started",
		"interval", interval.String(),
		"ttl", s.cfg.SessionTTL.String(),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case now := <-ticker.C:
			s.sweep(now)
		}
	}
}

func (s *Service) sweep(now time.Time) {
	start := time.Now()
	removed := s.SweepExpired(now)
	if removed == 0 {
		slog.Debug("session sweep found nothing to expire")
		return
	}
	slog.Info("expired idle sessions",
		"removed", removed,
		"remaining", s.ActiveSessions(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
