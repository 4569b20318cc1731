package core

// scheduler.go runs background maintenance for the session store.
//
// Sessions live only in memory, so the sweeper is what bounds memory use
// once users walk away: every interval it drops sessions idle for longer
// than the TTL. It is long-running and stops when its context is cancelled.

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is used when StartSweeper is given a non-positive interval.
const DefaultSweepInterval = time.Minute

// StartSweeper periodically removes expired sessions until ctx is cancelled.
func (s *Service) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	slog.Info("session sweeper started",
		"interval", interval.String(),
		"ttl", s.opts.SessionTTL.String(),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			s.runSweep()
		}
	}
}

func (s *Service) runSweep() {
	start := time.Now()
	removed := s.Sweep()
	if removed == 0 {
		return
	}
	slog.Info("expired sessions removed",
		"sessions_removed", removed,
		"sessions_live", s.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
