// Package scheduler hosts the engine's two background tasks: the expiry
// sweeper and the idle watchdog. Both run on fixed-interval tickers and stop
// when their context is cancelled.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"mesaYaCore/internal/modules/restaurant/application/port"
)

// Expirer is the slice of the engine the sweeper drives.
type Expirer interface {
	ExpireOverdue(ctx context.Context, now time.Time) int
	ExpireStale(ctx context.Context, now time.Time) int
}

// Sweeper periodically expires overdue reservations and stale waiting
// entries. A panicking sweep is caught and logged; the next tick proceeds.
type Sweeper struct {
	Engine   Expirer
	Clock    port.Clock
	Interval time.Duration
	Logger   *slog.Logger
}

func (s *Sweeper) Run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := s.Clock
	if clock == nil {
		clock = port.ClockFunc(time.Now)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	logger.Info("expiry sweeper started", slog.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			logger.Info("expiry sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx, clock.Now(), logger)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context, now time.Time, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("expiry sweep panicked", slog.Any("error", r))
		}
	}()

	reservations := s.Engine.ExpireOverdue(ctx, now)
	waiting := s.Engine.ExpireStale(ctx, now)
	if reservations > 0 || waiting > 0 {
		logger.Info("expiry sweep completed",
			slog.Int("reservationsExpired", reservations),
			slog.Int("waitingExpired", waiting),
		)
	}
}
