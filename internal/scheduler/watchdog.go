package scheduler

import (
	"context"
	"log/slog"
	"time"

	"mesaYaCore/internal/modules/restaurant/application/port"
)

// ActivitySource exposes the connection activity the watchdog inspects; the
// websocket hub implements it.
type ActivitySource interface {
	LastActivity() time.Time
	ConnectionCount() int
}

// Watchdog triggers graceful shutdown after prolonged inactivity. It never
// fires while a client connection is open, regardless of how quiet it is.
type Watchdog struct {
	Source    ActivitySource
	Clock     port.Clock
	Interval  time.Duration
	Threshold time.Duration
	Shutdown  func()
	Logger    *slog.Logger
}

func (w *Watchdog) Run(ctx context.Context) {
	interval := w.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	threshold := w.Threshold
	if threshold <= 0 {
		threshold = 30 * time.Minute
	}
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := w.Clock
	if clock == nil {
		clock = port.ClockFunc(time.Now)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	logger.Info("idle watchdog started", slog.Duration("interval", interval), slog.Duration("threshold", threshold))

	for {
		select {
		case <-ctx.Done():
			logger.Info("idle watchdog stopped")
			return
		case <-ticker.C:
			if w.shouldShutdown(clock.Now(), threshold) {
				logger.Info("idle threshold exceeded, shutting down",
					slog.Time("lastActivity", w.Source.LastActivity()),
					slog.Duration("threshold", threshold),
				)
				w.Shutdown()
				return
			}
		}
	}
}

func (w *Watchdog) shouldShutdown(now time.Time, threshold time.Duration) bool {
	if w.Source.ConnectionCount() > 0 {
		return false
	}
	return now.Sub(w.Source.LastActivity()) > threshold
}
