package main

import (
	"context"
	"log/slog"
	"time"

	"doulaBack/internal/services"
)

const defaultMaintenanceTimeout = 2 * time.Minute

// startMaintenanceRunner runs the daily payment maintenance once at startup
// and then on every tick until ctx is done.
func startMaintenanceRunner(ctx context.Context, svc *services.PaymentService, interval, timeout time.Duration, logger *slog.Logger) {
	if svc == nil || interval <= 0 {
		return
	}
	if timeout <= 0 {
		timeout = defaultMaintenanceTimeout
	}
	logger = logger.With("component", "maintenance")

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		runOnce := func() {
			runCtx, cancel := context.WithTimeout(ctx, timeout)
			res, err := svc.RunDailyMaintenance(runCtx)
			cancel()
			if err != nil {
				logger.Error("daily maintenance failed", "error", err)
				return
			}
			logger.Info("daily maintenance finished",
				"overdue_flagged", res.OverdueFlagged,
				"overdue_cleared", res.OverdueCleared,
				"schedules_completed", res.SchedulesCompleted,
				"reminders_created", res.RemindersCreated,
			)
		}

		runOnce()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runOnce()
			}
		}
	}()
}
