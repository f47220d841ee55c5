package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"engagekit/pkg/logger"
)

// StartSweeper runs periodic expiry sweeps according to the given cron
// expression (empty maps to daily @03:00). Returns a cancel func that
// stops the scheduler.
func StartSweeper(ctx context.Context, l *Ledger, cronExpr string, period time.Duration) (context.CancelFunc, error) {
	if cronExpr == "" {
		cronExpr = "0 3 * * *"
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("sweep_invalid_cron", "cron", cronExpr)
		return nil, fmt.Errorf("invalid sweep cron expression: %s", cronExpr)
	}
	if period <= 0 {
		period = DefaultExpiry
	}

	logger.Info("vote_sweeper_started", "cron", cronExpr, "period", period)
	ctx2, cancel := context.WithCancel(ctx)
	go runSweepScheduler(ctx2, l, cronExpr, period)
	return cancel, nil
}

// runSweepScheduler computes the next cron tick with gronx and sleeps
// until it, sweeping once per tick.
func runSweepScheduler(ctx context.Context, l *Ledger, cronExpr string, period time.Duration) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("vote_sweeper_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("sweep_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				logger.Info("vote_sweeper_stopping")
				return
			}
			continue
		}

		wait := time.Until(next)
		if wait <= 0 {
			l.SweepExpired(time.Now(), period)
			// small sleep to avoid a tight loop around a due tick
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				logger.Info("vote_sweeper_stopping")
				return
			}
			continue
		}

		select {
		case <-time.After(wait):
			l.SweepExpired(time.Now(), period)
		case <-ctx.Done():
			logger.Info("vote_sweeper_stopping")
			return
		}
	}
}
