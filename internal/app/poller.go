package app

import (
	"context"
	"log"
	"time"

	"github.com/five82/cueweb/internal/health"
)

const (
	defaultPollInterval = 5 * time.Second
	maxBackoff          = 30 * time.Second
)

// RefreshFunc runs one background refresh and reports whether the table
// changed.
type RefreshFunc func(ctx context.Context) (bool, error)

// StartPoller launches a background goroutine that refreshes at a fixed
// cadence, backing off while refreshes keep failing. It returns immediately.
func StartPoller(ctx context.Context, tracker *health.Tracker, refresh RefreshFunc, interval time.Duration) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go func() {
		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			changed, err := refresh(ctx)
			if ctx.Err() != nil {
				return
			}
			tracker.Record(changed, err)
			if err != nil {
				log.Printf("refresh failed: %v", err)
			}
			timer.Reset(calculateBackoff(tracker.Failures(), interval))
		}
	}()
}

// calculateBackoff doubles base for each consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	wait := base
	for i := 0; i < failures; i++ {
		wait *= 2
		if wait >= maxBackoff {
			return maxBackoff
		}
	}
	return wait
}
