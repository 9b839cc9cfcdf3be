// internal/poller/runner.go
package poller

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// MinDelay is the shortest pause between iterations.
const MinDelay = time.Second

// Run polls until ctx is done. One iteration at a time. No overlap, no skipped iterations.
// ctx is observed only between iterations.
func (p *Poller) Run(ctx context.Context) {
	for {
		sum := p.PollOnce(ctx)

		delay := NextDelay(p.cfg.Interval, sum.Duration)
		p.log.Info("pausing before next iteration", zap.Duration("delay", delay))

		if err := p.sleep(ctx, delay); err != nil {
			p.log.Info("poll loop stopped", zap.Error(err))
			return
		}
	}
}

// NextDelay returns interval minus elapsed, never below MinDelay.
// Both are truncated to whole seconds.
func NextDelay(interval, elapsed time.Duration) time.Duration {
	d := interval.Truncate(time.Second) - elapsed.Truncate(time.Second)
	if d < MinDelay {
		return MinDelay
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
