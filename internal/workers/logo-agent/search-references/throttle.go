// internal/workers/logo-agent/search-references/throttle.go
package searchreferences

import (
	"context"
	"sync"
	"time"

	"logo-workers/internal/common/metrics"
)

// Throttle spaces calls sharing one external credential. The lock is held
// while waiting, so concurrent callers are admitted one at a time and each
// admission is at least interval after the previous one.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{
		interval: interval,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Wait blocks until the caller may issue its call.
func (t *Throttle) Wait(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.last.IsZero() {
		if wait := t.interval - t.now().Sub(t.last); wait > 0 {
			metrics.ReferenceSearchThrottleWait.Observe(wait.Seconds())
			if err := t.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}
	t.last = t.now()
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
