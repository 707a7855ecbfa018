package geocoding

import (
	"context"
	"sync"
	"time"
)

// DefaultMinInterval is Nominatim's usage-policy ceiling of one request per second.
const DefaultMinInterval = time.Second

// Throttle spaces outbound calls so that each one starts at least interval
// after the previous one finished. One Throttle is shared by every caller
// of the same remote service.
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

// Do waits out the remainder of the interval, runs fn, and stamps the
// completion time. Calls are serialized; the stamp advances even if fn fails.
func (t *Throttle) Do(ctx context.Context, fn func() error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.last.IsZero() {
		if wait := t.interval - t.now().Sub(t.last); wait > 0 {
			if err := t.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}

	err := fn()
	t.last = t.now()
	return err
}

// Last returns when the previous call completed.
func (t *Throttle) Last() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
