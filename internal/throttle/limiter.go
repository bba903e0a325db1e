// Package throttle serializes dispatches to a single external source,
// enforcing a minimum spacing between them.
package throttle

import (
	"context"
	"sync"
	"time"
)

// Limiter grants dispatch slots in submission order, at most one per
// interval. The zero value is unusable; construct with NewLimiter.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
}

// NewLimiter returns a Limiter spacing dispatches by at least interval.
// A non-positive interval disables spacing.
func NewLimiter(interval time.Duration) *Limiter {
	return &Limiter{interval: interval}
}

// Wait blocks until the caller's slot opens or ctx is done. Slots are
// reserved under the lock, so callers proceed in the order they arrived.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.interval <= 0 {
		return ctx.Err()
	}

	l.mu.Lock()
	now := time.Now()
	var wait time.Duration
	if l.next.After(now) {
		wait = l.next.Sub(now)
		l.next = l.next.Add(l.interval)
	} else {
		l.next = now.Add(l.interval)
	}
	l.mu.Unlock()

	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
