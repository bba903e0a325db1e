// Package retry wraps arbitrary operations with bounded, policy-driven
// retries. Policies map onto cenkalti/backoff schedules; each attempt is
// a fresh invocation with no state carried across attempts.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Backoff kinds supported by Policy.
const (
	BackoffFixed       = "fixed"
	BackoffLinear      = "linear"
	BackoffExponential = "exponential"
)

// Policy describes how an operation is retried.
type Policy struct {
	// MaxAttempts bounds the total number of invocations, including the
	// first one. Values below 1 are treated as 1.
	MaxAttempts int
	// Delay is the wait after the first failed attempt.
	Delay time.Duration
	// Backoff selects the delay progression between attempts.
	Backoff string
	// MaxDelay caps the exponential progression. Ignored by the other
	// backoff kinds.
	MaxDelay time.Duration
}

// DefaultPolicy mirrors the shared client default: three attempts with a
// linearly increasing one second delay.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		Delay:       time.Second,
		Backoff:     BackoffLinear,
		MaxDelay:    20 * time.Second,
	}
}

// Permanent marks err as non-retryable; Do returns it immediately.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do runs op until it succeeds, the policy is exhausted, or ctx is done.
// The last error is returned after MaxAttempts unsuccessful tries.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	b := backoff.WithContext(
		backoff.WithMaxRetries(p.schedule(), uint64(attempts-1)),
		ctx,
	)
	return backoff.Retry(func() error { return op(ctx) }, b)
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := Do(ctx, p, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}

func (p Policy) schedule() backoff.BackOff {
	switch p.Backoff {
	case BackoffExponential:
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = p.Delay
		b.MaxInterval = p.MaxDelay
		b.RandomizationFactor = 0 // no jitter
		b.MaxElapsedTime = 0
		return b
	case BackoffLinear:
		return &linearBackOff{delay: p.Delay}
	default:
		return backoff.NewConstantBackOff(p.Delay)
	}
}

// linearBackOff waits delay, 2*delay, 3*delay, ...
type linearBackOff struct {
	delay time.Duration
	n     int
}

func (l *linearBackOff) NextBackOff() time.Duration {
	l.n++
	return time.Duration(l.n) * l.delay
}

func (l *linearBackOff) Reset() {
	l.n = 0
}
