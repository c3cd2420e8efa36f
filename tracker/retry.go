package tracker

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Retrier re-runs a call while it fails with a retryable error kind.
type Retrier struct {
	MaxRetries int
	BaseDelay  time.Duration

	random func() float64
	sleep  func(ctx context.Context, delay time.Duration) error
}

// Delay returns the backoff before the given 1-based retry:
// base * 2^attempt * (0.5 + 0.5*U).
func (r *Retrier) Delay(attempt int) time.Duration {
	jitter := 0.5 + 0.5*r.random()
	delay := float64(r.BaseDelay) * math.Pow(2, float64(attempt)) * jitter
	if delay > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(delay)
}

// Do calls fn at most MaxRetries+1 times; the last error is returned unchanged.
func (r *Retrier) Do(ctx context.Context, endpoint string, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt <= r.MaxRetries; attempt++ {
		if attempt > 0 {
			if sleepErr := r.sleep(ctx, r.Delay(attempt)); sleepErr != nil {
				return TransportError(endpoint, sleepErr)
			}
		}
		if err = fn(ctx); err == nil {
			return nil
		}
		trackerErr, ok := AsError(err)
		if !ok || !trackerErr.Retryable() {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NewRetrier creates a retrier with jittered exponential backoff.
func NewRetrier(maxRetries int, baseDelay time.Duration) *Retrier {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Retrier{
		MaxRetries: maxRetries,
		BaseDelay:  baseDelay,
		random:     rand.Float64, //nolint:gosec // jitter does not need crypto rand
		sleep:      sleepContext,
	}
}
