package orchestrator

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy is the declarative retry configuration applied to each
// pipeline step: a failed attempt classified as retryable is re-run up to
// MaxAttempts times with exponential backoff and jitter between attempts.
// Classification lives in the generation package; this policy only decides
// how long to wait and when to give up.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries per step, first attempt
	// included.
	MaxAttempts int

	// BaseDelay is the backoff before the first retry.
	BaseDelay time.Duration

	// MaxDelay caps the exponential growth.
	MaxDelay time.Duration
}

// DefaultRetryPolicy returns the policy used when configuration does not
// override it.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    30 * time.Second,
	}
}

// withDefaults fills zero fields from DefaultRetryPolicy.
func (p RetryPolicy) withDefaults() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = def.BaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = def.MaxDelay
	}
	return p
}

// Backoff returns the delay before the retry following the given attempt
// (1-based): BaseDelay * 2^(attempt-1), capped at MaxDelay, scaled by a
// jitter factor in [0.5, 1.0].
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	backoff := float64(p.BaseDelay) * math.Pow(2, float64(attempt-1))
	if capped := float64(p.MaxDelay); backoff > capped {
		backoff = capped
	}

	jitter := 0.5 + rand.Float64()*0.5
	return time.Duration(backoff * jitter)
}

// sleep waits for the given delay or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
