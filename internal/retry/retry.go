// Package retry implements the bounded exponential-backoff policy shared by
// read fetches and mutations.
package retry

import (
	"context"
	"time"

	"github.com/starford/ansuz/internal/apperr"
)

// Policy bounds how a failing operation is reattempted. The zero value is
// not valid; use DefaultPolicy or construct all fields explicitly.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// BaseDelay is the wait before the first retry; it doubles per attempt.
	BaseDelay time.Duration
	// MaxDelay caps the inter-attempt wait.
	MaxDelay time.Duration
}

// DefaultPolicy matches the system-wide fetch defaults: 3 retries after the
// initial attempt, doubling from 1s and capped at 30s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 4,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
	}
}

// Delay returns the wait before retry number n (1-based).
func (p Policy) Delay(n int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < n; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Do runs fn until it succeeds, returns a non-retryable error, the policy is
// exhausted, or ctx is cancelled. The last error is returned unwrapped so
// callers keep access to the typed status.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	var err error
	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= p.MaxAttempts || !apperr.Retryable(err) {
			return err
		}
		t := time.NewTimer(p.Delay(attempt))
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
