package query

import (
	"context"

	"github.com/starford/ansuz/internal/retry"
)

// Mutation executes a write against the content API and, on success,
// invalidates the cache keys its result affects. Invalidation is the sole
// mechanism by which a write becomes visible to subsequent reads; mutations
// never write cache entries directly.
type Mutation[In, Out any] struct {
	// Fn performs the write. Required.
	Fn func(ctx context.Context, in In) (Out, error)
	// Retry bounds reattempts; nil falls back to the cache's configured
	// policy, the same one reads use. Only transient failures are
	// reattempted, per the shared retryability rules. Writes whose input
	// cannot be replayed (a consumed stream, for instance) should set a
	// one-attempt policy.
	Retry *retry.Policy
	// Invalidates lists the keys marked stale on success, before OnSuccess
	// runs.
	Invalidates []Key
	// OnSuccess, if set, observes the successful result (e.g. for further
	// targeted invalidation).
	OnSuccess func(ctx context.Context, in In, out Out)
	// OnError, if set, observes the final error for UI-level reporting.
	OnError func(ctx context.Context, in In, err error)
}

// Do runs the mutation against cache c, retrying transient failures under
// m.Retry or, when unset, the cache's default policy.
func (m *Mutation[In, Out]) Do(ctx context.Context, c *Cache, in In) (Out, error) {
	var out Out
	run := func(rctx context.Context) error {
		v, err := m.Fn(rctx, in)
		if err == nil {
			out = v
		}
		return err
	}

	policy := c.cfg.Retry
	if m.Retry != nil {
		policy = *m.Retry
	}
	err := retry.Do(ctx, policy, run)

	if err != nil {
		if m.OnError != nil {
			m.OnError(ctx, in, err)
		}
		var zero Out
		return zero, err
	}

	if len(m.Invalidates) > 0 {
		c.Invalidate(m.Invalidates...)
	}
	if m.OnSuccess != nil {
		m.OnSuccess(ctx, in, out)
	}
	return out, nil
}
