// Package pollutil implements the bounded, exponential-backoff polling
// loop used by every get-side operation: a minimum interval to avoid
// hammering the transport, a maximum interval to avoid sleeping through a
// publication, and a caller-supplied deadline that governs total wall
// time. Cancellation of ctx must abandon the poll promptly.
package pollutil

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultTimeout is used whenever a caller passes zero.
const DefaultTimeout = 30 * time.Second

const (
	minInterval = 200 * time.Millisecond
	maxInterval = 5 * time.Second
)

// Permanent wraps err so Poll stops retrying immediately instead of
// swallowing it as "not yet available". Used for non-retryable failures
// such as a decode error — those are never worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Fetch attempts a single poll iteration. It returns (value, true, nil) on a
// hit, (zero, false, nil) when nothing is published yet (keep polling), or
// a non-nil error — wrap with Permanent to abort the whole poll instead of
// retrying it as a transient condition.
type Fetch[T any] func(ctx context.Context) (value T, found bool, err error)

// Poll runs fetch repeatedly with exponential backoff until it reports a
// hit, returns a permanent error, or ctx/timeout expires. On deadline
// expiry with no hit, Poll returns (zero, nil) — "absent", not an error.
func Poll[T any](ctx context.Context, timeout time.Duration, fetch Fetch[T]) (T, error) {
	var zero T
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = minInterval
	bo.MaxInterval = maxInterval
	bo.MaxElapsedTime = 0 // ctx's deadline governs total wall time, not the backoff policy

	var result T
	var hit bool
	op := func() error {
		v, ok, err := fetch(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return errNotYet
		}
		result, hit = v, true
		return nil
	}

	err := backoff.Retry(op, backoff.WithContext(bo, ctx))
	if hit {
		return result, nil
	}
	if err != nil && err != errNotYet && ctx.Err() == nil {
		// backoff.Retry returns a Permanent error already unwrapped; it only
		// stops with ctx still live for such an error.
		return zero, err
	}
	// Otherwise backoff gave up on the deadline (err is ctx.Err()) —
	// treated as "absent", not an error.
	return zero, nil
}

var errNotYet = transientErr{}

type transientErr struct{}

func (transientErr) Error() string { return "pollutil: not yet available" }
