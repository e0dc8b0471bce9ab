// Package retry provides bounded retry and polling combinators used for
// custody persistence attempts, transaction receipt waits, and the
// post-rental key recovery window.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTimeout indicates a polling ceiling was reached before the
	// condition became true.
	ErrTimeout = errors.New("retry: polling ceiling reached")

	// ErrNoAttempts indicates Do was called with zero or negative attempts.
	ErrNoAttempts = errors.New("retry: attempts must be positive")
)

// Backoff returns the delay to wait before retry attempt i (0-based).
// The delay is applied after a failed attempt, before the next one.
type Backoff func(i int) time.Duration

// Linear returns a backoff that grows linearly: start, 2*start, 3*start, ...
func Linear(start time.Duration) Backoff {
	return func(i int) time.Duration {
		return time.Duration(i+1) * start
	}
}

// Constant returns a backoff with a fixed delay between attempts.
func Constant(d time.Duration) Backoff {
	return func(int) time.Duration { return d }
}

// Do runs fn up to attempts times, sleeping per backoff between failures.
// It returns nil on the first success. On exhaustion it returns the last
// error from fn. A cancelled context aborts the wait and returns the
// context error wrapped around the last fn error, if any.
func Do(ctx context.Context, attempts int, backoff Backoff, fn func(ctx context.Context) error) error {
	if attempts <= 0 {
		return ErrNoAttempts
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return wrapCtxErr(err, lastErr)
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		// No sleep after the final attempt.
		if i == attempts-1 {
			break
		}
		if err := sleep(ctx, backoff(i)); err != nil {
			return wrapCtxErr(err, lastErr)
		}
	}
	return lastErr
}

// Poll runs fn every interval until it reports done, an error, or the
// ceiling elapses. fn returning (true, nil) stops polling with success.
// A non-nil error from fn stops polling immediately. When the ceiling is
// reached, Poll returns ErrTimeout.
//
// fn runs once immediately before the first interval wait.
func Poll(ctx context.Context, interval, ceiling time.Duration, fn func(ctx context.Context) (bool, error)) error {
	deadline := time.Now().Add(ceiling)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		done, err := fn(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		if time.Now().Add(interval).After(deadline) {
			return fmt.Errorf("%w: after %s", ErrTimeout, ceiling)
		}
		if err := sleep(ctx, interval); err != nil {
			return err
		}
	}
}

// sleep waits for d or until ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func wrapCtxErr(ctxErr, lastErr error) error {
	if lastErr == nil {
		return ctxErr
	}
	return fmt.Errorf("%w: last error: %w", ctxErr, lastErr)
}
