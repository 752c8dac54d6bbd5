// Package waiter provides bounded polling waits for external convergence.
package waiter

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/kompox/localdev/domain/model"
	"github.com/kompox/localdev/internal/logging"
)

// Condition reports whether the awaited state has been reached.
// A non-nil error is treated as transient and polling continues,
// unless it was wrapped with Stop.
type Condition func(ctx context.Context) (bool, error)

// Options tunes a wait. Zero values fall back to defaults.
type Options struct {
	Timeout     time.Duration // default 5m
	Interval    time.Duration // first poll interval, default 2s
	MaxInterval time.Duration // default 15s
	Multiplier  float64       // default 1.5

	// Clock and Timer replace the wall clock in tests.
	Clock backoff.Clock
	Timer backoff.Timer
}

func (o *Options) defaults() {
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Minute
	}
	if o.Interval <= 0 {
		o.Interval = 2 * time.Second
	}
	if o.MaxInterval <= 0 {
		o.MaxInterval = 15 * time.Second
	}
	if o.MaxInterval < o.Interval {
		o.MaxInterval = o.Interval
	}
	if o.Multiplier < 1 {
		o.Multiplier = 1.5
	}
	if o.Clock == nil {
		o.Clock = backoff.SystemClock
	}
}

var errNotReady = errors.New("not ready")

// Stop marks err as non-retryable; Poll returns it immediately.
func Stop(err error) error {
	return backoff.Permanent(err)
}

// Poll evaluates cond until it returns true or the timeout elapses.
// Reaching the timeout is not an error: it yields model.TimedOut so callers
// can degrade it to a warning. Errors are returned only for Stop-wrapped
// condition errors and context cancellation.
func Poll(ctx context.Context, opts Options, cond Condition) (model.Readiness, error) {
	opts.defaults()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = opts.Interval
	b.MaxInterval = opts.MaxInterval
	b.Multiplier = opts.Multiplier
	b.RandomizationFactor = 0
	b.MaxElapsedTime = opts.Timeout
	b.Clock = opts.Clock

	var lastErr error
	op := func() error {
		ok, err := cond(ctx)
		if err != nil {
			var perm *backoff.PermanentError
			if errors.As(err, &perm) {
				return err
			}
			lastErr = err
			return errNotReady
		}
		if !ok {
			return errNotReady
		}
		return nil
	}

	err := backoff.RetryNotifyWithTimer(op, backoff.WithContext(b, ctx), nil, opts.Timer)
	switch {
	case err == nil:
		return model.Ready, nil
	case errors.Is(err, errNotReady):
		if lastErr != nil {
			logging.FromContext(ctx).Debug(ctx, "Waiter:Poll/timeout", "lastErr", lastErr)
		}
		return model.TimedOut, nil
	default:
		return "", err
	}
}
