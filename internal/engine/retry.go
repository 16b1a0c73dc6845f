package engine

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/evanblasband/spectrum/pkg/spectrum"
)

const (
	// defaultRetries allows three attempts in total before a failure is
	// surfaced as terminal.
	defaultRetries       = 2
	defaultRetryInterval = 200 * time.Millisecond
)

// WithRetries overrides how many times a failed fetch or provider call is
// re-attempted before its error becomes terminal.
func WithRetries(retries uint64) Option {
	return func(engine *Engine) {
		engine.retries = retries
	}
}

// WithRetryInterval overrides the initial backoff interval, primarily for
// tests.
func WithRetryInterval(interval time.Duration) Option {
	return func(engine *Engine) {
		if interval > 0 {
			engine.retryInterval = interval
		}
	}
}

// withRetry runs one operation under the engine's bounded exponential
// backoff schedule. Only failures the taxonomy marks retryable are
// re-attempted; waiters on the surrounding single-flight computation never
// observe individual attempts.
func (e *Engine) withRetry(ctx context.Context, operation func() error) error {
	schedule := backoff.NewExponentialBackOff()
	schedule.InitialInterval = e.retryInterval

	return backoff.Retry(func() error {
		err := operation()
		if err == nil {
			return nil
		}
		if !spectrum.IsRetryable(err) {
			return backoff.Permanent(err)
		}

		return err
	}, backoff.WithContext(backoff.WithMaxRetries(schedule, e.retries), ctx))
}
