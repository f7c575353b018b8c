package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"trainsweep/internal/logging"
)

// RetryRunner re-runs failed commands on top of another Runner.
type RetryRunner struct {
	next        Runner
	maxAttempts int
	delay       time.Duration
	retryOn     func(error) bool
	logger      *slog.Logger
}

// RetryOption configures a RetryRunner.
type RetryOption func(*RetryRunner)

// WithMaxAttempts sets the total number of attempts, including the first.
func WithMaxAttempts(n int) RetryOption {
	return func(r *RetryRunner) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithDelay sets the pause between attempts.
func WithDelay(d time.Duration) RetryOption {
	return func(r *RetryRunner) {
		if d >= 0 {
			r.delay = d
		}
	}
}

// WithRetryCondition overrides which errors are retried.
func WithRetryCondition(fn func(error) bool) RetryOption {
	return func(r *RetryRunner) {
		r.retryOn = fn
	}
}

// WithLogger sets the logger used for retry notices.
func WithLogger(logger *slog.Logger) RetryOption {
	return func(r *RetryRunner) {
		r.logger = logging.NewComponentLogger(logger, "runner")
	}
}

// NewRetryRunner wraps next. By default only non-zero exits are retried;
// launch failures and cancellation are returned immediately.
func NewRetryRunner(next Runner, opts ...RetryOption) *RetryRunner {
	r := &RetryRunner{
		next:        next,
		maxAttempts: 1,
		delay:       time.Second,
		retryOn:     IsExitError,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsExitError reports whether err is a non-zero process exit.
func IsExitError(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr)
}

// Run executes cmd up to the configured number of attempts.
func (r *RetryRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	var (
		result Result
		err    error
	)
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		result, err = r.next.Run(ctx, cmd)
		result.Attempts = attempt
		if err == nil || attempt == r.maxAttempts {
			return result, err
		}
		if r.retryOn != nil && !r.retryOn(err) {
			return result, err
		}

		logging.WithContext(ctx, r.logger).Warn("command failed, retrying",
			logging.String("command", cmd.String()),
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", r.maxAttempts),
			logging.Duration("delay", r.delay),
			logging.Error(err),
		)

		select {
		case <-ctx.Done():
			return result, fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		case <-time.After(r.delay):
		}
	}
	return result, err
}
