package util

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RetryOptions configures WithBackoff.
type RetryOptions struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	// Sleep is injectable for tests; nil means a ctx-aware time.After wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryOptions matches the provider retry contract: three attempts,
// 1s base delay, doubling between attempts.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxAttempts: 3,
		BaseDelay:   1000 * time.Millisecond,
		Multiplier:  2,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// WithBackoff runs operation up to opts.MaxAttempts times, sleeping
// BaseDelay, BaseDelay*Multiplier, ... between attempts. Errors classified as
// non-retryable (see IsRetryableError) fail immediately without consuming the
// remaining attempts. After the final attempt the original error is returned
// unchanged so the caller can map it to an HTTP status.
func WithBackoff(ctx context.Context, logger *zap.Logger, operation func() error, opts RetryOptions) error {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = time.Second
	}
	if opts.Multiplier <= 0 {
		opts.Multiplier = 2
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	delay := opts.BaseDelay

	var err error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		err = operation()
		if err == nil {
			return nil
		}

		retryable, errType := IsRetryableError(err)
		if !retryable {
			return err
		}
		if attempt == opts.MaxAttempts {
			return err
		}

		if logger != nil {
			logger.Warn("Operation failed, retrying",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", opts.MaxAttempts),
				zap.Duration("delay", delay),
				zap.String("error_type", errType),
				zap.Error(err),
			)
		}

		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			return sleepErr
		}
		delay = time.Duration(float64(delay) * opts.Multiplier)
	}

	return err
}
