package scraper

import (
	"context"
	"time"
)

// RetryConfig bounds a retry loop: a small fixed number of attempts with
// exponential delay doubling from BaseDelay.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryConfig suits quick idempotent preflight checks
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
	}
}

// Retry runs op until it succeeds, attempts are exhausted, or the context
// ends. Only for idempotent operations; a whole scraper invocation is never
// retried through this.
func Retry(ctx context.Context, cfg RetryConfig, op func() error) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	delay := cfg.BaseDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
		}

		if lastErr = op(); lastErr == nil {
			return nil
		}
	}

	return lastErr
}
