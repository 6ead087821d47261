package safe

import (
	"context"
	"fmt"
	"time"
)

// BackoffConfig bounds a retry loop: delay before attempt n is
// min(MaxDelay, InitialDelay * 2^(n-1)), and the loop fails after
// MaxAttempts attempts.
type BackoffConfig struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
}

// IndexingBackoff are the parameters for polling a freshly deployed account
// until it becomes queryable: 750ms initial delay doubling up to 20s, 19
// attempts, about four minutes in total.
var IndexingBackoff = BackoffConfig{
	InitialDelay: 750 * time.Millisecond,
	MaxDelay:     20 * time.Second,
	MaxAttempts:  19,
}

// Retry runs op until it succeeds, the attempt ceiling is reached, or the
// context is done. Per-attempt failures are recovered locally; only the last
// error propagates.
func Retry(ctx context.Context, cfg BackoffConfig, op func(ctx context.Context) error) error {
	if cfg.MaxAttempts < 1 {
		return fmt.Errorf("backoff: MaxAttempts must be >= 1")
	}
	delay := cfg.InitialDelay
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if lastErr = op(ctx); lastErr == nil {
			return nil
		}
		if attempt == cfg.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
	return fmt.Errorf("giving up after %d attempts: %w", cfg.MaxAttempts, lastErr)
}
