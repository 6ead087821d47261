package safe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastBackoff(attempts int) BackoffConfig {
	return BackoffConfig{
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		MaxAttempts:  attempts,
	}
}

func TestRetry(t *testing.T) {
	t.Run("first attempt succeeds", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), fastBackoff(5), func(ctx context.Context) error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("recovers after failures", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), fastBackoff(5), func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("not yet")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after the attempt ceiling", func(t *testing.T) {
		wantErr := errors.New("still broken")
		calls := 0
		err := Retry(context.Background(), fastBackoff(4), func(ctx context.Context) error {
			calls++
			return wantErr
		})
		require.Error(t, err)
		assert.Equal(t, 4, calls)
		assert.ErrorIs(t, err, wantErr)
		assert.Contains(t, err.Error(), "giving up after 4 attempts")
	})

	t.Run("context cancellation stops the loop", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := Retry(ctx, BackoffConfig{InitialDelay: time.Hour, MaxDelay: time.Hour, MaxAttempts: 10},
			func(ctx context.Context) error {
				calls++
				cancel()
				return errors.New("fail")
			})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})

	t.Run("zero attempts rejected", func(t *testing.T) {
		err := Retry(context.Background(), BackoffConfig{}, func(ctx context.Context) error { return nil })
		assert.Error(t, err)
	})
}
