package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordingSleep(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return ctx.Err()
	}
}

func TestConfig_Delay(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, time.Second, cfg.Delay(0))
	assert.Equal(t, 2*time.Second, cfg.Delay(1))
	assert.Equal(t, 4*time.Second, cfg.Delay(2))
	assert.Equal(t, 8*time.Second, cfg.Delay(3))
	assert.Equal(t, 8*time.Second, cfg.Delay(7))
}

func TestDo_RetryScheduleThenHardError(t *testing.T) {
	var delays []time.Duration
	cfg := DefaultConfig()
	cfg.Sleep = recordingSleep(&delays)

	calls := 0
	throttled := errors.New("status 429")
	err := Do(context.Background(), cfg, func() error {
		calls++
		return throttled
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, throttled)
	assert.Equal(t, 4, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, delays)
}

func TestDo_SucceedsAfterRetry(t *testing.T) {
	var delays []time.Duration
	cfg := DefaultConfig()
	cfg.Sleep = recordingSleep(&delays)

	calls := 0
	err := Do(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return errors.New("rate limit")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, delays, 2)
}

func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	var delays []time.Duration
	cfg := DefaultConfig()
	cfg.Sleep = recordingSleep(&delays)
	cfg.Retryable = func(err error) bool { return false }

	boom := errors.New("forbidden")
	calls := 0
	err := Do(context.Background(), cfg, func() error {
		calls++
		return boom
	})

	assert.Equal(t, boom, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

func TestDoWithLog_ReportsEachRetry(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sleep = func(context.Context, time.Duration) error { return nil }

	var attempts []int
	err := DoWithLog(context.Background(), cfg, "entity-api", func() error {
		return errors.New("429")
	}, func(attempt int, err error, next time.Duration) {
		attempts = append(attempts, attempt)
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "entity-api: max retry attempts (4) exceeded")
	assert.Equal(t, []int{1, 2, 3}, attempts)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, DefaultConfig(), func() error {
		calls++
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}
