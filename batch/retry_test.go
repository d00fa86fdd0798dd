package batch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryConfig(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:   attempts,
		BaseDelay:     time.Millisecond,
		MaxDelay:      10 * time.Millisecond,
		BackoffFactor: 2,
	}
}

func TestExecuteWithRetry_FirstAttemptSucceeds(t *testing.T) {
	calls := 0
	result, err := ExecuteWithRetry(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	}, "op", fastRetryConfig(3))

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, calls)
}

func TestExecuteWithRetry_ExhaustsAttempts(t *testing.T) {
	boom := errors.New("permanent")
	calls := 0
	_, err := ExecuteWithRetry(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 0, boom
	}, "op", fastRetryConfig(3))

	require.Error(t, err)
	assert.Equal(t, boom, err, "last attempt's error propagates")
	assert.Equal(t, 3, calls, "exactly maxAttempts calls")
}

func TestExecuteWithRetry_SuccessStopsRetrying(t *testing.T) {
	calls := 0
	result, err := ExecuteWithRetry(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		if calls < 2 {
			return 0, errors.New("transient glitch")
		}
		return 7, nil
	}, "op", fastRetryConfig(5))

	require.NoError(t, err)
	assert.Equal(t, 7, result)
	assert.Equal(t, 2, calls)
}

func TestExecuteWithRetry_InvalidAttempts(t *testing.T) {
	_, err := ExecuteWithRetry(context.Background(), func(ctx context.Context) (int, error) {
		return 0, nil
	}, "op", fastRetryConfig(0))
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
}

func TestExecuteWithRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := ExecuteWithRetry(ctx, func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New("fails")
	}, "op", fastRetryConfig(10))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls, "cancellation interrupts the backoff sleep")
}

func TestExecuteWithRetryIf_PredicateStopsEarly(t *testing.T) {
	calls := 0
	_, err := ExecuteWithRetryIf(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("not worth retrying")
	}, "op", fastRetryConfig(5), func(err error, attempt int) bool {
		return false
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryConfig_DelayMonotoneAndCapped(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts:   10,
		BaseDelay:     100 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2,
		Jitter:        false,
	}

	var prev time.Duration
	for attempt := 1; attempt <= 12; attempt++ {
		delay := cfg.Delay(attempt)
		assert.GreaterOrEqual(t, delay, prev, "delay non-decreasing in attempt")
		assert.LessOrEqual(t, delay, cfg.MaxDelay)
		prev = delay
	}

	assert.Equal(t, 100*time.Millisecond, cfg.Delay(1))
	assert.Equal(t, 200*time.Millisecond, cfg.Delay(2))
	assert.Equal(t, 2*time.Second, cfg.Delay(12), "saturates at MaxDelay")
}

func TestRetryConfig_JitterRange(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts:   3,
		BaseDelay:     time.Second,
		MaxDelay:      time.Minute,
		BackoffFactor: 2,
		Jitter:        true,
	}

	for i := 0; i < 50; i++ {
		delay := cfg.Delay(1)
		assert.GreaterOrEqual(t, delay, 500*time.Millisecond)
		assert.LessOrEqual(t, delay, time.Second)
	}
}
