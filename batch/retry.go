// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package batch

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"
)

// RetryConfig controls ExecuteWithRetry.
type RetryConfig struct {
	// MaxAttempts is the total number of calls, including the first.
	MaxAttempts int
	// BaseDelay is the delay before the second attempt.
	BaseDelay time.Duration
	// MaxDelay caps the computed backoff. Zero means 30s.
	MaxDelay time.Duration
	// BackoffFactor multiplies the delay per attempt. Zero means 2.
	BackoffFactor float64
	// Jitter multiplies each delay by a uniform factor in [0.5, 1.0].
	Jitter bool
}

// DefaultRetryConfig returns the engine-wide retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		BaseDelay:     time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2,
		Jitter:        true,
	}
}

func (c RetryConfig) normalized() RetryConfig {
	if c.BaseDelay <= 0 {
		c.BaseDelay = time.Second
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 30 * time.Second
	}
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = 2
	}
	return c
}

// Delay returns the backoff before attempt attempt+1, where attempt counts
// the calls already made. Ignoring jitter the sequence is non-decreasing
// and capped at MaxDelay.
func (c RetryConfig) Delay(attempt int) time.Duration {
	c = c.normalized()

	delay := float64(c.BaseDelay) * math.Pow(c.BackoffFactor, float64(attempt-1))
	if delay > float64(c.MaxDelay) {
		delay = float64(c.MaxDelay)
	}
	if c.Jitter {
		delay *= 0.5 + 0.5*rand.Float64()
	}
	return time.Duration(delay)
}

// ExecuteWithRetry runs op up to cfg.MaxAttempts times, sleeping the
// configured backoff between attempts. The error of the final attempt is
// returned on exhaustion. The sleep honors context cancellation.
func ExecuteWithRetry[R any](ctx context.Context, op func(ctx context.Context) (R, error), name string, cfg RetryConfig) (R, error) {
	return ExecuteWithRetryIf(ctx, op, name, cfg, nil)
}

// ExecuteWithRetryIf is ExecuteWithRetry with a retry predicate. When
// retryable is non-nil and returns false for a failed attempt, retrying
// stops early and that error is returned.
func ExecuteWithRetryIf[R any](ctx context.Context, op func(ctx context.Context) (R, error), name string, cfg RetryConfig, retryable func(err error, attempt int) bool) (R, error) {
	var zero R
	if cfg.MaxAttempts <= 0 {
		return zero, ErrInvalidMaxAttempts
	}
	cfg = cfg.normalized()

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		result, err := op(ctx)
		if err == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "operation", name, "attempt", attempt)
			}
			return result, nil
		}
		lastErr = err

		if attempt == cfg.MaxAttempts {
			break
		}
		if retryable != nil && !retryable(err, attempt) {
			slog.Debug("operation failed, not retryable", "operation", name, "attempt", attempt, "error", err)
			break
		}

		delay := cfg.Delay(attempt)
		slog.Debug("operation failed, will retry",
			"operation", name, "attempt", attempt, "maxAttempts", cfg.MaxAttempts,
			"delay", delay, "error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, lastErr
}
