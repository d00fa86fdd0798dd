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
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/poiesic/surge/core"
	"github.com/poiesic/surge/metrics"
	"github.com/poiesic/surge/strategy"
)

// EngineConfig holds the engine-wide defaults. It is validated eagerly at
// construction; there is no lazy re-initialization anywhere downstream.
type EngineConfig struct {
	MaxConcurrentOperations int
	DefaultBatchSize        int
	MaxBatchSize            int
	MemoryThreshold         float64
	RetryAttempts           int
	RetryDelay              time.Duration
	ProcessingTimeout       time.Duration
}

// DefaultEngineConfig returns the stock configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxConcurrentOperations: 5,
		DefaultBatchSize:        50,
		MaxBatchSize:            500,
		MemoryThreshold:         0.80,
		RetryAttempts:           3,
		RetryDelay:              time.Second,
		ProcessingTimeout:       5 * time.Minute,
	}
}

// Validate checks the configuration is complete and coherent.
func (c EngineConfig) Validate() error {
	if c.MaxConcurrentOperations <= 0 {
		return errors.New("engine config: MaxConcurrentOperations must be positive")
	}
	if c.DefaultBatchSize <= 0 {
		return errors.New("engine config: DefaultBatchSize must be positive")
	}
	if c.MaxBatchSize < c.DefaultBatchSize {
		return errors.New("engine config: MaxBatchSize cannot be below DefaultBatchSize")
	}
	if c.MemoryThreshold <= 0 || c.MemoryThreshold > 1 {
		return errors.New("engine config: MemoryThreshold must be in (0, 1]")
	}
	if c.RetryAttempts <= 0 {
		return errors.New("engine config: RetryAttempts must be positive")
	}
	if c.RetryDelay <= 0 {
		return errors.New("engine config: RetryDelay must be positive")
	}
	if c.ProcessingTimeout <= 0 {
		return errors.New("engine config: ProcessingTimeout must be positive")
	}
	return nil
}

// Engine composes the strategy registry and metrics manager into the
// batch-processing entry point. One engine instance is the canonical
// owner of the per-context adaptive batch size state (through its metrics
// manager); nothing else mutates it.
type Engine struct {
	config   EngineConfig
	registry *strategy.Registry
	metrics  *metrics.Manager
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRegistry injects a custom strategy registry.
func WithRegistry(registry *strategy.Registry) EngineOption {
	return func(e *Engine) {
		if registry != nil {
			e.registry = registry
		}
	}
}

// WithMetricsManager injects a custom metrics manager.
func WithMetricsManager(manager *metrics.Manager) EngineOption {
	return func(e *Engine) {
		if manager != nil {
			e.metrics = manager
		}
	}
}

// WithEngineLogger sets a custom logger. Default is slog.Default().
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an engine from an eagerly-validated configuration.
func NewEngine(cfg EngineConfig, opts ...EngineOption) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		config:   cfg,
		registry: strategy.NewRegistry(),
		metrics:  metrics.NewManager(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Metrics exposes the engine's metrics manager.
func (e *Engine) Metrics() *metrics.Manager { return e.metrics }

// Registry exposes the engine's strategy registry.
func (e *Engine) Registry() *strategy.Registry { return e.registry }

// Config returns the engine configuration.
func (e *Engine) Config() EngineConfig { return e.config }

// ProcessOptions carries the per-call knobs for ProcessBatches.
type ProcessOptions struct {
	// BatchSize overrides strategy-derived sizing when positive.
	BatchSize int
	// MaxConcurrency overrides the engine default when positive.
	MaxConcurrency int
	// Context selects the strategy policy and adaptive size slot.
	Context core.BatchContext
	// EnableRetry retries failed batches per the context's policy.
	EnableRetry bool
	// MaxRetries is the number of additional attempts per batch. Zero
	// uses the engine's RetryAttempts as the total attempt budget.
	MaxRetries int
	// RetryDelay overrides the policy's backoff with a fixed exponential
	// schedule based on this delay.
	RetryDelay time.Duration
	// EnableMonitoring records a metric per batch attempt.
	EnableMonitoring bool
	// OperationName names recorded metrics. Defaults to
	// "process-<domain:subtype>".
	OperationName string
}

// ProcessBatches chunks items per the context's policy, runs the chunks in
// concurrency-bounded waves, and feeds the observed latency back into the
// adaptive batch size for the context. Results are flattened in item
// order. On partial failure the successful results are returned together
// with a WaveError.
func ProcessBatches[T, R any](ctx context.Context, e *Engine, items []T, processor Processor[T, R], opts ProcessOptions) ([]R, error) {
	if processor == nil {
		return nil, ErrNilProcessor
	}
	if len(items) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.ProcessingTimeout)
	defer cancel()

	policy := e.registry.Get(opts.Context)
	key := opts.Context.Key()

	size := opts.BatchSize
	if size <= 0 {
		if adaptive, ok := e.metrics.AdaptiveSize(key); ok {
			size = adaptive
		} else {
			size = policy.OptimalBatchSize(len(items), opts.Context)
		}
	}
	optimized := e.metrics.OptimizeBatchSize(opts.Context, size, metrics.OptimizeConfig{
		MemoryThreshold: e.config.MemoryThreshold,
		MinBatchSize:    policy.MinBatchSize(),
	})
	memoryConstrained := optimized < size
	size = optimized

	concurrency := opts.MaxConcurrency
	if concurrency <= 0 {
		concurrency = e.config.MaxConcurrentOperations
	}

	opName := opts.OperationName
	if opName == "" {
		opName = "process-" + key
	}

	batches := CreateBatches(items, size)
	e.logger.Debug("processing batches",
		"context", key, "items", len(items), "batchSize", size,
		"batches", len(batches), "concurrency", concurrency)

	var totalNanos, processed atomic.Int64

	run := func(ctx context.Context, batchItems []T) ([]R, error) {
		attempt := 0
		op := func(ctx context.Context) ([]R, error) {
			attempt++
			call := func(ctx context.Context) ([]R, error) {
				start := time.Now()
				out, err := processor(ctx, batchItems)
				totalNanos.Add(int64(time.Since(start)))
				processed.Add(1)
				if err != nil {
					// Driver and HTTP errors enter the taxonomy here.
					return out, core.Classify(err)
				}
				return out, nil
			}
			if opts.EnableMonitoring {
				name := opName
				if opts.EnableRetry {
					name = AttemptName(opName, attempt)
				}
				return ExecuteWithMonitoring(ctx, e.metrics, call, name)
			}
			return call(ctx)
		}

		if !opts.EnableRetry {
			return op(ctx)
		}

		maxAttempts := e.config.RetryAttempts
		if opts.MaxRetries > 0 {
			maxAttempts = opts.MaxRetries + 1
		}
		if opts.RetryDelay > 0 {
			cfg := RetryConfig{
				MaxAttempts: maxAttempts,
				BaseDelay:   opts.RetryDelay,
				Jitter:      true,
			}
			return ExecuteWithRetryIf(ctx, op, opName, cfg, policy.ShouldRetry)
		}
		return retryWithPolicy(ctx, op, opName, maxAttempts, policy)
	}

	results, err := ExecuteConcurrently(ctx, batches, run, concurrency)

	// Memory pressure takes precedence over performance feedback. The
	// optimizer already persisted the shrunk size for this context, and
	// adjusting it from batch latency in the same run would overwrite it
	// before the pressure had a chance to clear.
	if n := processed.Load(); n > 0 && !memoryConstrained {
		avg := time.Duration(totalNanos.Load() / n)
		if adjusted := policy.AdjustBatchSize(avg, size); adjusted != size {
			e.metrics.SetAdaptiveSize(key, adjusted)
			e.logger.Debug("adjusted batch size from performance",
				"context", key, "avgBatchTime", avg, "from", size, "to", adjusted)
		}
	}

	return results, err
}

// retryWithPolicy mirrors ExecuteWithRetryIf but takes both the retry
// decision and the backoff schedule from the strategy policy.
func retryWithPolicy[R any](ctx context.Context, op func(ctx context.Context) (R, error), name string, maxAttempts int, policy strategy.Policy) (R, error) {
	var zero R
	if maxAttempts <= 0 {
		return zero, ErrInvalidMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == maxAttempts || !policy.ShouldRetry(err, attempt) {
			break
		}

		delay := policy.RetryDelay(attempt)
		slog.Debug("batch failed, will retry",
			"operation", name, "attempt", attempt, "delay", delay, "error", err)

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
