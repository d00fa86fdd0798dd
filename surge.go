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


// Package surge is an adaptive batch-execution engine for heterogeneous
// workloads: vector-database writes, graph-database writes, embedding
// provider calls and pairwise similarity. The root package wires the
// metrics manager, the strategy registry and the batch executor into a
// single entry point; the subpackages can also be used directly.
package surge

import (
	"context"
	"log/slog"

	"github.com/poiesic/surge/ai"
	"github.com/poiesic/surge/batch"
	"github.com/poiesic/surge/cache"
	"github.com/poiesic/surge/metrics"
	"github.com/poiesic/surge/similarity"
	"github.com/poiesic/surge/strategy"
	"github.com/poiesic/surge/taskqueue"
)

// Config holds the engine-wide defaults. See batch.EngineConfig.
type Config = batch.EngineConfig

// DefaultConfig returns the stock configuration: 5 concurrent
// operations, batch sizes 50 to 500, memory threshold 0.80, 3 retry
// attempts with a 1s base delay and a 5 minute processing timeout.
func DefaultConfig() Config {
	return batch.DefaultEngineConfig()
}

// Engine is the top-level handle. It owns a metrics manager, a strategy
// registry and the batch executor built on them.
type Engine struct {
	batch    *batch.Engine
	metrics  *metrics.Manager
	registry *strategy.Registry
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	metrics  *metrics.Manager
	registry *strategy.Registry
	logger   *slog.Logger
}

// WithMetricsManager injects a custom metrics manager.
func WithMetricsManager(manager *metrics.Manager) Option {
	return func(o *engineOptions) {
		if manager != nil {
			o.metrics = manager
		}
	}
}

// WithRegistry injects a custom strategy registry.
func WithRegistry(registry *strategy.Registry) Option {
	return func(o *engineOptions) {
		if registry != nil {
			o.registry = registry
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *engineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New creates an engine from an eagerly-validated configuration.
func New(cfg Config, opts ...Option) (*Engine, error) {
	options := &engineOptions{
		metrics:  metrics.NewManager(),
		registry: strategy.NewRegistry(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	executor, err := batch.NewEngine(cfg,
		batch.WithMetricsManager(options.metrics),
		batch.WithRegistry(options.registry),
		batch.WithEngineLogger(options.logger),
	)
	if err != nil {
		return nil, err
	}

	return &Engine{
		batch:    executor,
		metrics:  options.metrics,
		registry: options.registry,
		logger:   options.logger,
	}, nil
}

// Metrics exposes the engine's metrics manager.
func (e *Engine) Metrics() *metrics.Manager { return e.metrics }

// Registry exposes the engine's strategy registry.
func (e *Engine) Registry() *strategy.Registry { return e.registry }

// Batch exposes the underlying batch executor for use with the generic
// package-level functions in the batch package.
func (e *Engine) Batch() *batch.Engine { return e.batch }

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.batch.Config() }

// ProcessBatches chunks items per the context's strategy policy, runs
// the chunks in concurrency-bounded waves, and feeds observed latency
// back into the adaptive batch size. See batch.ProcessBatches.
func ProcessBatches[T, R any](ctx context.Context, e *Engine, items []T, processor batch.Processor[T, R], opts batch.ProcessOptions) ([]R, error) {
	return batch.ProcessBatches(ctx, e.batch, items, processor, opts)
}

// ExecuteWithRetry runs op with exponential backoff.
// See batch.ExecuteWithRetry.
func ExecuteWithRetry[R any](ctx context.Context, op func(ctx context.Context) (R, error), name string, cfg batch.RetryConfig) (R, error) {
	return batch.ExecuteWithRetry(ctx, op, name, cfg)
}

// ExecuteWithMonitoring runs op and records a metric in the engine's
// manager whether it succeeds or fails.
func ExecuteWithMonitoring[R any](ctx context.Context, e *Engine, op func(ctx context.Context) (R, error), name string) (R, error) {
	return batch.ExecuteWithMonitoring(ctx, e.metrics, op, name)
}

// NewTaskQueue creates a priority task queue sized to the engine's
// concurrency limit. The queue drains continuously, unlike the wave
// executor behind ProcessBatches.
func (e *Engine) NewTaskQueue(opts ...taskqueue.QueueOption) (*taskqueue.Queue, error) {
	return taskqueue.NewQueue(e.batch.Config().MaxConcurrentOperations, opts...)
}

// NewSimilarityOptimizer creates a similarity optimizer backed by this
// engine. A nil store falls back to an in-memory cache.
func (e *Engine) NewSimilarityOptimizer(embedder ai.Embedder, store cache.Store, opts ...similarity.OptimizerOption) (*similarity.Optimizer, error) {
	return similarity.NewOptimizer(embedder, store, e.batch, opts...)
}
