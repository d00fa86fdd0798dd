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


package metrics

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/poiesic/surge/core"
)

const (
	// DefaultHistoryCap is the maximum number of metrics kept in memory.
	DefaultHistoryCap = 10000
	// DefaultTrimTo is the number of most-recent metrics kept after the
	// history overflows. Truncation, not LRU: old entries go in bulk.
	DefaultTrimTo = 5000
)

// Metric is a single recorded operation outcome.
type Metric struct {
	Operation string
	Duration  time.Duration
	Success   bool
	Timestamp time.Time
	Error     string
}

// Stats is an aggregate derived on demand from the metric history.
type Stats struct {
	Count       int
	SuccessRate float64
	Average     time.Duration
	Min         time.Duration
	Max         time.Duration
	P95         time.Duration
	P99         time.Duration
}

// Manager records metrics and owns the per-context adaptive batch size map.
// All methods are safe for concurrent use.
type Manager struct {
	mu         sync.Mutex
	history    []Metric
	historyCap int
	trimTo     int

	sizeMu sync.Mutex
	sizes  map[string]int

	monitor MemoryMonitor
	logger  *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithMemoryMonitor sets the memory monitor used for optimization and
// backpressure. Default is a runtime.ReadMemStats based monitor.
func WithMemoryMonitor(monitor MemoryMonitor) Option {
	return func(m *Manager) {
		if monitor != nil {
			m.monitor = monitor
		}
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithHistoryBounds overrides the history capacity and trim target.
// Values <= 0 keep the defaults; trimTo is clamped below cap.
func WithHistoryBounds(cap, trimTo int) Option {
	return func(m *Manager) {
		if cap > 0 {
			m.historyCap = cap
		}
		if trimTo > 0 {
			m.trimTo = trimTo
		}
		if m.trimTo >= m.historyCap {
			m.trimTo = m.historyCap / 2
		}
	}
}

// NewManager creates a metrics manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		historyCap: DefaultHistoryCap,
		trimTo:     DefaultTrimTo,
		sizes:      make(map[string]int),
		monitor:    NewRuntimeMonitor(0),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Record appends an operation outcome to the bounded history.
func (m *Manager) Record(operation string, duration time.Duration, success bool, err error) {
	metric := Metric{
		Operation: operation,
		Duration:  duration,
		Success:   success,
		Timestamp: time.Now().UTC(),
	}
	if err != nil {
		metric.Error = err.Error()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.history = append(m.history, metric)
	if len(m.history) > m.historyCap {
		m.history = slices.Clone(m.history[len(m.history)-m.trimTo:])
	}
}

// Stats computes aggregate statistics over the history, optionally filtered
// by operation name. An empty operation matches everything. Returns zero
// stats when no metrics match.
func (m *Manager) Stats(operation string) Stats {
	m.mu.Lock()
	durations := make([]time.Duration, 0, len(m.history))
	successes := 0
	for _, metric := range m.history {
		if operation != "" && metric.Operation != operation {
			continue
		}
		durations = append(durations, metric.Duration)
		if metric.Success {
			successes++
		}
	}
	m.mu.Unlock()

	n := len(durations)
	if n == 0 {
		return Stats{}
	}

	slices.Sort(durations)

	var total time.Duration
	for _, d := range durations {
		total += d
	}

	return Stats{
		Count:       n,
		SuccessRate: float64(successes) / float64(n),
		Average:     total / time.Duration(n),
		Min:         durations[0],
		Max:         durations[n-1],
		P95:         durations[percentileIndex(n, 95)],
		P99:         durations[percentileIndex(n, 99)],
	}
}

// percentileIndex returns floor(n*pct/100) clamped to the last valid index.
// Integer arithmetic keeps floor exact where float math would not.
func percentileIndex(n, pct int) int {
	idx := n * pct / 100
	if idx >= n {
		idx = n - 1
	}
	return idx
}

// AdaptiveSize returns the persisted batch size for a context key, if any.
func (m *Manager) AdaptiveSize(key string) (int, bool) {
	m.sizeMu.Lock()
	defer m.sizeMu.Unlock()
	size, ok := m.sizes[key]
	return size, ok
}

// SetAdaptiveSize persists a batch size for a context key. Future batching
// calls against the same context reuse it.
func (m *Manager) SetAdaptiveSize(key string, size int) {
	m.sizeMu.Lock()
	defer m.sizeMu.Unlock()
	m.sizes[key] = size
}

// OptimizeConfig bounds the memory-driven batch size optimization.
type OptimizeConfig struct {
	// MemoryThreshold is the usage fraction above which batches shrink.
	MemoryThreshold float64
	// MinBatchSize is the floor for the halved size.
	MinBatchSize int
}

// OptimizeBatchSize shrinks a base batch size when memory usage is above
// the threshold: the size is halved (floored) down to MinBatchSize and
// persisted for the context so subsequent calls reuse it. Below the
// threshold the base size is returned unchanged.
func (m *Manager) OptimizeBatchSize(ctx core.BatchContext, baseSize int, cfg OptimizeConfig) int {
	usage := m.monitor.Usage()
	if usage <= cfg.MemoryThreshold {
		return baseSize
	}

	size := baseSize / 2
	if size < cfg.MinBatchSize {
		size = cfg.MinBatchSize
	}

	m.SetAdaptiveSize(ctx.Key(), size)
	m.logger.Debug("memory pressure, shrinking batch size",
		"context", ctx.Key(), "usage", usage, "threshold", cfg.MemoryThreshold,
		"base", baseSize, "optimized", size)
	return size
}

// OptimizeMemory trims the metric history and forces a garbage collection
// when usage exceeds the threshold. This is advisory backpressure: it only
// affects future batches and never pauses in-flight work.
func (m *Manager) OptimizeMemory(threshold float64) {
	usage := m.monitor.Usage()
	if usage <= threshold {
		return
	}

	m.mu.Lock()
	if len(m.history) > m.trimTo {
		m.history = slices.Clone(m.history[len(m.history)-m.trimTo:])
	}
	m.mu.Unlock()

	m.monitor.ForceGC()
	m.logger.Debug("memory pressure, trimmed metric history", "usage", usage, "threshold", threshold)
}
