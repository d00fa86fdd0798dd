package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/surge/core"
)

// stubMonitor reports a fixed usage for deterministic tests.
type stubMonitor struct {
	usage   float64
	gcCalls int
}

func (s *stubMonitor) Usage() float64 { return s.usage }
func (s *stubMonitor) ForceGC()      { s.gcCalls++ }

func TestStats_Empty(t *testing.T) {
	m := NewManager()
	stats := m.Stats("")
	assert.Equal(t, Stats{}, stats, "no data yields zero stats")
}

func TestStats_Aggregates(t *testing.T) {
	m := NewManager()
	m.Record("write", 10*time.Millisecond, true, nil)
	m.Record("write", 20*time.Millisecond, true, nil)
	m.Record("write", 30*time.Millisecond, false, errors.New("boom"))
	m.Record("read", 100*time.Millisecond, true, nil)

	stats := m.Stats("write")
	assert.Equal(t, 3, stats.Count)
	assert.InDelta(t, 2.0/3.0, stats.SuccessRate, 1e-9)
	assert.Equal(t, 20*time.Millisecond, stats.Average)
	assert.Equal(t, 10*time.Millisecond, stats.Min)
	assert.Equal(t, 30*time.Millisecond, stats.Max)

	all := m.Stats("")
	assert.Equal(t, 4, all.Count)
}

func TestStats_Percentiles(t *testing.T) {
	m := NewManager()
	for i := 1; i <= 100; i++ {
		m.Record("op", time.Duration(i)*time.Millisecond, true, nil)
	}

	stats := m.Stats("op")
	// sorted[floor(100*0.95)] = sorted[95] = 96ms
	assert.Equal(t, 96*time.Millisecond, stats.P95)
	assert.Equal(t, 100*time.Millisecond, stats.P99)
}

func TestRecord_HistoryTruncation(t *testing.T) {
	m := NewManager(WithHistoryBounds(100, 50))
	for i := 0; i < 101; i++ {
		m.Record("op", time.Millisecond, true, nil)
	}

	stats := m.Stats("op")
	assert.Equal(t, 50, stats.Count, "overflow trims to most-recent trimTo entries")
}

func TestOptimizeBatchSize_AbovePressureHalves(t *testing.T) {
	m := NewManager(WithMemoryMonitor(&stubMonitor{usage: 0.85}))
	ctx := core.BatchContext{Domain: core.DomainDatabase, SubType: "qdrant"}

	size := m.OptimizeBatchSize(ctx, 100, OptimizeConfig{MemoryThreshold: 0.80, MinBatchSize: 10})
	assert.Equal(t, 50, size)

	persisted, ok := m.AdaptiveSize(ctx.Key())
	require.True(t, ok, "optimized size is persisted per context")
	assert.Equal(t, 50, persisted)
}

func TestOptimizeBatchSize_ClampsToMinimum(t *testing.T) {
	m := NewManager(WithMemoryMonitor(&stubMonitor{usage: 0.95}))
	ctx := core.BatchContext{Domain: core.DomainEmbedding, SubType: "openai"}

	size := m.OptimizeBatchSize(ctx, 15, OptimizeConfig{MemoryThreshold: 0.80, MinBatchSize: 10})
	assert.Equal(t, 10, size)
}

func TestOptimizeBatchSize_BelowThresholdUnchanged(t *testing.T) {
	m := NewManager(WithMemoryMonitor(&stubMonitor{usage: 0.40}))
	ctx := core.BatchContext{Domain: core.DomainDatabase, SubType: "neo4j"}

	size := m.OptimizeBatchSize(ctx, 100, OptimizeConfig{MemoryThreshold: 0.80, MinBatchSize: 10})
	assert.Equal(t, 100, size)

	_, ok := m.AdaptiveSize(ctx.Key())
	assert.False(t, ok, "no persistence when under threshold")
}

func TestOptimizeMemory_TrimsAndCollects(t *testing.T) {
	monitor := &stubMonitor{usage: 0.90}
	m := NewManager(WithMemoryMonitor(monitor), WithHistoryBounds(1000, 10))
	for i := 0; i < 100; i++ {
		m.Record("op", time.Millisecond, true, nil)
	}

	m.OptimizeMemory(0.80)

	assert.Equal(t, 10, m.Stats("op").Count)
	assert.Equal(t, 1, monitor.gcCalls)
}

func TestOptimizeMemory_NoopUnderThreshold(t *testing.T) {
	monitor := &stubMonitor{usage: 0.10}
	m := NewManager(WithMemoryMonitor(monitor))
	m.Record("op", time.Millisecond, true, nil)

	m.OptimizeMemory(0.80)

	assert.Equal(t, 1, m.Stats("op").Count)
	assert.Equal(t, 0, monitor.gcCalls)
}
