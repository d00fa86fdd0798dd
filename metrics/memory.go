package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/poiesic/surge/core"
)

// MemoryMonitor reports memory pressure as a usage fraction and exposes a
// garbage-collection hook. Implementations must be safe for concurrent use.
type MemoryMonitor interface {
	// Usage returns current memory usage as a fraction in [0, 1].
	Usage() float64

	// ForceGC requests an immediate garbage collection.
	ForceGC()
}

// runtimeMonitor reads memory usage from the Go runtime.
type runtimeMonitor struct {
	budget uint64
}

var _ MemoryMonitor = (*runtimeMonitor)(nil)

// NewRuntimeMonitor creates a monitor backed by runtime.ReadMemStats.
// budget is the heap byte budget usage is measured against; when 0, usage
// is measured against the memory the runtime obtained from the OS.
func NewRuntimeMonitor(budget uint64) MemoryMonitor {
	return &runtimeMonitor{budget: budget}
}

func (r *runtimeMonitor) Usage() float64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	budget := r.budget
	if budget == 0 {
		budget = stats.Sys
	}
	if budget == 0 {
		return 0
	}
	usage := float64(stats.HeapAlloc) / float64(budget)
	if usage > 1 {
		usage = 1
	}
	return usage
}

func (r *runtimeMonitor) ForceGC() {
	runtime.GC()
}

// WaitForResources blocks until memory usage drops below threshold,
// polling at pollInterval. If maxWait elapses first, it fails with a
// ResourceExhaustedError; this is the fatal end of the backpressure
// spectrum, used to refuse admission rather than degrade further.
func (m *Manager) WaitForResources(ctx context.Context, threshold float64, pollInterval, maxWait time.Duration) error {
	deadline := time.Now().Add(maxWait)

	for {
		usage := m.monitor.Usage()
		if usage < threshold {
			return nil
		}

		if time.Now().After(deadline) {
			return &core.ResourceExhaustedError{Usage: usage, Threshold: threshold}
		}

		m.logger.Debug("waiting for memory to recover", "usage", usage, "threshold", threshold)

		timer := time.NewTimer(pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
