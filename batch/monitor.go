package batch

import (
	"context"
	"strconv"
	"time"

	"github.com/poiesic/surge/metrics"
)

// ExecuteWithMonitoring runs op and records a metric for it, success or
// failure. When composed under ExecuteWithRetry, give each attempt a
// distinct name (see AttemptName) so per-attempt latencies stay visible.
func ExecuteWithMonitoring[R any](ctx context.Context, manager *metrics.Manager, op func(ctx context.Context) (R, error), name string) (R, error) {
	start := time.Now()
	result, err := op(ctx)
	manager.Record(name, time.Since(start), err == nil, err)
	return result, err
}

// AttemptName returns the metric name for one attempt of a retried
// operation, e.g. "embed-attempt-2".
func AttemptName(name string, attempt int) string {
	return name + "-attempt-" + strconv.Itoa(attempt)
}
