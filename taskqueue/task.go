package taskqueue

import (
	"context"
	"time"
)

// Execute is a unit of async work. The context carries the task's timeout;
// implementations should honor cancellation where they can, but the queue
// stops waiting at the deadline regardless.
type Execute func(ctx context.Context) (any, error)

// Task is a queued unit of work. The queue owns the task exclusively until
// it reaches a terminal state; retries mutate the task in place rather than
// producing intermediate results.
type Task struct {
	ID          string
	Execute     Execute
	Priority    int
	Retries     int
	MaxRetries  int
	Timeout     time.Duration
	CreatedAt   time.Time
	StartedAt   time.Time
	CompletedAt time.Time
	LastErr     error
}

// Result is the terminal outcome of a task. Written exactly once: retries
// overwrite the task's counters, never prior results.
type Result struct {
	TaskID        string
	Success       bool
	Value         any
	Err           error
	Retries       int
	ExecutionTime time.Duration
}

// SubmitOptions carries the per-task knobs accepted by Submit.
type SubmitOptions struct {
	// Priority orders pending work, higher first. Ties run in submission
	// order.
	Priority int
	// MaxRetries is the number of additional attempts after a failure.
	MaxRetries int
	// Timeout bounds a single attempt. Zero uses the queue default.
	Timeout time.Duration
}

// Status is a point-in-time snapshot of queue state.
type Status struct {
	Running   bool
	Pending   int
	Active    int
	Completed int
}
