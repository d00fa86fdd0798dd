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


package taskqueue

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/surge/core"
)

const (
	// DefaultTaskTimeout bounds a single attempt when the submitter does
	// not set one.
	DefaultTaskTimeout = 5 * time.Minute
	// DefaultPollInterval is how often WaitForCompletion re-checks state.
	DefaultPollInterval = 50 * time.Millisecond
)

// Queue is a priority-ordered, bounded-concurrency task executor. Unlike
// the wave executor it drains continuously: a new task starts the moment a
// worker slot frees up. All methods are safe for concurrent use.
type Queue struct {
	mu             sync.Mutex
	pending        []*Task
	active         map[string]*Task
	results        []Result
	running        bool
	maxConcurrency int

	pool         *ants.Pool
	taskTimeout  time.Duration
	pollInterval time.Duration
	logger       *slog.Logger
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) QueueOption {
	return func(q *Queue) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// WithTaskTimeout sets the default per-attempt timeout for tasks that do
// not carry their own.
func WithTaskTimeout(timeout time.Duration) QueueOption {
	return func(q *Queue) {
		if timeout > 0 {
			q.taskTimeout = timeout
		}
	}
}

// WithPollInterval sets the WaitForCompletion polling interval.
func WithPollInterval(interval time.Duration) QueueOption {
	return func(q *Queue) {
		if interval > 0 {
			q.pollInterval = interval
		}
	}
}

// NewQueue creates a queue with at most maxConcurrency tasks in flight.
func NewQueue(maxConcurrency int, opts ...QueueOption) (*Queue, error) {
	if maxConcurrency <= 0 {
		return nil, ErrInvalidConcurrency
	}

	pool, err := ants.NewPool(maxConcurrency)
	if err != nil {
		return nil, err
	}

	q := &Queue{
		active:         make(map[string]*Task),
		maxConcurrency: maxConcurrency,
		pool:           pool,
		taskTimeout:    DefaultTaskTimeout,
		pollInterval:   DefaultPollInterval,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q, nil
}

// Submit enqueues a unit of work and returns its task ID. Work submitted
// before Start accumulates and runs once the queue starts.
func (q *Queue) Submit(execute Execute, opts SubmitOptions) (string, error) {
	if execute == nil {
		return "", ErrNilExecute
	}

	task := &Task{
		ID:         uuid.NewString(),
		Execute:    execute,
		Priority:   opts.Priority,
		MaxRetries: opts.MaxRetries,
		Timeout:    opts.Timeout,
		CreatedAt:  time.Now().UTC(),
	}

	q.mu.Lock()
	q.insertByPriority(task)
	q.mu.Unlock()

	q.dispatch()
	return task.ID, nil
}

// insertByPriority places a task after every pending task of equal or
// higher priority, preserving FIFO order for ties. Caller holds the lock.
func (q *Queue) insertByPriority(task *Task) {
	idx := len(q.pending)
	for idx > 0 && q.pending[idx-1].Priority < task.Priority {
		idx--
	}
	q.pending = slices.Insert(q.pending, idx, task)
}

// Start begins draining pending work.
func (q *Queue) Start() {
	q.mu.Lock()
	q.running = true
	q.mu.Unlock()
	q.dispatch()
}

// Stop halts the queue and discards all pending work immediately. Tasks
// already in flight are not cancelled; they run to completion or timeout
// and their results are still recorded.
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	dropped := len(q.pending)
	q.running = false
	q.pending = nil
	if dropped > 0 {
		q.logger.Debug("queue stopped, pending work discarded", "dropped", dropped)
	}
}

// dispatch launches pending tasks while worker slots are free.
func (q *Queue) dispatch() {
	for {
		q.mu.Lock()
		if !q.running || len(q.pending) == 0 || len(q.active) >= q.maxConcurrency {
			q.mu.Unlock()
			return
		}

		task := q.pending[0]
		q.pending = q.pending[1:]
		q.active[task.ID] = task
		q.mu.Unlock()

		if err := q.pool.Submit(func() { q.runTask(task) }); err != nil {
			// Pool rejected the task (released or overloaded); terminal.
			q.complete(task, nil, err)
		}
	}
}

// runTask executes one attempt, racing the operation against its timeout.
// A timeout does not cancel the underlying operation beyond the context;
// it stops the wait and deems the attempt failed.
func (q *Queue) runTask(task *Task) {
	timeout := task.Timeout
	if timeout <= 0 {
		timeout = q.taskTimeout
	}

	q.mu.Lock()
	task.StartedAt = time.Now().UTC()
	q.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	type outcome struct {
		value any
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		value, err := task.Execute(ctx)
		done <- outcome{value: value, err: err}
	}()

	var value any
	var err error
	select {
	case out := <-done:
		value, err = out.value, out.err
		if err != nil && errors.Is(err, context.DeadlineExceeded) {
			err = &core.TimeoutError{Cause: err}
		}
	case <-ctx.Done():
		err = &core.TimeoutError{Cause: ctx.Err()}
	}

	q.complete(task, value, err)
}

// complete settles one attempt: either reinserts the task for retry or
// records its terminal result.
func (q *Queue) complete(task *Task, value any, err error) {
	q.mu.Lock()
	delete(q.active, task.ID)

	if err != nil && task.Retries < task.MaxRetries && q.running {
		task.Retries++
		task.LastErr = err
		// Retries jump the priority order on purpose: finishing work
		// already in flight beats strict fairness.
		q.pending = slices.Insert(q.pending, 0, task)
		q.mu.Unlock()

		q.logger.Debug("task failed, requeued for retry",
			"task", task.ID, "attempt", task.Retries, "maxRetries", task.MaxRetries, "error", err)
		// Re-dispatch from a fresh goroutine. This runs on the worker that
		// just finished the attempt, and pool.Submit blocks until a worker
		// frees up; submitting from here would wait on our own slot.
		go q.dispatch()
		return
	}

	task.CompletedAt = time.Now().UTC()
	task.LastErr = err
	if task.StartedAt.IsZero() {
		// Task never ran (pool rejected it); zero execution time.
		task.StartedAt = task.CompletedAt
	}
	q.results = append(q.results, Result{
		TaskID:        task.ID,
		Success:       err == nil,
		Value:         value,
		Err:           err,
		Retries:       task.Retries,
		ExecutionTime: task.CompletedAt.Sub(task.StartedAt),
	})
	q.mu.Unlock()

	// Same as the retry branch: never submit from the worker goroutine.
	go q.dispatch()
}

// WaitForCompletion blocks until all pending and active work is done or
// the timeout elapses, polling at the configured interval. It re-kicks the
// drain loop on each poll in case workers went idle with work remaining.
// On timeout it returns the results completed so far together with a
// WaitTimeoutError carrying the outstanding counts.
func (q *Queue) WaitForCompletion(timeout time.Duration) ([]Result, error) {
	return q.WaitForCompletionContext(context.Background(), timeout)
}

// WaitForCompletionContext is WaitForCompletion with caller-controlled
// cancellation: once the context is done the wait is abandoned and the
// results completed so far are returned with the context's error.
func (q *Queue) WaitForCompletionContext(ctx context.Context, timeout time.Duration) ([]Result, error) {
	deadline := time.Now().Add(timeout)

	for {
		q.mu.Lock()
		pending, activeCount := len(q.pending), len(q.active)
		q.mu.Unlock()

		if pending == 0 && activeCount == 0 {
			return q.Results(), nil
		}

		if time.Now().After(deadline) {
			return q.Results(), &WaitTimeoutError{Pending: pending, Active: activeCount}
		}

		q.dispatch()

		timer := time.NewTimer(q.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return q.Results(), ctx.Err()
		case <-timer.C:
		}
	}
}

// Results returns a copy of all recorded results in completion order.
func (q *Queue) Results() []Result {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.results)
}

// Status returns a snapshot of queue state.
func (q *Queue) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Status{
		Running:   q.running,
		Pending:   len(q.pending),
		Active:    len(q.active),
		Completed: len(q.results),
	}
}

// Release stops the queue and frees the underlying worker pool. The queue
// must not be used afterwards.
func (q *Queue) Release() {
	q.Stop()
	q.pool.Release()
}
