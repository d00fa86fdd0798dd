package watch

import (
	"log/slog"
	"sync"
	"time"
)

// EventType classifies a file-change event.
type EventType string

const (
	EventCreate EventType = "create"
	EventWrite  EventType = "write"
	EventRemove EventType = "remove"
	EventRename EventType = "rename"
)

// Event is a single observed file-system change.
type Event struct {
	Path      string
	Type      EventType
	Timestamp time.Time
}

const (
	// DefaultMinDelay is the shortest quiet period before a flush.
	DefaultMinDelay = 100 * time.Millisecond
	// DefaultMaxDelay is the longest quiet period before a flush.
	DefaultMaxDelay = 2 * time.Second
)

// Debouncer groups events and invokes a flush callback after a quiet
// period. The quiet period starts at MaxDelay for a single event and
// shrinks inversely with the backlog size, never below MinDelay.
//
// The flush callback runs on the debouncer's timer goroutine and must
// not call back into the debouncer.
type Debouncer struct {
	mu      sync.Mutex
	pending []Event
	timer   *time.Timer
	closed  bool

	flush    func([]Event)
	minDelay time.Duration
	maxDelay time.Duration
	logger   *slog.Logger
}

// DebouncerOption configures a Debouncer.
type DebouncerOption func(*Debouncer)

// WithMinDelay sets the lower clamp for the quiet period.
func WithMinDelay(d time.Duration) DebouncerOption {
	return func(db *Debouncer) {
		if d > 0 {
			db.minDelay = d
		}
	}
}

// WithMaxDelay sets the upper clamp for the quiet period.
func WithMaxDelay(d time.Duration) DebouncerOption {
	return func(db *Debouncer) {
		if d > 0 {
			db.maxDelay = d
		}
	}
}

// WithDebouncerLogger sets a custom logger. Default is slog.Default().
func WithDebouncerLogger(logger *slog.Logger) DebouncerOption {
	return func(db *Debouncer) {
		if logger != nil {
			db.logger = logger
		}
	}
}

// NewDebouncer creates a debouncer that delivers batches to flush.
func NewDebouncer(flush func([]Event), opts ...DebouncerOption) *Debouncer {
	db := &Debouncer{
		flush:    flush,
		minDelay: DefaultMinDelay,
		maxDelay: DefaultMaxDelay,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(db)
	}
	if db.minDelay > db.maxDelay {
		db.minDelay = db.maxDelay
	}
	return db
}

// Add records an event and rearms the flush timer.
func (db *Debouncer) Add(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return
	}

	db.pending = append(db.pending, event)
	delay := db.delayFor(len(db.pending))

	if db.timer != nil {
		db.timer.Stop()
	}
	db.timer = time.AfterFunc(delay, db.fire)
}

// delayFor maps a backlog size to a quiet period. One event waits the
// full MaxDelay; bigger backlogs flush sooner.
func (db *Debouncer) delayFor(backlog int) time.Duration {
	if backlog <= 0 {
		return db.maxDelay
	}
	delay := db.maxDelay / time.Duration(backlog)
	if delay < db.minDelay {
		return db.minDelay
	}
	return delay
}

// fire runs on timer expiry.
func (db *Debouncer) fire() {
	db.mu.Lock()
	if db.closed || len(db.pending) == 0 {
		db.mu.Unlock()
		return
	}
	batch := db.pending
	db.pending = nil
	db.timer = nil
	db.mu.Unlock()

	db.logger.Debug("flushing debounced events", "count", len(batch))
	if db.flush != nil {
		db.flush(batch)
	}
}

// Pending returns the number of events waiting to flush.
func (db *Debouncer) Pending() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.pending)
}

// Close stops the timer and flushes anything still pending.
func (db *Debouncer) Close() error {
	db.mu.Lock()
	if db.closed {
		db.mu.Unlock()
		return nil
	}
	db.closed = true
	if db.timer != nil {
		db.timer.Stop()
		db.timer = nil
	}
	batch := db.pending
	db.pending = nil
	db.mu.Unlock()

	if len(batch) > 0 && db.flush != nil {
		db.flush(batch)
	}
	return nil
}
