package cache

import (
	"sync"
	"time"
)

// Memory is an in-process Store backed by a mutex-guarded map.
//
// Expiry is lazy: an expired entry is dropped when Get touches it or when
// the periodic sweeper runs. When a capacity is configured, Put evicts
// the entries with the oldest CreatedAt first.
type Memory struct {
	mu      sync.Mutex
	entries map[string]Entry
	closed  bool

	capacity      int
	sweepInterval time.Duration
	stopSweep     chan struct{}
	sweepDone     chan struct{}

	now func() time.Time
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithCapacity bounds the number of entries. Zero means unbounded.
func WithCapacity(n int) MemoryOption {
	return func(m *Memory) {
		if n > 0 {
			m.capacity = n
		}
	}
}

// WithSweepInterval enables a background goroutine that drops expired
// entries every interval. Without it expiry stays lazy.
func WithSweepInterval(interval time.Duration) MemoryOption {
	return func(m *Memory) {
		if interval > 0 {
			m.sweepInterval = interval
		}
	}
}

// NewMemory creates an in-memory store.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.sweepInterval > 0 {
		m.stopSweep = make(chan struct{})
		m.sweepDone = make(chan struct{})
		go m.sweepLoop()
	}
	return m
}

func (m *Memory) sweepLoop() {
	defer close(m.sweepDone)
	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopSweep:
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Get returns the live entry for key.
func (m *Memory) Get(key string) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return Entry{}, false
	}

	entry, ok := m.entries[key]
	if !ok {
		return Entry{}, false
	}
	if entry.Expired(m.now()) {
		delete(m.entries, key)
		return Entry{}, false
	}
	return entry, true
}

// Put stores the entry, evicting oldest entries beyond capacity.
func (m *Memory) Put(key string, entry Entry) error {
	if key == "" {
		return ErrEmptyKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = m.now()
	}
	m.entries[key] = entry

	if m.capacity > 0 {
		for len(m.entries) > m.capacity {
			m.evictOldestLocked()
		}
	}
	return nil
}

// evictOldestLocked removes the entry with the oldest CreatedAt.
// Caller must hold m.mu.
func (m *Memory) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	first := true
	for k, e := range m.entries {
		if first || e.CreatedAt.Before(oldest) {
			oldestKey, oldest = k, e.CreatedAt
			first = false
		}
	}
	if !first {
		delete(m.entries, oldestKey)
	}
}

// Sweep drops all expired entries and returns the count removed.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0
	}

	now := m.now()
	removed := 0
	for k, e := range m.entries {
		if e.Expired(now) {
			delete(m.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired ones included until
// a Get or Sweep touches them.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Close stops the sweeper and drops all entries.
func (m *Memory) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.entries = nil
	m.mu.Unlock()

	if m.stopSweep != nil {
		close(m.stopSweep)
		<-m.sweepDone
	}
	return nil
}

var _ Store = (*Memory)(nil)
