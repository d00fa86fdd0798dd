package watch

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flushRecorder struct {
	mu      sync.Mutex
	batches [][]Event
}

func (r *flushRecorder) flush(events []Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, events)
}

func (r *flushRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

func (r *flushRecorder) totalEvents() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, b := range r.batches {
		total += len(b)
	}
	return total
}

func TestDebouncer_BurstCoalesces(t *testing.T) {
	rec := &flushRecorder{}
	db := NewDebouncer(rec.flush,
		WithMinDelay(5*time.Millisecond),
		WithMaxDelay(30*time.Millisecond))
	defer db.Close()

	for i := 0; i < 10; i++ {
		db.Add(Event{Path: "file.txt", Type: EventWrite})
	}

	require.Eventually(t, func() bool { return rec.count() > 0 },
		time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, rec.count(), "a burst flushes once")
	assert.Equal(t, 10, rec.totalEvents())
	assert.Zero(t, db.Pending())
}

func TestDebouncer_DelayShrinksWithBacklog(t *testing.T) {
	db := NewDebouncer(nil,
		WithMinDelay(10*time.Millisecond),
		WithMaxDelay(800*time.Millisecond))
	defer db.Close()

	assert.Equal(t, 800*time.Millisecond, db.delayFor(1))
	assert.Equal(t, 400*time.Millisecond, db.delayFor(2))
	assert.Equal(t, 100*time.Millisecond, db.delayFor(8))
	assert.Equal(t, 10*time.Millisecond, db.delayFor(1000), "clamped at MinDelay")
	assert.Equal(t, 800*time.Millisecond, db.delayFor(0))
}

func TestDebouncer_CloseFlushesPending(t *testing.T) {
	rec := &flushRecorder{}
	db := NewDebouncer(rec.flush,
		WithMinDelay(time.Second),
		WithMaxDelay(time.Hour))

	db.Add(Event{Path: "a", Type: EventCreate})
	db.Add(Event{Path: "b", Type: EventRemove})
	require.NoError(t, db.Close())

	assert.Equal(t, 1, rec.count(), "close flushes synchronously")
	assert.Equal(t, 2, rec.totalEvents())
}

func TestDebouncer_AddAfterCloseDropped(t *testing.T) {
	rec := &flushRecorder{}
	db := NewDebouncer(rec.flush, WithMaxDelay(10*time.Millisecond))
	require.NoError(t, db.Close())

	db.Add(Event{Path: "late", Type: EventWrite})
	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, rec.count())
	assert.Zero(t, db.Pending())
}

func TestDebouncer_StampsTimestamps(t *testing.T) {
	done := make(chan []Event, 1)
	db := NewDebouncer(func(events []Event) { done <- events },
		WithMinDelay(time.Millisecond),
		WithMaxDelay(5*time.Millisecond))
	defer db.Close()

	before := time.Now()
	db.Add(Event{Path: "x", Type: EventWrite})

	select {
	case events := <-done:
		require.Len(t, events, 1)
		assert.False(t, events[0].Timestamp.Before(before))
	case <-time.After(time.Second):
		t.Fatal("flush never fired")
	}
}
