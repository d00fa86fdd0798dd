package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBadgerStore(t *testing.T) *Badger {
	t.Helper()
	b, err := OpenBadger("", true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBadger_PutGet(t *testing.T) {
	b := newBadgerStore(t)

	entry := Entry{
		Vector: []float32{0.5, -0.5},
		Model:  "m",
		TTL:    time.Hour,
	}
	require.NoError(t, b.Put("k", entry))

	got, ok := b.Get("k")
	require.True(t, ok)
	assert.Equal(t, entry.Vector, got.Vector)
	assert.Equal(t, "m", got.Model)
	assert.False(t, got.CreatedAt.IsZero())

	_, ok = b.Get("missing")
	assert.False(t, ok)
}

func TestBadger_TTLExpiry(t *testing.T) {
	b := newBadgerStore(t)

	require.NoError(t, b.Put("short", Entry{Vector: []float32{1}, TTL: 50 * time.Millisecond}))
	_, ok := b.Get("short")
	assert.True(t, ok, "hit within TTL, even below badger's one-second granularity")

	time.Sleep(100 * time.Millisecond)
	_, ok = b.Get("short")
	assert.False(t, ok, "reads enforce the entry deadline past the TTL")
}

func TestBadger_Len(t *testing.T) {
	b := newBadgerStore(t)

	require.NoError(t, b.Put("a", Entry{Vector: []float32{1}, TTL: time.Hour}))
	require.NoError(t, b.Put("b", Entry{Vector: []float32{2}, TTL: time.Hour}))
	assert.Equal(t, 2, b.Len())
}

func TestBadger_EmptyKeyRejected(t *testing.T) {
	b := newBadgerStore(t)
	assert.ErrorIs(t, b.Put("", Entry{}), ErrEmptyKey)
}

func TestBadger_OnDisk(t *testing.T) {
	dir := t.TempDir()
	b, err := OpenBadger(dir, false)
	require.NoError(t, err)

	require.NoError(t, b.Put("k", Entry{Vector: []float32{1, 2}, Model: "m", TTL: time.Hour}))
	require.NoError(t, b.Close())

	reopened, err := OpenBadger(dir, false)
	require.NoError(t, err)
	defer reopened.Close()

	got, ok := reopened.Get("k")
	require.True(t, ok, "entries survive reopen")
	assert.Equal(t, []float32{1, 2}, got.Vector)
}
