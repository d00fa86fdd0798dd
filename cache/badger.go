package cache

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// Badger is a persistent Store backed by BadgerDB. Reclamation uses
// Badger's native entry TTL, so expired keys disappear without an
// explicit sweep; reads enforce the exact deadline from the entry
// itself, matching the in-memory store.
type Badger struct {
	db     *badger.DB
	logger *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to the badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenBadger opens a BadgerDB-backed cache at the given path. With
// inMemory set the path is ignored and nothing touches disk; otherwise
// the directory is created if missing.
func OpenBadger(filePath string, inMemory bool) (*Badger, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(filePath, 0755); err != nil {
					return nil, err
				}
				info, err = os.Stat(filePath)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	opts.Logger = &badgerLoggerAdapter{logger: slog.Default()}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Badger{
		db:     db,
		logger: slog.Default(),
	}, nil
}

// Get returns the live entry for key. An expired entry reads as not
// found, whether Badger already hides it or the deadline check catches
// it first.
func (b *Badger) Get(key string) (Entry, bool) {
	var entry Entry
	err := b.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			entry, err = UnmarshalEntry(val)
			return err
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			b.logger.Warn("cache read failed", "key", key, "err", err)
		}
		return Entry{}, false
	}
	if entry.Expired(time.Now().UTC()) {
		return Entry{}, false
	}
	return entry, true
}

// Put stores the entry. The entry's TTL drives the Badger entry TTL.
func (b *Badger) Put(key string, entry Entry) error {
	if key == "" {
		return ErrEmptyKey
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	return b.db.Update(func(tx *badger.Txn) error {
		e := badger.NewEntry([]byte(key), MarshalEntry(entry))
		if entry.TTL > 0 {
			// Badger TTLs have second granularity and round down, so a
			// sub-second TTL would expire on write. Pad the native TTL;
			// Get enforces the precise deadline.
			e = e.WithTTL(entry.TTL + time.Second)
		}
		return tx.SetEntry(e)
	})
}

// Sweep is a no-op for the Badger backend. Expiry is native.
func (b *Badger) Sweep() int { return 0 }

// Len counts live entries with a keys-only iteration.
func (b *Badger) Len() int {
	count := 0
	err := b.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		b.logger.Warn("cache count failed", "err", err)
		return 0
	}
	return count
}

// Close closes the underlying database.
func (b *Badger) Close() error {
	return b.db.Close()
}

var _ Store = (*Badger)(nil)
