package cache

import "errors"

var (
	// ErrClosed is returned when operating on a closed store.
	ErrClosed = errors.New("cache: store is closed")

	// ErrEmptyKey is returned when a key is empty.
	ErrEmptyKey = errors.New("cache: key must not be empty")
)
