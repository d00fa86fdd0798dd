package taskqueue

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConcurrency indicates a non-positive maxConcurrency.
	ErrInvalidConcurrency = errors.New("maxConcurrency must be greater than 0")

	// ErrNilExecute indicates a task submitted without an executable.
	ErrNilExecute = errors.New("task executable cannot be nil")
)

// WaitTimeoutError is returned by WaitForCompletion when the caller's
// deadline elapses with work still outstanding. Completed results up to
// that point are returned alongside it.
type WaitTimeoutError struct {
	Pending int
	Active  int
}

func (e *WaitTimeoutError) Error() string {
	return fmt.Sprintf("wait for completion timed out: %d pending, %d active", e.Pending, e.Active)
}
