package batch

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMaxAttempts is returned when a retry config allows no attempts.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrNilProcessor indicates a batch run without a processor.
	ErrNilProcessor = errors.New("batch processor cannot be nil")
)

// WaveError reports a partially-failed batch run: some batches succeeded,
// some exhausted their retries. Successful results are still returned to
// the caller alongside it.
type WaveError struct {
	Succeeded int
	Failed    int
	Errs      []error
}

func (e *WaveError) Error() string {
	return fmt.Sprintf("batch execution failed: %d of %d batches failed: %v",
		e.Failed, e.Succeeded+e.Failed, errors.Join(e.Errs...))
}

func (e *WaveError) Unwrap() []error { return e.Errs }
