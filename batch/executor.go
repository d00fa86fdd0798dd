package batch

import (
	"context"
	"sync"
)

// Processor turns one batch of inputs into outputs. Results must be
// positional: output i corresponds to input i. That contract is what lets
// the executor guarantee flattened results preserve the original item
// order even when a processor retries internally.
type Processor[T, R any] func(ctx context.Context, items []T) ([]R, error)

// ExecuteConcurrently processes batches in waves of up to maxConcurrency.
// The whole wave settles before the next one starts; one slow batch
// therefore delays the batches queued behind it (documented trade-off, see
// the package comment). A failing batch never aborts its siblings: every
// batch dispatched in the wave is awaited. After a wave with failures no
// further waves start, the flattened results of all successful batches are
// returned, and the failure surfaces as a WaveError carrying counts and
// the underlying errors.
func ExecuteConcurrently[T, R any](ctx context.Context, batches [][]T, processor Processor[T, R], maxConcurrency int) ([]R, error) {
	if processor == nil {
		return nil, ErrNilProcessor
	}
	if len(batches) == 0 {
		return nil, nil
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}

	results := make([][]R, len(batches))
	errs := make([]error, len(batches))
	succeeded, failed := 0, 0

	for waveStart := 0; waveStart < len(batches); waveStart += maxConcurrency {
		waveEnd := waveStart + maxConcurrency
		if waveEnd > len(batches) {
			waveEnd = len(batches)
		}

		var wg sync.WaitGroup
		for i := waveStart; i < waveEnd; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				results[idx], errs[idx] = processor(ctx, batches[idx])
			}(i)
		}
		wg.Wait()

		waveFailed := false
		for i := waveStart; i < waveEnd; i++ {
			if errs[i] != nil {
				failed++
				waveFailed = true
			} else {
				succeeded++
			}
		}
		if waveFailed {
			break
		}

		select {
		case <-ctx.Done():
			return flatten(results, errs), ctx.Err()
		default:
		}
	}

	flat := flatten(results, errs)
	if failed > 0 {
		waveErr := &WaveError{Succeeded: succeeded, Failed: failed}
		for _, err := range errs {
			if err != nil {
				waveErr.Errs = append(waveErr.Errs, err)
			}
		}
		return flat, waveErr
	}
	return flat, nil
}

// flatten concatenates successful batch results in batch order.
func flatten[R any](results [][]R, errs []error) []R {
	total := 0
	for i, r := range results {
		if errs[i] == nil {
			total += len(r)
		}
	}
	flat := make([]R, 0, total)
	for i, r := range results {
		if errs[i] == nil {
			flat = append(flat, r...)
		}
	}
	return flat
}
