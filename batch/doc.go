// Package batch implements the wave-based batch execution engine: contiguous
// chunking, concurrent dispatch in fixed-size waves, retry with exponential
// backoff and jitter, and a monitoring wrapper that records every attempt.
//
// Waves trade utilization for simplicity: up to maxConcurrency batches run
// at once and the whole wave settles before the next one starts, so a slow
// batch blocks unrelated work queued behind it. The taskqueue package offers
// the continuously-draining alternative when that head-of-line cost matters.
package batch
