// Package metrics records operation outcomes, derives rolling latency
// statistics from them, and drives the memory-based feedback loop that
// shrinks future batch sizes under pressure.
//
// The manager keeps a bounded in-memory history of metrics and an explicit
// per-context adaptive batch size map. Backpressure comes in two modes:
// advisory (OptimizeBatchSize shrinks future batches) and blocking
// (WaitForResources polls until memory falls below the threshold).
package metrics
