// Package taskqueue provides a continuously-draining, priority-ordered
// worker pool for arbitrary units of async work with per-task timeout and
// retry.
//
// This is one of the engine's two concurrency models. The pool pulls new
// work the moment a slot frees up, which maximizes utilization at the cost
// of more bookkeeping; the batch package's wave executor is the simpler
// alternative and pays for that simplicity with head-of-line blocking.
// Pick one per call site, not both.
package taskqueue
