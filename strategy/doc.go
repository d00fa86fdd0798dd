// Package strategy holds the per-domain batching policies: optimal batch
// size derivation, retry eligibility, backoff delays, and performance-based
// size adjustment.
//
// Policies are selected through a Registry keyed by (domain, subtype). An
// unknown subtype falls back to the domain default and an unknown domain to
// the global default, so callers always get a usable policy.
package strategy
