// Package cache stores embedding vectors keyed by content hash and model
// name. Entries carry a TTL; an expired entry is treated as a miss. Two
// backends are provided: an in-memory store with lazy expiry and
// oldest-first eviction, and a persistent BadgerDB store that leans on
// the database's native TTL support.
//
// The cache is a pure performance artifact. Losing it costs recomputed
// embeddings, never correctness, so no backend makes durability promises
// beyond what its storage naturally provides.
package cache
