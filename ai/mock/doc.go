// Package mock provides a deterministic ai.Embedder for tests. Vectors
// are derived from a hash of the input text, so the same text always
// embeds to the same unit vector without any network calls.
package mock
