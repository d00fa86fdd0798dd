// Package ai defines the embedding provider abstraction used by the
// batch engine and the similarity optimizer. Concrete providers live in
// subpackages: openai for OpenAI-compatible HTTP services and mock for
// deterministic test doubles.
package ai
