// Package similarity computes cosine similarity between embedding
// vectors and provides a batch optimizer that turns all-pairs text
// similarity from O(N squared) remote embedding calls into a handful of
// batched ones.
//
// The optimizer embeds each distinct text at most once per run, consults
// the embedding cache first, and computes the similarity matrix locally
// from the assembled vectors.
package similarity
