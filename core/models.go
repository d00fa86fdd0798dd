package core

import (
	"encoding/binary"

	"github.com/go-crypt/x/blake2b"
)

// Domain identifies the workload family a batch belongs to. Strategy
// selection and adaptive batch sizing are keyed by domain and subtype.
const (
	DomainDatabase   = "database"
	DomainEmbedding  = "embedding"
	DomainSimilarity = "similarity"
)

// Metadata keys recognized by batch sizing policies. Values are read
// tolerantly: int, int64 and float64 are all accepted for numeric keys.
const (
	MetaVectorDimension = "vectorDimension"
	MetaAvgTextLength   = "avgTextLength"
	MetaOperationType   = "operationType"
	MetaNodeCount       = "nodeCount"
	MetaEdgeCount       = "edgeCount"
	MetaGraphComplexity = "graphComplexity"
)

// BatchContext describes the workload a batch of items belongs to.
// It is used as the lookup key for strategy selection and for the
// per-context adaptive batch size state.
type BatchContext struct {
	Domain   string
	SubType  string
	Metadata map[string]any
}

// Key returns the canonical "domain:subtype" lookup key for this context.
func (c BatchContext) Key() string {
	return c.Domain + ":" + c.SubType
}

// Validate checks that the context names a domain.
// An empty subtype is allowed and falls back to the domain default policy.
func (c BatchContext) Validate() error {
	if c.Domain == "" {
		return ErrEmptyDomain
	}
	return nil
}

// IntMeta reads a numeric metadata value as an int.
// Returns false if the key is absent or not numeric.
func (c BatchContext) IntMeta(key string) (int, bool) {
	v, ok := c.Metadata[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

// StringMeta reads a string metadata value.
func (c BatchContext) StringMeta(key string) (string, bool) {
	v, ok := c.Metadata[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// KeyFromContent generates a deterministic 64-bit key from text content
// using BLAKE2b hashing. Identical content always produces identical keys,
// which makes it suitable for content-addressed caches.
func KeyFromContent(text string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}
