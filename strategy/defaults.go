package strategy

import (
	"time"

	"github.com/poiesic/surge/core"
)

// Subtype names with dedicated policies.
const (
	SubTypeQdrant = "qdrant"
	SubTypeNeo4j  = "neo4j"
	SubTypeOpenAI = "openai"
	SubTypeOllama = "ollama"
	SubTypeCosine = "cosine"
)

// openAIBatchCap is the per-request input cap the OpenAI-compatible
// embedding endpoint enforces. Computed sizes never exceed it.
const openAIBatchCap = 100

// scaleByVectorDimension shrinks batches of high-dimensional vectors and
// grows batches of small ones. Payload size per item is proportional to
// the dimension, so this keeps request sizes roughly constant.
func scaleByVectorDimension(size int, ctx core.BatchContext) int {
	dim, ok := ctx.IntMeta(core.MetaVectorDimension)
	if !ok {
		return size
	}
	switch {
	case dim >= 1536:
		return size / 2
	case dim >= 768:
		return size * 3 / 4
	case dim > 0 && dim <= 256:
		return size * 3 / 2
	}
	return size
}

// scaleByTextLength shrinks batches of long texts and grows batches of
// short ones.
func scaleByTextLength(size int, ctx core.BatchContext) int {
	length, ok := ctx.IntMeta(core.MetaAvgTextLength)
	if !ok {
		return size
	}
	switch {
	case length >= 2000:
		return size / 2
	case length >= 800:
		return size * 3 / 4
	case length > 0 && length <= 100:
		return size * 3 / 2
	}
	return size
}

// scaleByGraphLoad shrinks batches for large or complex graph writes.
func scaleByGraphLoad(size int, ctx core.BatchContext) int {
	nodes, _ := ctx.IntMeta(core.MetaNodeCount)
	edges, _ := ctx.IntMeta(core.MetaEdgeCount)
	if nodes+edges >= 10000 {
		size /= 2
	}

	if complexity, ok := ctx.IntMeta(core.MetaGraphComplexity); ok {
		switch {
		case complexity >= 8:
			size /= 2
		case complexity <= 2:
			size = size * 3 / 2
		}
	}
	return size
}

// newQdrantPolicy tunes for vector upserts: payload scales with dimension,
// the server tolerates large batches but degrades sharply past ~5s writes.
func newQdrantPolicy() *policy {
	return &policy{
		name:              core.DomainDatabase + ":" + SubTypeQdrant,
		defaultSize:       100,
		minSize:           10,
		maxSize:           500,
		transientAttempts: 3,
		capacityAttempts:  2,
		baseDelay:         time.Second,
		maxDelay:          30 * time.Second,
		slowThreshold:     5 * time.Second,
		shrinkFactor:      0.25,
		growFactor:        0.10,
		growBelow:         0.45,
		scale:             scaleByVectorDimension,
	}
}

// newNeo4jPolicy tunes for graph writes: transactions grow with node and
// edge counts, so batches shrink aggressively and grow reluctantly.
func newNeo4jPolicy() *policy {
	return &policy{
		name:              core.DomainDatabase + ":" + SubTypeNeo4j,
		defaultSize:       50,
		minSize:           5,
		maxSize:           200,
		transientAttempts: 3,
		capacityAttempts:  2,
		baseDelay:         2 * time.Second,
		maxDelay:          30 * time.Second,
		slowThreshold:     10 * time.Second,
		shrinkFactor:      0.30,
		growFactor:        0.05,
		growBelow:         0.40,
		scale:             scaleByGraphLoad,
	}
}

func newDatabaseDefaultPolicy() *policy {
	return &policy{
		name:              core.DomainDatabase,
		defaultSize:       100,
		minSize:           10,
		maxSize:           500,
		transientAttempts: 3,
		capacityAttempts:  2,
		baseDelay:         time.Second,
		maxDelay:          30 * time.Second,
		slowThreshold:     5 * time.Second,
		shrinkFactor:      0.25,
		growFactor:        0.10,
		growBelow:         0.45,
		scale:             scaleByVectorDimension,
	}
}

func newOpenAIPolicy() *policy {
	return &policy{
		name:              core.DomainEmbedding + ":" + SubTypeOpenAI,
		defaultSize:       50,
		minSize:           5,
		maxSize:           200,
		hardCap:           openAIBatchCap,
		transientAttempts: 3,
		capacityAttempts:  2,
		baseDelay:         500 * time.Millisecond,
		maxDelay:          10 * time.Second,
		slowThreshold:     3 * time.Second,
		shrinkFactor:      0.20,
		growFactor:        0.15,
		growBelow:         0.50,
		scale:             scaleByTextLength,
	}
}

// newOllamaPolicy tunes for local inference: no request cap, but much
// smaller batches since a single host does the work.
func newOllamaPolicy() *policy {
	return &policy{
		name:              core.DomainEmbedding + ":" + SubTypeOllama,
		defaultSize:       25,
		minSize:           1,
		maxSize:           100,
		transientAttempts: 2,
		capacityAttempts:  2,
		baseDelay:         500 * time.Millisecond,
		maxDelay:          10 * time.Second,
		slowThreshold:     5 * time.Second,
		shrinkFactor:      0.20,
		growFactor:        0.10,
		growBelow:         0.50,
		scale:             scaleByTextLength,
	}
}

func newEmbeddingDefaultPolicy() *policy {
	return &policy{
		name:              core.DomainEmbedding,
		defaultSize:       50,
		minSize:           5,
		maxSize:           200,
		transientAttempts: 3,
		capacityAttempts:  2,
		baseDelay:         500 * time.Millisecond,
		maxDelay:          10 * time.Second,
		slowThreshold:     3 * time.Second,
		shrinkFactor:      0.20,
		growFactor:        0.15,
		growBelow:         0.50,
		scale:             scaleByTextLength,
	}
}

func newCosinePolicy() *policy {
	return &policy{
		name:              core.DomainSimilarity + ":" + SubTypeCosine,
		defaultSize:       50,
		minSize:           10,
		maxSize:           200,
		transientAttempts: 3,
		capacityAttempts:  2,
		baseDelay:         time.Second,
		maxDelay:          15 * time.Second,
		slowThreshold:     2 * time.Second,
		shrinkFactor:      0.15,
		growFactor:        0.05,
		growBelow:         0.40,
		scale:             scaleByVectorDimension,
	}
}

func newGlobalDefaultPolicy() *policy {
	return &policy{
		name:              "default",
		defaultSize:       50,
		minSize:           10,
		maxSize:           500,
		transientAttempts: 3,
		capacityAttempts:  2,
		baseDelay:         time.Second,
		maxDelay:          10 * time.Second,
		slowThreshold:     5 * time.Second,
		shrinkFactor:      0.20,
		growFactor:        0.10,
		growBelow:         0.45,
	}
}
