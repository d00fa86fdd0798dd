package strategy

import (
	"sync"

	"github.com/poiesic/surge/core"
)

// Registry resolves the Policy for a batch context. Resolution order:
// exact (domain, subtype), then domain default, then global default, so a
// policy is always returned.
type Registry struct {
	mu       sync.RWMutex
	policies map[string]Policy
	domains  map[string]Policy
	global   Policy
}

// NewRegistry creates a registry pre-populated with the built-in policies
// for the database, embedding and similarity domains.
func NewRegistry() *Registry {
	r := &Registry{
		policies: make(map[string]Policy),
		domains:  make(map[string]Policy),
		global:   newGlobalDefaultPolicy(),
	}

	r.Register(core.DomainDatabase, SubTypeQdrant, newQdrantPolicy())
	r.Register(core.DomainDatabase, SubTypeNeo4j, newNeo4jPolicy())
	r.Register(core.DomainEmbedding, SubTypeOpenAI, newOpenAIPolicy())
	r.Register(core.DomainEmbedding, SubTypeOllama, newOllamaPolicy())
	r.Register(core.DomainSimilarity, SubTypeCosine, newCosinePolicy())

	r.RegisterDomain(core.DomainDatabase, newDatabaseDefaultPolicy())
	r.RegisterDomain(core.DomainEmbedding, newEmbeddingDefaultPolicy())
	r.RegisterDomain(core.DomainSimilarity, newCosinePolicy())

	return r
}

// Register installs a policy for an exact (domain, subtype) pair.
func (r *Registry) Register(domain, subType string, p Policy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies[domain+":"+subType] = p
}

// RegisterDomain installs the fallback policy for a domain.
func (r *Registry) RegisterDomain(domain string, p Policy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.domains[domain] = p
}

// Get returns the policy for the given context, falling back to the
// domain default and then the global default.
func (r *Registry) Get(ctx core.BatchContext) Policy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.policies[ctx.Key()]; ok {
		return p
	}
	if p, ok := r.domains[ctx.Domain]; ok {
		return p
	}
	return r.global
}
