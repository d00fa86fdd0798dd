// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package cache

import (
	"strconv"
	"time"

	"github.com/poiesic/surge/core"
)

// DefaultTTL is the entry lifetime used when callers do not choose one.
const DefaultTTL = 24 * time.Hour

// Entry is a cached embedding vector together with the model that
// produced it and its expiry bookkeeping.
type Entry struct {
	Vector    []float32
	Model     string
	CreatedAt time.Time
	TTL       time.Duration
}

// Expired reports whether the entry's TTL has elapsed at the given time.
// A non-positive TTL means the entry never expires.
func (e Entry) Expired(now time.Time) bool {
	if e.TTL <= 0 {
		return false
	}
	return now.After(e.CreatedAt.Add(e.TTL))
}

// KeyFor derives the cache key for a text embedded with a given model.
// The key is model-qualified because vectors from different models are
// not comparable.
func KeyFor(text, model string) string {
	return model + ":" + strconv.FormatUint(core.KeyFromContent(text), 16)
}

// Store is a TTL-aware embedding cache. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns the entry for key. Expired or absent entries report
	// ok=false.
	Get(key string) (Entry, bool)

	// Put stores the entry under key, evicting older entries if the
	// backend enforces a capacity.
	Put(key string, entry Entry) error

	// Sweep removes expired entries eagerly and returns how many were
	// dropped. Backends with native expiry may be a no-op.
	Sweep() int

	// Len returns the number of live entries.
	Len() int

	// Close releases backend resources. The store must not be used
	// afterwards.
	Close() error
}
