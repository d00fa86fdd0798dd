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


package strategy

import (
	"math/rand/v2"
	"time"

	"github.com/poiesic/surge/core"
)

// Policy decides how a given workload context is batched and retried.
// Implementations must be safe for concurrent use.
type Policy interface {
	// OptimalBatchSize derives a batch size for itemCount items under the
	// given context. The result is always within [MinBatchSize, MaxBatchSize]
	// and never exceeds itemCount.
	OptimalBatchSize(itemCount int, ctx core.BatchContext) int

	// ShouldRetry reports whether a failed attempt (1-based) should be
	// retried. Dispatches on the typed error taxonomy; untyped errors are
	// classified first.
	ShouldRetry(err error, attempt int) bool

	// RetryDelay returns the backoff delay before retrying after the given
	// failed attempt (1-based). Includes uniform jitter in [0.5, 1.0].
	RetryDelay(attempt int) time.Duration

	// AdjustBatchSize tunes a batch size from the observed execution time
	// of the previous batch. Shrinks fast under load, grows slowly when
	// well under the latency threshold.
	AdjustBatchSize(execTime time.Duration, batchSize int) int

	// MinBatchSize returns the policy's lower batch size bound.
	MinBatchSize() int

	// MaxBatchSize returns the policy's upper batch size bound.
	MaxBatchSize() int
}

// sizeScaler adjusts a base batch size from context metadata.
type sizeScaler func(size int, ctx core.BatchContext) int

// policy is the shared Policy implementation, parameterized per domain.
type policy struct {
	name string

	defaultSize int
	minSize     int
	maxSize     int
	hardCap     int // provider-imposed cap per request, 0 = none

	transientAttempts int
	capacityAttempts  int

	baseDelay time.Duration
	maxDelay  time.Duration

	slowThreshold time.Duration
	shrinkFactor  float64
	growFactor    float64
	growBelow     float64

	scale  sizeScaler
	jitter func() float64
}

var _ Policy = (*policy)(nil)

func (p *policy) MinBatchSize() int { return p.minSize }
func (p *policy) MaxBatchSize() int { return p.maxSize }

func (p *policy) OptimalBatchSize(itemCount int, ctx core.BatchContext) int {
	if itemCount <= 0 {
		return p.minSize
	}

	size := p.defaultSize
	if p.scale != nil {
		size = p.scale(size, ctx)
	}

	// Provider hard caps win over everything computed above.
	if p.hardCap > 0 && size > p.hardCap {
		size = p.hardCap
	}

	if size < p.minSize {
		size = p.minSize
	}
	if size > p.maxSize {
		size = p.maxSize
	}
	if size > itemCount {
		size = itemCount
	}
	return size
}

func (p *policy) ShouldRetry(err error, attempt int) bool {
	if err == nil {
		return false
	}
	classified := core.Classify(err)

	switch {
	case core.IsClient(classified):
		return false
	case core.IsCapacity(classified):
		return attempt < p.capacityAttempts
	case core.IsTransient(classified):
		return attempt < p.transientAttempts
	}
	return false
}

func (p *policy) RetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := p.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.maxDelay {
			delay = p.maxDelay
			break
		}
	}
	if delay > p.maxDelay {
		delay = p.maxDelay
	}

	// Uniform jitter in [0.5, 1.0] desynchronizes retry storms.
	jitter := 0.5 + 0.5*p.jitterSource()()
	return time.Duration(float64(delay) * jitter)
}

func (p *policy) jitterSource() func() float64 {
	if p.jitter != nil {
		return p.jitter
	}
	return rand.Float64
}

func (p *policy) AdjustBatchSize(execTime time.Duration, batchSize int) int {
	switch {
	case execTime > p.slowThreshold:
		shrunk := int(float64(batchSize) * (1 - p.shrinkFactor))
		if shrunk >= batchSize {
			shrunk = batchSize - 1
		}
		if shrunk < p.minSize {
			shrunk = p.minSize
		}
		return shrunk

	case float64(execTime) < float64(p.slowThreshold)*p.growBelow:
		grown := int(float64(batchSize) * (1 + p.growFactor))
		if grown <= batchSize {
			grown = batchSize + 1
		}
		if grown > p.maxSize {
			grown = p.maxSize
		}
		return grown
	}
	return batchSize
}
