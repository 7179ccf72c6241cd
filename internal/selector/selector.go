// Package selector produces the ordered sequence of provider indices the
// Forward Engine attempts for one request.
package selector

import (
	"math/rand"
	"sync"

	"github.com/lynn4am/gatekeeper/internal/breaker"
	"github.com/lynn4am/gatekeeper/internal/core/domain"
)

// Selector draws the half-open probe and walks the provider list in
// priority order. A single instance is shared across all concurrent
// requests; the RNG draw is cheap so it is serialised with a mutex rather
// than given a per-request source.
type Selector struct {
	providers        []domain.Provider
	registry         *breaker.Registry
	probeProbability float64

	mu  sync.Mutex
	rng *rand.Rand
}

func New(providers []domain.Provider, registry *breaker.Registry, probeProbability float64, rng *rand.Rand) *Selector {
	return &Selector{
		providers:        providers,
		registry:         registry,
		probeProbability: probeProbability,
		rng:              rng,
	}
}

// Select returns the ordered, non-empty sequence of provider indices to
// attempt for one request.
func (s *Selector) Select() []int {
	lastIdx := len(s.providers) - 1

	var probed int = -1
	if s.drawProbe() {
		var openIdx []int
		for i := 0; i < lastIdx; i++ { // the fallback provider is excluded from probing
			if s.registry.For(s.providers[i].Name).IsOpen() {
				openIdx = append(openIdx, i)
			}
		}
		if len(openIdx) > 0 {
			probed = openIdx[s.randIntn(len(openIdx))]
		}
	}

	sequence := make([]int, 0, len(s.providers))
	if probed >= 0 {
		sequence = append(sequence, probed)
	}

	for i, p := range s.providers {
		if i == probed {
			continue
		}
		if i == lastIdx || !s.registry.For(p.Name).IsOpen() {
			sequence = append(sequence, i)
		}
	}

	return sequence
}

func (s *Selector) drawProbe() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() < s.probeProbability
}

func (s *Selector) randIntn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}
