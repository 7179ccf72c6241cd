package breaker

import (
	"fmt"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/lynn4am/gatekeeper/internal/core/domain"
)

// Registry owns one Breaker per configured provider name, built once at
// startup and read-only thereafter except for the delegated state updates
// each Breaker serialises internally.
type Registry struct {
	order    []string
	breakers map[string]*Breaker
}

// NewRegistry builds a breaker for every provider, marking the last one
// (lowest priority) as the fallback breaker per the fallback invariant.
func NewRegistry(providers []domain.Provider, failureThreshold int, resetTimeout time.Duration) *Registry {
	r := &Registry{
		order:    make([]string, len(providers)),
		breakers: make(map[string]*Breaker, len(providers)),
	}
	last := len(providers) - 1
	for i, p := range providers {
		r.order[i] = p.Name
		r.breakers[p.Name] = New(failureThreshold, resetTimeout, i == last)
	}
	return r
}

// For returns the breaker for a provider name. Unknown names are a
// programmer error: they indicate a Selector/Registry mismatch, never a
// request-triggerable condition, so this panics rather than returning an
// error the caller would have to handle on every hot path.
func (r *Registry) For(name string) *Breaker {
	b, ok := r.breakers[name]
	if !ok {
		panic(fmt.Sprintf("breaker: unknown provider %q", name))
	}
	return b
}

// ResetAll hard-resets every breaker. Idempotent: calling it twice in a
// row leaves the registry in the same state as calling it once.
func (r *Registry) ResetAll() {
	var wg conc.WaitGroup
	for _, name := range r.order {
		b := r.breakers[name]
		wg.Go(func() {
			b.Reset()
		})
	}
	wg.Wait()
}

// Snapshot returns every breaker's state keyed by provider name, visiting
// the registry with one goroutine per breaker (conc.WaitGroup) rather than
// a sequential loop since IsOpen may perform a lazy reset under its own lock.
func (r *Registry) Snapshot() map[string]domain.BreakerSnapshot {
	out := make(map[string]domain.BreakerSnapshot, len(r.order))
	var mu sync.Mutex

	var wg conc.WaitGroup
	for _, name := range r.order {
		name := name
		b := r.breakers[name]
		wg.Go(func() {
			snap := b.Snapshot()
			mu.Lock()
			out[name] = snap
			mu.Unlock()
		})
	}
	wg.Wait()

	return out
}

// Names returns the provider names in priority order.
func (r *Registry) Names() []string {
	return r.order
}
