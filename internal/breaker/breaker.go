// Package breaker implements the per-provider circuit breaker state machine.
package breaker

import (
	"sync"
	"time"

	"github.com/lynn4am/gatekeeper/internal/core/domain"
)

// Breaker tracks consecutive failures for one provider and derives an
// open/closed verdict from them. All access is serialised by a single
// mutex; there is no global lock across breakers since no invariant
// spans more than one provider's state.
type Breaker struct {
	mu sync.Mutex

	failureThreshold int
	resetTimeout     time.Duration

	consecutiveFailures int
	openedAt            time.Time // zero value means unset

	// fallback marks the breaker for the last-priority provider. Its
	// counter is still maintained for observability but IsOpen always
	// reports false, per the fallback invariant: the last provider is
	// never skipped.
	fallback bool

	now func() time.Time
}

// New creates a breaker in the closed state.
func New(failureThreshold int, resetTimeout time.Duration, fallback bool) *Breaker {
	return &Breaker{
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		fallback:         fallback,
		now:              time.Now,
	}
}

// RecordSuccess resets the failure counter and clears any open state.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFailures = 0
	b.openedAt = time.Time{}
}

// RecordFailure increments the failure counter and trips the breaker the
// moment the counter first reaches the threshold. Counting continues past
// the threshold without repeatedly resetting openedAt.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFailures++
	if b.consecutiveFailures == b.failureThreshold && b.openedAt.IsZero() {
		b.openedAt = b.now()
	}
}

// IsOpen reports whether the breaker currently suppresses attempts. If the
// reset timeout has elapsed since tripping, this has the side effect of
// auto-resetting the breaker (lazy reset on inspection). The fallback
// breaker always reports false.
func (b *Breaker) IsOpen() bool {
	if b.fallback {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.openedAt.IsZero() {
		return false
	}

	if b.now().Sub(b.openedAt) >= b.resetTimeout {
		b.openedAt = time.Time{}
		b.consecutiveFailures = 0
		return false
	}

	return true
}

// Snapshot returns the read-only view of the breaker's state used by the
// health endpoint and the dashboard.
func (b *Breaker) Snapshot() domain.BreakerSnapshot {
	isOpen := b.IsOpen() // applies lazy reset and the fallback override

	b.mu.Lock()
	defer b.mu.Unlock()

	snap := domain.BreakerSnapshot{
		IsOpen:              isOpen,
		ConsecutiveFailures: b.consecutiveFailures,
	}
	if isOpen {
		remaining := b.resetTimeout - b.now().Sub(b.openedAt)
		if remaining < 0 {
			remaining = 0
		}
		snap.RemainingReset = &remaining
	}
	return snap
}

// Reset hard-resets the breaker to its initial closed state.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFailures = 0
	b.openedAt = time.Time{}
}
