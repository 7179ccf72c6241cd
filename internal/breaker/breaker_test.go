package breaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreaker_TripsAtThreshold(t *testing.T) {
	b := New(3, time.Minute, false)

	b.RecordFailure()
	assert.False(t, b.IsOpen())
	b.RecordFailure()
	assert.False(t, b.IsOpen())
	b.RecordFailure()
	assert.True(t, b.IsOpen())
}

func TestBreaker_CountingContinuesPastThresholdWithoutResettingOpenedAt(t *testing.T) {
	b := New(2, time.Hour, false)
	b.RecordFailure()
	b.RecordFailure()
	require.True(t, b.IsOpen())

	snapBefore := b.Snapshot()
	b.RecordFailure()
	snapAfter := b.Snapshot()

	assert.Equal(t, snapBefore.ConsecutiveFailures+1, snapAfter.ConsecutiveFailures)
	assert.True(t, snapAfter.IsOpen)
}

func TestBreaker_SuccessClosesAndResetsCounter(t *testing.T) {
	b := New(1, time.Hour, false)
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.RecordSuccess()
	assert.False(t, b.IsOpen())
	assert.Equal(t, 0, b.Snapshot().ConsecutiveFailures)
}

func TestBreaker_AutoResetsAfterTimeout(t *testing.T) {
	b := New(1, 10*time.Millisecond, false)
	b.now = func() time.Time { return fixedTime }
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.now = func() time.Time { return fixedTime.Add(20 * time.Millisecond) }
	assert.False(t, b.IsOpen())
	assert.Equal(t, 0, b.Snapshot().ConsecutiveFailures)
}

func TestBreaker_FallbackAlwaysClosed(t *testing.T) {
	b := New(1, time.Hour, true)
	b.RecordFailure()
	assert.False(t, b.IsOpen(), "fallback breaker must never report open")
	assert.Equal(t, 1, b.Snapshot().ConsecutiveFailures, "counter is still tracked for observability")
}

func TestBreaker_ExplicitReset(t *testing.T) {
	b := New(1, time.Hour, false)
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.False(t, b.IsOpen())
	assert.Equal(t, 0, b.Snapshot().ConsecutiveFailures)
}

var fixedTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
