package breaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lynn4am/gatekeeper/internal/core/domain"
)

func testProviders() []domain.Provider {
	return []domain.Provider{
		{Name: "primary", BaseURL: "http://primary"},
		{Name: "backup", BaseURL: "http://backup"},
		{Name: "last-resort", BaseURL: "http://last"},
	}
}

func TestRegistry_LastProviderIsFallback(t *testing.T) {
	r := NewRegistry(testProviders(), 1, time.Hour)

	for i := 0; i < 5; i++ {
		r.For("last-resort").RecordFailure()
	}
	assert.False(t, r.For("last-resort").IsOpen())

	r.For("primary").RecordFailure()
	assert.True(t, r.For("primary").IsOpen())
}

func TestRegistry_ForUnknownProviderPanics(t *testing.T) {
	r := NewRegistry(testProviders(), 1, time.Hour)
	assert.Panics(t, func() { r.For("nope") })
}

func TestRegistry_ResetAllIsIdempotent(t *testing.T) {
	r := NewRegistry(testProviders(), 1, time.Hour)
	r.For("primary").RecordFailure()
	require.True(t, r.For("primary").IsOpen())

	r.ResetAll()
	snap1 := r.Snapshot()
	r.ResetAll()
	snap2 := r.Snapshot()

	assert.Equal(t, snap1, snap2)
	assert.False(t, snap1["primary"].IsOpen)
}

func TestRegistry_Snapshot(t *testing.T) {
	r := NewRegistry(testProviders(), 1, time.Hour)
	r.For("backup").RecordFailure()

	snap := r.Snapshot()
	require.Len(t, snap, 3)
	assert.True(t, snap["backup"].IsOpen)
	assert.False(t, snap["primary"].IsOpen)
}
