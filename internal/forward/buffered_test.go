package forward

import (
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lynn4am/gatekeeper/internal/breaker"
	"github.com/lynn4am/gatekeeper/internal/core/domain"
	"github.com/lynn4am/gatekeeper/internal/selector"
)

func newTestEngine(t *testing.T, servers []*httptest.Server) (*Engine, []domain.Provider) {
	t.Helper()
	providers := make([]domain.Provider, len(servers))
	for i, s := range servers {
		providers[i] = domain.Provider{Name: s.URL, BaseURL: s.URL, UpstreamToken: "upstream-" + s.URL}
	}
	policy := domain.GatewayPolicy{
		AccessToken:      "gatetoken",
		RequestTimeout:   time.Second,
		FailureThreshold: 1,
		ResetTimeout:     time.Minute,
		ProbeProbability: 0,
	}
	reg := breaker.NewRegistry(providers, policy.FailureThreshold, policy.ResetTimeout)
	sel := selector.New(providers, reg, policy.ProbeProbability, rand.New(rand.NewSource(1)))
	e := New(providers, policy, reg, sel, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	return e, providers
}

func TestRunBuffered_SingleHealthyProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	e, providers := newTestEngine(t, []*httptest.Server{srv})

	r := httptest.NewRequest(http.MethodGet, "/v1/chat", nil)
	w := httptest.NewRecorder()
	e.runBuffered(w, r, nil, []int{0}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	assert.Equal(t, 0, e.Registry.For(providers[0].Name).Snapshot().ConsecutiveFailures)
}

func TestRunBuffered_PrimaryDownBackupHealthy(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("from backup"))
	}))
	defer up.Close()

	e, providers := newTestEngine(t, []*httptest.Server{down, up})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	e.runBuffered(w, r, nil, []int{0, 1}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "from backup", w.Body.String())
	assert.Equal(t, 1, e.Registry.For(providers[0].Name).Snapshot().ConsecutiveFailures)
	assert.True(t, e.Registry.For(providers[0].Name).IsOpen())
	assert.Equal(t, 0, e.Registry.For(providers[1].Name).Snapshot().ConsecutiveFailures)
}

func TestRunBuffered_AllProvidersFailReturns502(t *testing.T) {
	bad := func() *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
	}
	a, b := bad(), bad()
	defer a.Close()
	defer b.Close()

	e, _ := newTestEngine(t, []*httptest.Server{a, b})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	e.runBuffered(w, r, nil, []int{0, 1}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "providers_tried")
}

func Test4xxDoesNotIncrementFailureCounter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	e, providers := newTestEngine(t, []*httptest.Server{srv})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	e.runBuffered(w, r, nil, []int{0}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, e.Registry.For(providers[0].Name).Snapshot().ConsecutiveFailures)
}

func TestAuthSubstitution_OutboundCarriesProviderToken(t *testing.T) {
	var seenAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	e, providers := newTestEngine(t, []*httptest.Server{srv})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "gatetoken")
	w := httptest.NewRecorder()
	e.runBuffered(w, r, nil, []int{0}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Equal(t, "upstream-"+providers[0].BaseURL, seenAuth)
}
