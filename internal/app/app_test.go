package app

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lynn4am/gatekeeper/internal/config"
	"github.com/lynn4am/gatekeeper/internal/logger"
)

func testApplication(t *testing.T) *Application {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Providers = []config.ProviderConfig{
		{Name: "primary", BaseURL: "http://primary.local", Token: "primary-token"},
		{Name: "backup", BaseURL: "http://backup.local", Token: "backup-token"},
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	styled := logger.NewStyledLogger(log, nil)

	return New(cfg, log, styled, "")
}

func TestApplication_HealthHandlerReportsAllProviders(t *testing.T) {
	a := testApplication(t)

	req := httptest.NewRequest(http.MethodGet, "/_health", nil)
	rr := httptest.NewRecorder()
	a.healthHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	assert.Equal(t, "ok", resp.Status)
	assert.ElementsMatch(t, []string{"primary", "backup"}, resp.Providers)
	require.Contains(t, resp.CircuitBreakers, "primary")
	require.Contains(t, resp.CircuitBreakers, "backup")
	assert.False(t, resp.CircuitBreakers["primary"].IsOpen)
	assert.Nil(t, resp.CircuitBreakers["primary"].RemainingTime)
}

func TestApplication_HealthHandlerReflectsOpenBreaker(t *testing.T) {
	a := testApplication(t)

	for i := 0; i < config.DefaultFailureThreshold; i++ {
		a.registry.For("primary").RecordFailure()
	}

	req := httptest.NewRequest(http.MethodGet, "/_health", nil)
	rr := httptest.NewRecorder()
	a.healthHandler(rr, req)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	assert.True(t, resp.CircuitBreakers["primary"].IsOpen)
	assert.Equal(t, config.DefaultFailureThreshold, resp.CircuitBreakers["primary"].FailureCount)
	require.NotNil(t, resp.CircuitBreakers["primary"].RemainingTime)
}

func TestApplication_ResetCircuitHandlerClosesEveryBreaker(t *testing.T) {
	a := testApplication(t)

	for i := 0; i < config.DefaultFailureThreshold; i++ {
		a.registry.For("primary").RecordFailure()
	}
	require.True(t, a.registry.For("primary").IsOpen())

	req := httptest.NewRequest(http.MethodPost, "/_reset_circuit", nil)
	rr := httptest.NewRecorder()
	a.resetCircuitHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, a.registry.For("primary").IsOpen())
}

func TestApplication_RegisterRoutesWiresForwardAndAdmin(t *testing.T) {
	a := testApplication(t)
	a.registerRoutes()

	routes := a.routes.GetRoutes()
	assert.Contains(t, routes, "/_health")
	assert.Contains(t, routes, "/_reset_circuit")
	assert.Contains(t, routes, "/")
}
