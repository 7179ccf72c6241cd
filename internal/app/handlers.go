package app

import (
	"encoding/json"
	"net/http"

	"github.com/lynn4am/gatekeeper/internal/core/constants"
)

type circuitBreakerView struct {
	IsOpen        bool     `json:"is_open"`
	FailureCount  int      `json:"failure_count"`
	RemainingTime *float64 `json:"remaining_time"`
}

type healthResponse struct {
	Status          string                        `json:"status"`
	Providers       []string                      `json:"providers"`
	CircuitBreakers map[string]circuitBreakerView `json:"circuit_breakers"`
}

// healthHandler reports every provider's breaker state, per spec §6.
func (a *Application) healthHandler(w http.ResponseWriter, r *http.Request) {
	snap := a.registry.Snapshot()

	resp := healthResponse{
		Status:          "ok",
		Providers:       a.registry.Names(),
		CircuitBreakers: make(map[string]circuitBreakerView, len(snap)),
	}

	for name, s := range snap {
		view := circuitBreakerView{IsOpen: s.IsOpen, FailureCount: s.ConsecutiveFailures}
		if s.RemainingReset != nil {
			seconds := s.RemainingReset.Seconds()
			view.RemainingTime = &seconds
		}
		resp.CircuitBreakers[name] = view
	}

	w.Header().Set(constants.ContentTypeHeader, constants.ContentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// resetCircuitHandler force-closes every provider's breaker, logging one
// circuit_breaker/reset event per provider per spec §6's log table.
func (a *Application) resetCircuitHandler(w http.ResponseWriter, r *http.Request) {
	names := a.registry.Names()
	a.registry.ResetAll()
	for _, name := range names {
		a.styled.InfoBreakerRecovered(name, "reset")
	}

	w.Header().Set(constants.ContentTypeHeader, constants.ContentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "reset"})
}
