package constants

const (
	// HealthPath reports gateway and per-provider breaker status.
	HealthPath = "/_health"
	// ResetCircuitPath manually closes every provider breaker.
	ResetCircuitPath = "/_reset_circuit"
)
