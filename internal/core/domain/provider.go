package domain

import "time"

// Provider is an immutable upstream API descriptor loaded once at startup.
// Providers form a priority-ordered sequence; index 0 is highest priority.
type Provider struct {
	Name          string
	BaseURL       string
	UpstreamToken string
}

// GatewayPolicy is the immutable gateway-wide configuration that governs
// auth, per-attempt timeouts and circuit breaker tuning.
type GatewayPolicy struct {
	AccessToken       string
	RequestTimeout    time.Duration
	FailureThreshold  int
	ResetTimeout      time.Duration
	ProbeProbability  float64
}

// BreakerSnapshot is the read-only view of one provider's breaker state,
// used by the /_health endpoint and the dashboard.
type BreakerSnapshot struct {
	IsOpen              bool
	ConsecutiveFailures int
	RemainingReset      *time.Duration // nil when not open
}
