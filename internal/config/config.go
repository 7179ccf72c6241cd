package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/lynn4am/gatekeeper/internal/core/domain"
)

const (
	DefaultConfigPath          = "./config.yaml"
	DefaultTimeoutSeconds      = 60
	DefaultFailureThreshold    = 5
	DefaultResetTimeoutSeconds = 600
	DefaultProbeProbability    = 0.05

	debounceWindow = 500 * time.Millisecond
	fileWriteDelay = 150 * time.Millisecond
)

var (
	reloadMutex sync.Mutex
	lastReload  time.Time
)

// DefaultConfig returns the gateway's default tuning with no providers
// configured; the caller must still supply at least one.
func DefaultConfig() *Config {
	return &Config{
		Gateway: GatewayConfig{
			TimeoutSeconds: DefaultTimeoutSeconds,
			CircuitBreaker: CircuitBreakerConfig{
				FailureThreshold:    DefaultFailureThreshold,
				ResetTimeoutSeconds: DefaultResetTimeoutSeconds,
				ProbeProbability:    DefaultProbeProbability,
			},
		},
	}
}

// Load reads the YAML config from CONFIG_PATH (default ./config.yaml),
// validates it, and optionally watches the file for changes, invoking
// onConfigChange after a short debounce. Startup fails loudly on an
// invalid or missing file.
func Load(onConfigChange func()) (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	if onConfigChange != nil {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			reloadMutex.Lock()
			defer reloadMutex.Unlock()

			now := time.Now()
			if now.Sub(lastReload) < debounceWindow {
				return
			}
			lastReload = now

			// some filesystems fire the write event before the file is
			// fully flushed; a short delay avoids reading a half-written
			// config back in.
			time.Sleep(fileWriteDelay)
			onConfigChange()
		})
	}

	return cfg, nil
}

// Validate enforces the rules spec.md requires at startup.
func Validate(cfg *Config) error {
	if len(cfg.Providers) == 0 {
		return domain.NewConfigValidationError("providers", nil, "must be non-empty")
	}

	seen := make(map[string]bool, len(cfg.Providers))
	for _, p := range cfg.Providers {
		if p.Name == "" {
			return domain.NewConfigValidationError("providers[].name", p.Name, "must be non-empty")
		}
		if seen[p.Name] {
			return domain.NewConfigValidationError("providers[].name", p.Name, "must be unique")
		}
		seen[p.Name] = true
		if p.BaseURL == "" {
			return domain.NewConfigValidationError("providers[].base_url", p.Name, "must be non-empty")
		}
	}

	cb := cfg.Gateway.CircuitBreaker
	if cb.FailureThreshold < 1 {
		return domain.NewConfigValidationError("gateway.circuit_breaker.failure_threshold", cb.FailureThreshold, "must be >= 1")
	}
	if cb.ResetTimeoutSeconds <= 0 {
		return domain.NewConfigValidationError("gateway.circuit_breaker.reset_timeout", cb.ResetTimeoutSeconds, "must be > 0")
	}
	if cb.ProbeProbability < 0 || cb.ProbeProbability > 1 {
		return domain.NewConfigValidationError("gateway.circuit_breaker.probe_probability", cb.ProbeProbability, "must be in [0,1]")
	}

	return nil
}

// DomainProviders converts the configured provider list to the immutable
// domain.Provider sequence the registry and selector consume, in priority
// order.
func (c *Config) DomainProviders() []domain.Provider {
	out := make([]domain.Provider, len(c.Providers))
	for i, p := range c.Providers {
		out[i] = domain.Provider{Name: p.Name, BaseURL: p.BaseURL, UpstreamToken: p.Token}
	}
	return out
}

// Policy returns the gateway-wide policy derived from the config file.
func (c *Config) Policy() domain.GatewayPolicy {
	return domain.GatewayPolicy{
		AccessToken:      c.Gateway.AccessToken,
		RequestTimeout:   c.Gateway.Timeout(),
		FailureThreshold: c.Gateway.CircuitBreaker.FailureThreshold,
		ResetTimeout:     c.Gateway.CircuitBreaker.ResetTimeout(),
		ProbeProbability: c.Gateway.CircuitBreaker.ProbeProbability,
	}
}
