// Package app wires the gateway's runtime: breaker registry, selector,
// forward engine, and the small admin surface around them, behind one
// http.Server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/lynn4am/gatekeeper/internal/app/middleware"
	"github.com/lynn4am/gatekeeper/internal/breaker"
	"github.com/lynn4am/gatekeeper/internal/config"
	"github.com/lynn4am/gatekeeper/internal/forward"
	"github.com/lynn4am/gatekeeper/internal/logger"
	"github.com/lynn4am/gatekeeper/internal/router"
	"github.com/lynn4am/gatekeeper/internal/selector"
)

const (
	defaultListenAddr  = ":8080"
	defaultReadTimeout = 30 * time.Second
	shutdownGrace      = 10 * time.Second
)

// Application owns the HTTP server and the gateway components it forwards
// requests through: the breaker registry, the selector, and the forward
// engine.
type Application struct {
	config   *config.Config
	server   *http.Server
	logger   *slog.Logger
	styled   *logger.StyledLogger
	registry *breaker.Registry
	engine   *forward.Engine
	routes   *router.RouteRegistry
	errCh    chan error
}

// New assembles the breaker registry, selector and forward engine from cfg,
// and prepares (but does not start) the HTTP server.
func New(cfg *config.Config, log *slog.Logger, styled *logger.StyledLogger, listenAddr string) *Application {
	if listenAddr == "" {
		listenAddr = defaultListenAddr
	}

	providers := cfg.DomainProviders()
	policy := cfg.Policy()

	reg := breaker.NewRegistry(providers, policy.FailureThreshold, policy.ResetTimeout)
	sel := selector.New(providers, reg, policy.ProbeProbability, rand.New(rand.NewSource(time.Now().UnixNano())))
	engine := forward.New(providers, policy, reg, sel, log, styled)

	server := &http.Server{
		Addr:        listenAddr,
		ReadTimeout: defaultReadTimeout,
	}

	return &Application{
		config:   cfg,
		server:   server,
		logger:   log,
		styled:   styled,
		registry: reg,
		engine:   engine,
		routes:   router.NewRouteRegistry(styled),
		errCh:    make(chan error, 1),
	}
}

// Start wires the routes, binds the listen address and begins serving. A
// bind failure is returned; errors from the running server surface on errCh.
func (a *Application) Start(ctx context.Context) error {
	a.registerRoutes()

	mux := http.NewServeMux()
	a.routes.WireUp(mux)
	a.server.Handler = middleware.RequestID()(middleware.AccessLog(a.logger)(mux))

	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("http server listen error: %w", err)
	}

	go func() {
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	go func() {
		select {
		case err := <-a.errCh:
			a.logger.Error("server startup error", "error", err)
		case <-ctx.Done():
		}
	}()

	for _, p := range a.config.DomainProviders() {
		a.styled.InfoWithProvider("registered provider", p.Name, "base_url", p.BaseURL)
	}
	a.styled.Info("gateway listening", "addr", a.server.Addr, "providers", len(a.config.Providers))
	return nil
}

// Stop gracefully shuts the HTTP server down.
func (a *Application) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownGrace)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown error: %w", err)
	}
	return nil
}

func (a *Application) registerRoutes() {
	a.routes.RegisterWithMethod("/_health", a.healthHandler, "Circuit breaker and provider health", http.MethodGet)
	a.routes.RegisterWithMethod("/_reset_circuit", a.resetCircuitHandler, "Force every breaker closed", http.MethodPost)
	a.routes.RegisterWithMethod("/", a.forwardHandler, "Transparent proxy to the configured providers", "*")
}

func (a *Application) forwardHandler(w http.ResponseWriter, r *http.Request) {
	a.engine.ServeHTTP(w, r)
}
