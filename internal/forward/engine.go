// Package forward implements the failover cascade across providers for
// both buffered and streaming requests: the Forward Engine of the gateway.
package forward

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lynn4am/gatekeeper/internal/auth"
	"github.com/lynn4am/gatekeeper/internal/breaker"
	"github.com/lynn4am/gatekeeper/internal/classify"
	"github.com/lynn4am/gatekeeper/internal/core/constants"
	"github.com/lynn4am/gatekeeper/internal/core/domain"
	gklog "github.com/lynn4am/gatekeeper/internal/logger"
	"github.com/lynn4am/gatekeeper/internal/selector"
	"github.com/lynn4am/gatekeeper/pkg/pool"
)

// chunkBufSize is the per-copy buffer size used while relaying a streaming
// response body.
const chunkBufSize = 32 * 1024

var chunkPool = pool.NewLitePool(func() []byte {
	return make([]byte, chunkBufSize)
})

// Engine is the forwarding core: given a selector-produced attempt
// sequence, it cascades across providers until one succeeds or the
// sequence is exhausted.
type Engine struct {
	Providers []domain.Provider
	Policy    domain.GatewayPolicy
	Registry  *breaker.Registry
	Selector  *selector.Selector
	Client    *http.Client
	Logger    *slog.Logger

	// Styled, if set, renders circuit_breaker transitions with the
	// provider name highlighted per the active theme. Nil falls back to
	// a plain slog line, which is all the tests need.
	Styled *gklog.StyledLogger
}

func New(providers []domain.Provider, policy domain.GatewayPolicy, registry *breaker.Registry, sel *selector.Selector, logger *slog.Logger, styled *gklog.StyledLogger) *Engine {
	return &Engine{
		Providers: providers,
		Policy:    policy,
		Registry:  registry,
		Selector:  sel,
		Logger:    logger,
		Styled:    styled,
		Client: &http.Client{
			// The cascade itself owns per-attempt deadlines via context;
			// the client has no blanket timeout so streaming reads are
			// not cut off by a client-wide deadline.
			Transport: http.DefaultTransport,
		},
	}
}

// ServeHTTP implements the catch-all proxy handler: it reads the request
// body once, decides buffered vs streaming, and runs the matching cascade.
func (e *Engine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID, _ := r.Context().Value(constants.ContextRequestIDKey).(string)
	logger := e.Logger.With("req_id", reqID)

	if !auth.Admit(r, e.Policy.AccessToken) {
		logger.Warn("auth_failed", "reason", "missing or invalid access token on "+r.URL.Path)
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, `{"error":"failed to read request body"}`, http.StatusBadGateway)
		return
	}
	_ = r.Body.Close()

	stream := detectStreaming(r.Header.Get(constants.ContentTypeHeader), body)

	logger.Info("request_start",
		"method", r.Method,
		"path", r.URL.Path,
		"query", r.URL.RawQuery,
		"stream", stream,
	)

	sequence := e.Selector.Select()

	if stream {
		e.runStreaming(w, r, body, sequence, logger)
		return
	}
	e.runBuffered(w, r, body, sequence, logger)
}

// detectStreaming sniffs a JSON body for a top-level `stream: true` field.
// Non-JSON content types and parse failures default to buffered, per the
// heuristic this gateway inherits and preserves verbatim.
func detectStreaming(contentType string, body []byte) bool {
	if !strings.Contains(contentType, constants.ContentTypeJSON) {
		return false
	}
	var probe struct {
		Stream bool `json:"stream"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return false
	}
	return probe.Stream
}

// buildOutboundRequest constructs the per-attempt outbound HTTP request for
// provider p, replaying the already-buffered inbound body.
func (e *Engine) buildOutboundRequest(r *http.Request, p domain.Provider, body []byte, deadline time.Duration) (*http.Request, func(), error) {
	ctx, cancel := newAttemptContext(r.Context(), deadline)

	url := p.BaseURL + r.URL.Path
	if r.URL.RawQuery != "" {
		url += "?" + r.URL.RawQuery
	}

	outReq, err := http.NewRequestWithContext(ctx, r.Method, url, bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, cancel, err
	}
	outReq.Header = buildOutboundHeaders(r.Header, e.Policy.AccessToken, p.UpstreamToken)
	outReq.Host = ""

	return outReq, cancel, nil
}

func providerNames(providers []domain.Provider, sequence []int) []string {
	names := make([]string, len(sequence))
	for i, idx := range sequence {
		names[i] = providers[idx].Name
	}
	return names
}

func newAttemptContext(parent context.Context, deadline time.Duration) (context.Context, func()) {
	return context.WithTimeout(parent, deadline)
}

// recordOutcome updates the breaker and emits the per-attempt log record.
// errMsg is the transport error text; empty for a plain HTTP status failure.
func (e *Engine) recordOutcome(logger *slog.Logger, p domain.Provider, outcome classify.Outcome, durationMs int64, errMsg string) {
	b := e.Registry.For(p.Name)

	if outcome.Success {
		wasOpen := b.IsOpen()
		b.RecordSuccess()
		logger.Info("request_success", "provider", p.Name, "status", outcome.StatusCode, "duration_ms", durationMs)
		if wasOpen {
			if e.Styled != nil {
				e.Styled.InfoBreakerRecovered(p.Name, "recovered")
			} else {
				logger.Warn("circuit_breaker", "provider", p.Name, "action", "recovered", "failure_count", 0)
			}
		}
		return
	}

	b.RecordFailure()
	if errMsg == "" {
		errMsg = fmt.Sprintf("upstream responded %d", outcome.StatusCode)
	}
	fields := []any{"provider", p.Name, "error_type", outcome.Label, "error_msg", errMsg, "duration_ms", durationMs}
	if outcome.StatusCode > 0 {
		fields = append(fields, "status", outcome.StatusCode)
	}
	logger.Error("request_failure", fields...)

	snap := b.Snapshot()
	if snap.IsOpen && snap.ConsecutiveFailures == e.Policy.FailureThreshold {
		if e.Styled != nil {
			e.Styled.WarnBreakerTripped(p.Name, snap.ConsecutiveFailures)
		} else {
			logger.Warn("circuit_breaker", "provider", p.Name, "action", "tripped", "failure_count", snap.ConsecutiveFailures)
		}
	}
}
