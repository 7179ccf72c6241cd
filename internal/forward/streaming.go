package forward

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/lynn4am/gatekeeper/internal/classify"
	"github.com/lynn4am/gatekeeper/internal/core/domain"
)

// runStreaming implements the Forward Engine's streaming path (spec §4.6).
// No response bytes are committed to the client until a provider's headers
// classify as success; once the body starts streaming, a failure is
// terminal and never triggers failover.
func (e *Engine) runStreaming(w http.ResponseWriter, r *http.Request, body []byte, sequence []int, logger *slog.Logger) {
	var lastErr *domain.ClassifiedError

	for attempt, idx := range sequence {
		p := e.Providers[idx]

		outReq, cancel, err := e.buildOutboundRequest(r, p, body, e.Policy.RequestTimeout)
		if err != nil {
			cancel()
			lastErr = domain.NewClassifiedError(p.Name, domain.ErrorLabelUnknown, 0, err)
			continue
		}

		logger.Info("request_forward", "provider", p.Name, "target_url", outReq.URL.String(), "attempt", attempt+1)

		start := time.Now()
		resp, err := e.Client.Do(outReq)
		headerDurationMs := time.Since(start).Milliseconds()

		if err != nil {
			cancel()
			if clientAborted(r, err) {
				return
			}
			outcome := classify.Attempt(err, 0)
			e.recordOutcome(logger, p, outcome, headerDurationMs, err.Error())
			lastErr = domain.NewClassifiedError(p.Name, outcome.Label, 0, err)
			continue
		}

		outcome := classify.Attempt(nil, resp.StatusCode)
		e.recordOutcome(logger, p, outcome, headerDurationMs, "")

		if !outcome.Success {
			drainAndClose(resp.Body)
			cancel()
			lastErr = domain.NewClassifiedError(p.Name, outcome.Label, resp.StatusCode, nil)
			continue
		}

		// Commit point: headers go out now, so no subsequent error in this
		// block may fail over to another provider.
		filterResponseHeaders(w.Header(), resp.Header)
		w.WriteHeader(resp.StatusCode)
		e.streamBody(w, resp.Body, p, logger)
		drainAndClose(resp.Body)
		cancel()
		return
	}

	writeExhausted(w, providerNames(e.Providers, sequence), lastErr, logger)
}

// streamBody copies the upstream body to the client a chunk at a time,
// flushing after every write so long responses don't arrive choppy. Any
// error here is terminal: it is recorded against the provider's breaker
// for observability, but the client has already seen a partial success so
// there is no failover.
func (e *Engine) streamBody(w http.ResponseWriter, upstream io.Reader, p domain.Provider, logger *slog.Logger) {
	flusher, canFlush := w.(http.Flusher)

	buf := chunkPool.Get()
	defer chunkPool.Put(buf)

	for {
		n, readErr := upstream.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				e.recordMidStreamFailure(p, logger, writeErr)
				return
			}
			if canFlush {
				flusher.Flush()
			}
		}
		if readErr != nil {
			if !errors.Is(readErr, io.EOF) {
				e.recordMidStreamFailure(p, logger, readErr)
			}
			return
		}
	}
}

func (e *Engine) recordMidStreamFailure(p domain.Provider, logger *slog.Logger, err error) {
	outcome := classify.Attempt(err, 0)
	e.Registry.For(p.Name).RecordFailure()
	logger.Error("request_failure", "provider", p.Name, "error_type", outcome.Label, "error_msg", err.Error(), "mid_stream", true)
}
