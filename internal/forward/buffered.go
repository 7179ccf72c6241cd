package forward

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/lynn4am/gatekeeper/internal/classify"
	"github.com/lynn4am/gatekeeper/internal/core/domain"
)

// runBuffered implements the Forward Engine's buffered path (spec §4.5):
// cascade across the selector's sequence, returning the first
// non-failure response in full.
func (e *Engine) runBuffered(w http.ResponseWriter, r *http.Request, body []byte, sequence []int, logger *slog.Logger) {
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
		durationMs := time.Since(start).Milliseconds()

		if err != nil {
			cancel()
			if clientAborted(r, err) {
				return
			}
			outcome := classify.Attempt(err, 0)
			e.recordOutcome(logger, p, outcome, durationMs, err.Error())
			lastErr = domain.NewClassifiedError(p.Name, outcome.Label, 0, err)
			continue
		}

		outcome := classify.Attempt(nil, resp.StatusCode)
		e.recordOutcome(logger, p, outcome, durationMs, "")

		if !outcome.Success {
			drainAndClose(resp.Body)
			cancel()
			lastErr = domain.NewClassifiedError(p.Name, outcome.Label, resp.StatusCode, nil)
			continue
		}

		filterResponseHeaders(w.Header(), resp.Header)
		w.WriteHeader(resp.StatusCode)
		_, _ = io.Copy(w, resp.Body)
		drainAndClose(resp.Body)
		cancel()
		return
	}

	writeExhausted(w, providerNames(e.Providers, sequence), lastErr, logger)
}

// clientAborted reports whether the inbound request's own context was
// cancelled (the client disconnected), as opposed to the per-attempt
// deadline firing — a cancelled outbound attempt only counts against the
// provider when the attempt's own deadline expired.
func clientAborted(r *http.Request, _ error) bool {
	return r.Context().Err() != nil
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}

type lastErrorBody struct {
	Provider string `json:"provider"`
	Type     string `json:"error_type"`
	Message  string `json:"error_msg"`
}

type exhaustedBody struct {
	Error          string         `json:"error"`
	ProvidersTried []string       `json:"providers_tried"`
	LastError      *lastErrorBody `json:"last_error"`
}

func writeExhausted(w http.ResponseWriter, triedProviders []string, lastErr *domain.ClassifiedError, logger *slog.Logger) {
	exhausted := &domain.ExhaustedError{ProvidersTried: triedProviders, LastError: lastErr}

	errorType := domain.ErrorLabelUnknown
	errorMsg := "no providers were attempted"
	if lastErr != nil {
		errorType = lastErr.Label
		errorMsg = lastErr.Error()
	}
	logger.Error("all_providers_failed", "error_type", errorType, "error_msg", errorMsg)

	body := exhaustedBody{
		Error:          exhausted.Error(),
		ProvidersTried: triedProviders,
	}
	if lastErr != nil {
		msg := errorMsg
		if lastErr.Err != nil {
			msg = lastErr.Err.Error()
		}
		body.LastError = &lastErrorBody{
			Provider: lastErr.Provider,
			Type:     string(lastErr.Label),
			Message:  msg,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadGateway)
	_ = json.NewEncoder(w).Encode(body)
}
