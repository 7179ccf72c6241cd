// Package middleware holds the HTTP middleware chain wrapped around every
// route: request-ID minting, response accounting, and the top-level access
// log line. Per-attempt cascade logging (request_forward, request_success,
// request_failure, circuit_breaker) lives in internal/forward instead, since
// it needs the provider and attempt number the middleware layer never sees.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/lynn4am/gatekeeper/internal/core/constants"
	"github.com/lynn4am/gatekeeper/internal/util"
	"github.com/lynn4am/gatekeeper/pkg/format"
)

// responseWriter wraps http.ResponseWriter to capture status and size for
// the access log line, and to propagate Flush so streaming responses aren't
// buffered choppy.
type responseWriter struct {
	http.ResponseWriter
	status int
	size   int64
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += int64(n)
	return n, err
}

func (rw *responseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// RequestID mints or adopts a request ID, stashes it on the request context
// under constants.ContextRequestIDKey, and echoes it back to the client.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get("X-Request-ID")
			if reqID == "" {
				reqID = util.GenerateRequestID()
			}
			w.Header().Set("X-Request-ID", reqID)

			ctx := context.WithValue(r.Context(), constants.ContextRequestIDKey, reqID)
			ctx = context.WithValue(ctx, constants.ContextRequestTimeKey, time.Now())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccessLog emits one line per request at completion, independent of
// whatever the forward engine logged for individual provider attempts.
func AccessLog(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			reqID, _ := r.Context().Value(constants.ContextRequestIDKey).(string)

			logger.Info("access",
				"req_id", reqID,
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.status,
				"duration", format.Duration(duration),
				"response_bytes", wrapped.size,
				"remote_addr", util.GetClientIP(r, false, nil),
			)
		})
	}
}
