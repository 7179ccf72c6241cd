package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lynn4am/gatekeeper/internal/core/constants"
)

func TestRequestID_MintsWhenAbsent(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(constants.ContextRequestIDKey).(string)
	})

	handler := RequestID()(next)
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rr.Header().Get("X-Request-ID"))
}

func TestRequestID_AdoptsIncomingHeader(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(constants.ContextRequestIDKey).(string)
	})

	handler := RequestID()(next)
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Request-ID", "client-supplied-id")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, "client-supplied-id", seen)
	assert.Equal(t, "client-supplied-id", rr.Header().Get("X-Request-ID"))
}

func TestAccessLog_RecordsStatusAndSize(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("hello"))
	})

	handler := RequestID()(AccessLog(logger)(next))
	req := httptest.NewRequest(http.MethodPost, "/forward?x=1", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusTeapot, rr.Code)
	line := buf.String()
	assert.Contains(t, line, `"status":418`)
	assert.Contains(t, line, `"response_bytes":5`)
	assert.Contains(t, line, `"path":"/forward"`)
}

func TestAccessLog_DefaultsStatusToOKWhenNotWritten(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	handler := AccessLog(logger)(next)
	req := httptest.NewRequest(http.MethodGet, "/quiet", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Contains(t, buf.String(), `"status":200`)
}
