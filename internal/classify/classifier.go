// Package classify maps one attempt's transport error and status code into
// the success/failure verdict the circuit breaker consumes.
package classify

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/lynn4am/gatekeeper/internal/core/domain"
)

// Outcome is the classifier's verdict for one completed (or failed) attempt
// against a single provider.
type Outcome struct {
	Success    bool
	Label      domain.ErrorLabel
	StatusCode int
}

// Attempt classifies a finished HTTP round trip: err is the transport-level
// error returned by the client (nil if a response was received), status is
// the response status code (ignored when err is non-nil).
func Attempt(err error, status int) Outcome {
	if err != nil {
		return Outcome{Success: false, Label: labelFor(err)}
	}

	if status >= http.StatusInternalServerError {
		return Outcome{Success: false, Label: domain.ErrorLabelHTTP, StatusCode: status}
	}

	// 4xx are successes to the classifier: they are client errors that
	// must pass through verbatim rather than trigger a failover that
	// would mask a misconfigured request.
	return Outcome{Success: true, StatusCode: status}
}

func labelFor(err error) domain.ErrorLabel {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrorLabelTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.ErrorLabelTimeout
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return domain.ErrorLabelConnection
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return domain.ErrorLabelConnection
	}

	// net/http wraps transport errors in *url.Error; the message text is
	// the last resort for classifying causes the stdlib doesn't expose a
	// typed error for (connection refused/reset surfacing as a plain
	// syscall errno wrapped deep enough that errors.As above misses it).
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		return domain.ErrorLabelTimeout
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "broken pipe"),
		strings.Contains(msg, "eof"):
		return domain.ErrorLabelConnection
	default:
		return domain.ErrorLabelUnknown
	}
}
