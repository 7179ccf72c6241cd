package forward

import (
	"net/http"

	"github.com/lynn4am/gatekeeper/internal/auth"
	"github.com/lynn4am/gatekeeper/internal/core/constants"
)

// buildOutboundHeaders clones the inbound headers minus hop-by-hop names,
// then substitutes the gateway access token for the selected provider's
// upstream token. Host is deliberately excluded here; it is derived from
// the outbound URL by the HTTP client.
func buildOutboundHeaders(inbound http.Header, accessToken, upstreamToken string) http.Header {
	out := inbound.Clone()
	for _, h := range constants.HopByHopHeaders {
		out.Del(h)
	}
	auth.SubstituteToken(out, accessToken, upstreamToken)
	return out
}

// filterResponseHeaders strips hop-by-hop headers from an upstream
// response before copying it to the client.
func filterResponseHeaders(dst http.Header, src http.Header) {
	for k, values := range src {
		if isHopByHop(k) {
			continue
		}
		for _, v := range values {
			dst.Add(k, v)
		}
	}
}

func isHopByHop(name string) bool {
	for _, h := range constants.HopByHopHeaders {
		if http.CanonicalHeaderKey(h) == http.CanonicalHeaderKey(name) {
			return true
		}
	}
	return false
}
