// Package auth implements the gateway's pre-shared access token check and
// the outbound credential substitution that replaces it with a provider's
// own upstream token.
package auth

import "net/http"

// Admit reports whether the request carries the configured access token.
// An empty accessToken disables the check entirely. Otherwise the gate
// admits the request iff the literal token appears as the value of any
// header, regardless of header name — this is deliberately permissive
// (see the design notes on token match semantics) and preserved as-is.
func Admit(r *http.Request, accessToken string) bool {
	if accessToken == "" {
		return true
	}

	for _, values := range r.Header {
		for _, v := range values {
			if v == accessToken {
				return true
			}
		}
	}
	return false
}

// SubstituteToken rewrites every header value equal to accessToken with
// upstreamToken, used when building the outbound request so the provider
// sees its own credential rather than the gateway's.
func SubstituteToken(h http.Header, accessToken, upstreamToken string) {
	if accessToken == "" {
		return
	}
	for key, values := range h {
		for i, v := range values {
			if v == accessToken {
				h[key][i] = upstreamToken
			}
		}
	}
}
