package constants

// HopByHopHeaders are stripped from both the inbound request and the
// upstream response before copying, per RFC 7230 §6.1. Host is included
// here too since the forward engine always sets it from the provider's
// BaseURL, never from the inbound request.
var HopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailers",
	"Transfer-Encoding",
	"Upgrade",
	"Host",
}

const AuthorizationHeader = "Authorization"
