package util

import (
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var hexID = regexp.MustCompile(`^[0-9a-f]{8}$`)

func TestGenerateRequestID_IsShortHex(t *testing.T) {
	id := GenerateRequestID()
	assert.Regexp(t, hexID, id)
}

func TestGenerateRequestID_VariesAcrossCalls(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		seen[GenerateRequestID()] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestGetClientIP_UntrustedUsesRemoteAddr(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.5:54321"
	r.Header.Set("X-Forwarded-For", "10.0.0.1")

	assert.Equal(t, "203.0.113.5", GetClientIP(r, false, nil))
}
