package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdmit_EmptyTokenDisablesAuth(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.True(t, Admit(r, ""))
}

func TestAdmit_TokenInAnyHeaderAdmits(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Api-Key", "secret")
	assert.True(t, Admit(r, "secret"))
}

func TestAdmit_TokenInAuthorizationHeaderAdmits(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "secret")
	assert.True(t, Admit(r, "secret"))
}

func TestAdmit_MissingTokenRejects(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "wrong")
	assert.False(t, Admit(r, "secret"))
}

func TestAdmit_TokenAsHeaderNameDoesNotMatch(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("secret", "something-else")
	assert.False(t, Admit(r, "secret"))
}

func TestSubstituteToken_ReplacesMatchingValues(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "secret")
	h.Set("X-Other", "unrelated")

	SubstituteToken(h, "secret", "provider-token")

	assert.Equal(t, "provider-token", h.Get("Authorization"))
	assert.Equal(t, "unrelated", h.Get("X-Other"))
}

func TestSubstituteToken_NoOpWhenAccessTokenEmpty(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "whatever")
	SubstituteToken(h, "", "provider-token")
	assert.Equal(t, "whatever", h.Get("Authorization"))
}
