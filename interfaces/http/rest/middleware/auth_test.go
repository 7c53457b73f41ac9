package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juancgarza/memex/pkg/auth"
)

func TestScrubTrustedHeaders(t *testing.T) {
	headers := map[string]string{
		"x-user-id":                "attacker",
		"X-User-Id":                "attacker",
		"x-user-email":             "attacker@example.com",
		"X-USER-ROLES":             "admin",
		"x-api-gateway-authorized": "true",
		"content-type":             "application/json",
		"authorization":            "Bearer token",
	}

	ScrubTrustedHeaders(headers)

	assert.Equal(t, map[string]string{
		"content-type":  "application/json",
		"authorization": "Bearer token",
	}, headers)
}

func TestAuthenticateForLambdaTrustsInjectedContext(t *testing.T) {
	var got *auth.UserContext
	handler := AuthenticateForLambda()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.GetUserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notes", nil)
	req.Header.Set("X-API-Gateway-Authorized", "true")
	req.Header.Set("X-User-ID", "alice")
	req.Header.Set("X-User-Email", "alice@example.com")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.UserID)
	assert.Equal(t, "alice@example.com", got.Email)
}

func TestAuthenticateForLambdaRejectsMissingContext(t *testing.T) {
	handler := AuthenticateForLambda()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notes", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
