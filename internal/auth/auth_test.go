package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testConfig = Config{Secret: "test-secret", Issuer: "daywell.test"}

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestParseValidToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":   "user-1",
		"iss":   testConfig.Issuer,
		"exp":   time.Now().Add(time.Hour).Unix(),
		"scope": "activities:read activities:write",
	}, testConfig.Secret)

	claims, err := Parse(token, testConfig)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.True(t, claims.HasScope(ScopeActivitiesRead))
	require.True(t, claims.HasAnyScope(ScopeSuggestionsGenerate, ScopeActivitiesWrite))
	require.False(t, claims.HasScope(ScopeSuggestionsGenerate))
}

func TestParseRejectsBadTokens(t *testing.T) {
	cases := map[string]string{
		"wrong secret": signToken(t, jwt.MapClaims{"sub": "u", "iss": testConfig.Issuer, "exp": time.Now().Add(time.Hour).Unix()}, "other"),
		"wrong issuer": signToken(t, jwt.MapClaims{"sub": "u", "iss": "elsewhere", "exp": time.Now().Add(time.Hour).Unix()}, testConfig.Secret),
		"expired":      signToken(t, jwt.MapClaims{"sub": "u", "iss": testConfig.Issuer, "exp": time.Now().Add(-time.Hour).Unix()}, testConfig.Secret),
		"no subject":   signToken(t, jwt.MapClaims{"iss": testConfig.Issuer, "exp": time.Now().Add(time.Hour).Unix()}, testConfig.Secret),
		"no expiry":    signToken(t, jwt.MapClaims{"sub": "u", "iss": testConfig.Issuer}, testConfig.Secret),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(token, testConfig)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	_, err := Parse("  ", testConfig)
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestMiddlewareStoresClaims(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":    "user-42",
		"iss":    testConfig.Issuer,
		"exp":    time.Now().Add(time.Hour).Unix(),
		"scopes": []string{ScopeActivitiesRead},
	}, testConfig.Secret)

	var seen *Claims
	handler := NewMiddleware(testConfig).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/distribution", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNoContent, rr.Code)
	require.NotNil(t, seen)
	require.Equal(t, "user-42", seen.Subject)
}

func TestMiddlewareRejectsAndSkips(t *testing.T) {
	handler := NewMiddleware(testConfig).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/distribution", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Contains(t, rr.Body.String(), "missing bearer token")

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
}
