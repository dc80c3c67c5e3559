package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func protected(t *testing.T, m *JWTMiddleware) (http.Handler, *string) {
	t.Helper()
	var seen string
	h := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := UserIDFromContext(r.Context())
		require.NoError(t, err)
		seen = id
		w.WriteHeader(http.StatusNoContent)
	}))
	return h, &seen
}

func do(h http.Handler, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticate_ValidToken(t *testing.T) {
	h, seen := protected(t, NewJWTMiddleware(secret, "pdfchat"))

	tok, err := NewToken(secret, "pdfchat", "user-1", time.Hour)
	require.NoError(t, err)

	rec := do(h, "Bearer "+tok)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "user-1", *seen)
}

func TestAuthenticate_Rejects(t *testing.T) {
	m := NewJWTMiddleware(secret, "pdfchat")
	h, _ := protected(t, m)

	expired, err := NewToken(secret, "pdfchat", "user-1", -time.Minute)
	require.NoError(t, err)
	wrongKey, err := NewToken("other", "pdfchat", "user-1", time.Hour)
	require.NoError(t, err)
	wrongIssuer, err := NewToken(secret, "someone", "user-1", time.Hour)
	require.NoError(t, err)
	noSubject, err := NewToken(secret, "pdfchat", "", time.Hour)
	require.NoError(t, err)
	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1", "iss": "pdfchat"}).
		SignedString([]byte(secret))
	require.NoError(t, err)

	const missing = `{"error":"missing authorization token"}`
	const invalid = `{"error":"invalid token"}`
	cases := []struct {
		name  string
		authz string
		body  string
	}{
		{"missing header", "", missing},
		{"not bearer", "Basic abc", missing},
		{"garbage", "Bearer not-a-token", invalid},
		{"expired", "Bearer " + expired, invalid},
		{"wrong key", "Bearer " + wrongKey, invalid},
		{"wrong issuer", "Bearer " + wrongIssuer, invalid},
		{"no subject", "Bearer " + noSubject, invalid},
		{"no expiry", "Bearer " + noExpiry, invalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(h, tc.authz)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, tc.body, rec.Body.String())
		})
	}
}

func TestUserIDFromContext_Empty(t *testing.T) {
	_, err := UserIDFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.ErrorIs(t, err, ErrNoUser)
}
