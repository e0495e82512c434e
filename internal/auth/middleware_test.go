package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatedHandler(t *testing.T, tokens TokenService) (http.Handler, *bool, *int64) {
	t.Helper()
	called := false
	var seen int64
	h := NewMiddleware(tokens).RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		seen, _ = GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	return h, &called, &seen
}

func TestRequireAuth_Rejections(t *testing.T) {
	tokens := NewJWTService("test-secret", time.Hour)
	expired := NewJWTService("test-secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, err := expired.CreateToken("1")
	require.NoError(t, err)
	nonNumeric, err := tokens.CreateToken("alice")
	require.NoError(t, err)
	foreign, err := NewJWTService("other-secret", time.Hour).CreateToken("1")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"empty bearer", "Bearer "},
		{"lowercase scheme", "bearer " + nonNumeric},
		{"garbage token", "Bearer not-a-token"},
		{"expired", "Bearer " + expiredToken},
		{"foreign secret", "Bearer " + foreign},
		{"non numeric subject", "Bearer " + nonNumeric},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h, called, _ := gatedHandler(t, tokens)

			req := httptest.NewRequest(http.MethodPost, "/api/products", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
			assert.False(t, *called)
		})
	}
}

func TestRequireAuth_MissingSecret(t *testing.T) {
	h, called, _ := gatedHandler(t, NewJWTService("", time.Hour))

	req := httptest.NewRequest(http.MethodPost, "/api/products", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Server misconfigured (JWT_SECRET)"}`, rec.Body.String())
	assert.False(t, *called)
}

func TestRequireAuth_AttachesUserID(t *testing.T) {
	tokens := NewJWTService("test-secret", time.Hour)
	token, err := tokens.CreateToken("15")
	require.NoError(t, err)

	h, called, seen := gatedHandler(t, tokens)

	req := httptest.NewRequest(http.MethodPost, "/api/products", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, *called)
	assert.Equal(t, int64(15), *seen)
}
