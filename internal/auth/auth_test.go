package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	v := NewVerifier("s3cret", "donorhub", time.Hour)

	token, err := v.Issue("admin@example.org", RoleAdmin)
	require.NoError(t, err)

	claims, err := v.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.org", claims.Email)
	assert.True(t, claims.IsAdmin())
}

func TestParseRejects(t *testing.T) {
	v := NewVerifier("s3cret", "donorhub", time.Hour)

	other, err := NewVerifier("different", "donorhub", time.Hour).Issue("a@example.org", RoleAdmin)
	require.NoError(t, err)
	foreign, err := NewVerifier("s3cret", "someone-else", time.Hour).Issue("a@example.org", RoleAdmin)
	require.NoError(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Email: "a@example.org",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "donorhub",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	expiredToken, err := expired.SignedString([]byte("s3cret"))
	require.NoError(t, err)

	tests := map[string]string{
		"wrong secret": other,
		"wrong issuer": foreign,
		"expired":      expiredToken,
		"garbage":      "not-a-token",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := v.Parse(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestEmptySecretRejectsEverything(t *testing.T) {
	v := NewVerifier("", "donorhub", time.Hour)
	_, err := v.Issue("a@example.org", RoleAdmin)
	assert.ErrorIs(t, err, ErrNoSecret)
	_, err = v.Parse("anything")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractToken(t *testing.T) {
	assert.Equal(t, "abc", ExtractToken("Bearer abc"))
	assert.Equal(t, "abc", ExtractToken("bearer abc"))
	assert.Equal(t, "abc", ExtractToken("abc"))
}

func TestRequireRole(t *testing.T) {
	v := NewVerifier("s3cret", "donorhub", time.Hour)
	adminToken, err := v.Issue("admin@example.org", RoleAdmin)
	require.NoError(t, err)
	donorToken, err := v.Issue("donor@example.org", "")
	require.NoError(t, err)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, found := FromContext(r.Context())
		require.True(t, found)
		w.Write([]byte(claims.Email))
	})
	h := v.Authenticate(RequireRole(RoleAdmin)(ok))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"donor", "Bearer " + donorToken, http.StatusForbidden},
		{"admin", "Bearer " + adminToken, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/camps", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestAuthenticateLetsAnonymousThrough(t *testing.T) {
	v := NewVerifier("s3cret", "donorhub", time.Hour)
	var sawClaims bool
	h := v.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawClaims = FromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/camps", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, sawClaims)
}
