// ===============================
// FILE: internal/middleware/auth_test.go
// ===============================

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"threadhub/internal/config"
	"threadhub/internal/contextutils"
	"threadhub/internal/response"
)

const testSecret = "test-secret"

func testAuth(t *testing.T) *AuthMiddleware {
	t.Helper()
	cfg := &config.AuthConfig{JWTSecret: testSecret, Issuer: "threadhub"}
	return NewAuthMiddleware(cfg, zap.NewNop(), response.NewBuilder(response.DefaultConfig(), zap.NewNop()))
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":      "42",
		"username": "alice",
		"iss":      "threadhub",
		"exp":      time.Now().Add(time.Hour).Unix(),
	}
}

func identityEcho(t *testing.T) (http.Handler, *int64) {
	t.Helper()
	var seen int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID, ok := contextutils.GetUserID(r.Context()); ok {
			seen = userID
		}
		w.WriteHeader(http.StatusOK)
	})
	return handler, &seen
}

func TestRequire_ValidToken(t *testing.T) {
	auth := testAuth(t)
	handler, seen := identityEcho(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, validClaims()))
	rec := httptest.NewRecorder()
	auth.Require()(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(42), *seen)
}

func TestRequire_MissingToken(t *testing.T) {
	auth := testAuth(t)
	handler, _ := identityEcho(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	auth.Require()(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequire_ExpiredToken(t *testing.T) {
	auth := testAuth(t)
	handler, _ := identityEcho(t)

	claims := validClaims()
	claims["exp"] = time.Now().Add(-time.Hour).Unix()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, claims))
	rec := httptest.NewRecorder()
	auth.Require()(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequire_WrongIssuer(t *testing.T) {
	auth := testAuth(t)
	handler, _ := identityEcho(t)

	claims := validClaims()
	claims["iss"] = "somewhere-else"

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, claims))
	rec := httptest.NewRecorder()
	auth.Require()(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequire_WrongSecret(t *testing.T) {
	auth := testAuth(t)
	handler, _ := identityEcho(t)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims())
	signed, err := token.SignedString([]byte("other-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	auth.Require()(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptional_InvalidTokenPassesAnonymously(t *testing.T) {
	auth := testAuth(t)
	handler, seen := identityEcho(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	auth.Optional()(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(0), *seen)
}

func TestOptional_ValidTokenSetsIdentity(t *testing.T) {
	auth := testAuth(t)
	handler, seen := identityEcho(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, validClaims()))
	rec := httptest.NewRecorder()
	auth.Optional()(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(42), *seen)
}
