package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	apperrors "github.com/ikkim/captains-log/internal/errors"
	appRedis "github.com/ikkim/captains-log/pkg/redis"
	"github.com/ikkim/captains-log/pkg/util"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-jwt-secret-for-middleware"

func setupMiddlewareTest(revoked RevocationChecker) (*gin.Engine, *AuthMiddleware) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(LoggingMiddleware())
	middleware := NewAuthMiddleware(testJWTSecret, revoked)

	router.GET("/test", middleware.Authenticate(), func(c *gin.Context) {
		userID, _ := GetUserID(c)
		email, _ := GetUserEmail(c)
		c.JSON(http.StatusOK, gin.H{
			"user_id": userID,
			"email":   email,
		})
	})
	return router, middleware
}

func generateTestToken(t *testing.T, userID uint, email string, expiry time.Duration) string {
	token, err := util.GenerateAccessToken(userID, email, testJWTSecret, expiry)
	require.NoError(t, err)
	return token.Token
}

func doRequest(router *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestAuthMiddleware_Authenticate_Success(t *testing.T) {
	router, _ := setupMiddlewareTest(nil)
	token := generateTestToken(t, 1, "test@example.com", 15*time.Minute)

	w := doRequest(router, "Bearer "+token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test@example.com")
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestAuthMiddleware_Authenticate_NoToken(t *testing.T) {
	router, _ := setupMiddlewareTest(nil)

	w := doRequest(router, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.AuthUnauthorized, errorCode(t, w))
}

func TestAuthMiddleware_Authenticate_InvalidFormat(t *testing.T) {
	router, _ := setupMiddlewareTest(nil)

	tests := []struct {
		name   string
		header string
	}{
		{
			name:   "Missing Bearer prefix",
			header: "invalid-token",
		},
		{
			name:   "Wrong prefix",
			header: "Basic token123",
		},
		{
			name:   "Empty token",
			header: "Bearer ",
		},
		{
			name:   "Garbage token",
			header: "Bearer invalid.jwt.token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, tt.header)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, apperrors.AuthTokenInvalid, errorCode(t, w))
		})
	}
}

func TestAuthMiddleware_Authenticate_ExpiredToken(t *testing.T) {
	router, _ := setupMiddlewareTest(nil)
	token := generateTestToken(t, 1, "test@example.com", -time.Minute)

	w := doRequest(router, "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.AuthTokenExpired, errorCode(t, w))
}

func TestAuthMiddleware_Authenticate_RevokedToken(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	blacklist := appRedis.NewTokenBlacklist(rdb)

	router, _ := setupMiddlewareTest(blacklist)
	token := generateTestToken(t, 1, "test@example.com", 15*time.Minute)

	w := doRequest(router, "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)

	claims, err := util.ValidateToken(token, testJWTSecret)
	require.NoError(t, err)
	require.NoError(t, blacklist.Revoke(context.Background(), claims.ID, claims.ExpiresAt.Time))

	w = doRequest(router, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.AuthTokenRevoked, errorCode(t, w))

	other := generateTestToken(t, 1, "test@example.com", 15*time.Minute)
	w = doRequest(router, "Bearer "+other)
	assert.Equal(t, http.StatusOK, w.Code, "revocation is per token")
}

type failingChecker struct{}

func (failingChecker) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("connection refused")
}

func TestAuthMiddleware_Authenticate_RevocationStoreDown(t *testing.T) {
	router, _ := setupMiddlewareTest(failingChecker{})
	token := generateTestToken(t, 1, "test@example.com", 15*time.Minute)

	w := doRequest(router, "Bearer "+token)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	userID, exists := GetUserID(c)
	assert.False(t, exists)
	assert.Equal(t, uint(0), userID)

	c.Set(UserIDKey, uint(123))
	userID, exists = GetUserID(c)
	assert.True(t, exists)
	assert.Equal(t, uint(123), userID)
}

func TestGetUserEmail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	email, exists := GetUserEmail(c)
	assert.False(t, exists)
	assert.Empty(t, email)

	c.Set(UserEmailKey, "test@example.com")
	email, exists = GetUserEmail(c)
	assert.True(t, exists)
	assert.Equal(t, "test@example.com", email)
}

func TestGetClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, exists := GetClaims(c)
	assert.False(t, exists)

	claims := &util.TokenClaims{UserID: 7}
	c.Set(ClaimsKey, claims)
	got, exists := GetClaims(c)
	assert.True(t, exists)
	assert.Same(t, claims, got)
}

func TestLoggingMiddleware_KeepsIncomingRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(LoggingMiddleware())
	router.GET("/ping", func(c *gin.Context) {
		assert.NotNil(t, GetLoggerFromContext(c))
		c.String(http.StatusOK, GetRequestID(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Body.String())
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
}
