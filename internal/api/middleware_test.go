package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func authRouter(issuer string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuthMiddleware(testSecret, issuer))
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(clientKey))
	})
	return r
}

func TestJWTAuthMiddleware(t *testing.T) {
	r := authRouter("textmatch")

	otherKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"iss": "textmatch"}).SignedString([]byte("other"))
	assert.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
		client string
	}{
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Token abc", http.StatusUnauthorized, ""},
		{"garbage token", "Bearer abc", http.StatusUnauthorized, ""},
		{"wrong key", "Bearer " + otherKey, http.StatusUnauthorized, ""},
		{"wrong issuer", "Bearer " + signToken(t, jwt.MapClaims{"iss": "someone-else", "sub": "x"}), http.StatusUnauthorized, ""},
		{"expired", "Bearer " + signToken(t, jwt.MapClaims{"iss": "textmatch", "exp": time.Now().Add(-time.Minute).Unix()}), http.StatusUnauthorized, ""},
		{"api key claim", "Bearer " + signToken(t, jwt.MapClaims{"iss": "textmatch", "api_key": "key-1", "sub": "user"}), http.StatusOK, "key-1"},
		{"subject claim", "Bearer " + signToken(t, jwt.MapClaims{"iss": "textmatch", "sub": "user-9"}), http.StatusOK, "user-9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.client, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
			}
		})
	}
}

func TestJWTAuthMiddleware_NoIssuerCheck(t *testing.T) {
	r := authRouter("")

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.MapClaims{"iss": "anyone", "sub": "u"}))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewRateLimiter(0.001, 2)

	r := gin.New()
	r.Use(RateLimitMiddleware(limiter))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	// another client has its own bucket
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRateLimiter_Sweep(t *testing.T) {
	limiter := NewRateLimiter(1, 0)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	first := limiter.GetLimiter("a")
	assert.Same(t, first, limiter.GetLimiter("a"))

	now = now.Add(30 * time.Minute)
	limiter.GetLimiter("b")

	now = now.Add(45 * time.Minute)
	assert.Equal(t, 1, limiter.Sweep(time.Hour))
	assert.NotSame(t, first, limiter.GetLimiter("a"))
	assert.Equal(t, 0, limiter.Sweep(time.Hour))
}

func TestErrorHandlerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandlerMiddleware())
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(assert.AnError)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}
