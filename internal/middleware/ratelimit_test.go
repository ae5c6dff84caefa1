package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sports_academy_backend/pkg/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRateLimitedRouter(policy ratelimit.Policy) *gin.Engine {
	gin.SetMode(gin.TestMode)
	limiter := ratelimit.New(ratelimit.NewMemoryStore())

	router := gin.New()
	router.GET("/ping", RateLimit(limiter, policy), func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return router
}

func TestRateLimitHeadersAndRejection(t *testing.T) {
	router := newRateLimitedRouter(ratelimit.Policy{Name: "test", MaxRequests: 2, Window: time.Minute})

	wantStatus := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	wantRemaining := []string{"1", "0", "0"}

	for i := range wantStatus {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		router.ServeHTTP(w, req)

		assert.Equal(t, wantStatus[i], w.Code, "request %d status", i+1)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, wantRemaining[i], w.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	}
}

func TestRateLimitSeparatesClientIPs(t *testing.T) {
	router := newRateLimitedRouter(ratelimit.Policy{Name: "test", MaxRequests: 1, Window: time.Minute})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// A different client still has quota.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
