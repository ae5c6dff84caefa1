package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"sports_academy_backend/internal/util"
	"sports_academy_backend/pkg/monitoring"
	"sports_academy_backend/pkg/ratelimit"

	"github.com/gin-gonic/gin"
)

// RateLimit enforces a named policy on a route group. Identity is the
// authenticated user when present, otherwise the client IP, so quotas follow
// accounts across networks. Quota state is always reported via the
// X-RateLimit-* headers; exceeding the limit yields 429.
func RateLimit(limiter *ratelimit.Limiter, policy ratelimit.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := c.ClientIP()
		if claims := util.GetUserFromContext(c); claims != nil {
			identity = fmt.Sprintf("user:%d", claims.UserID)
		}

		res := limiter.Check(c.Request.Context(), identity, policy)

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

		if !res.Allowed {
			monitoring.RateLimitedCounter.WithLabelValues(policy.Name).Inc()
			util.Error(c, http.StatusTooManyRequests, "Too many requests")
			c.Abort()
			return
		}

		c.Next()
	}
}
