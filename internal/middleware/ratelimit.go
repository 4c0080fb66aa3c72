package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/build-lab/girder/internal/resputil"
	"github.com/build-lab/girder/pkg/ratelimit"
)

// RateLimit rejects requests beyond the per-client window with 429.
// Clients are keyed by IP.
func RateLimit(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			resputil.HTTPError(c, http.StatusTooManyRequests, "Too many requests", resputil.InvalidRequest)
			c.Abort()
			return
		}
		c.Next()
	}
}
