package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/folio-space/core/internal/pkg/limiter"
	"github.com/folio-space/core/internal/pkg/response"
	"go.uber.org/zap"
)

// ClientKey returns the rate-limit key for a request: the client IP,
// or the sentinel "anonymous" when none can be determined.
func ClientKey(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "anonymous"
}

// RateLimit returns a middleware that rejects requests over the
// limiter's quota with 429 before the handler runs, so no database
// mutation can happen past the limit.
func RateLimit(l limiter.Limiter, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := ClientKey(c)
		ok, err := l.Allow(c.Request.Context(), key)
		if err != nil {
			log.Warn("rate limiter backend error", zap.Error(err), zap.String("ip", key))
		}
		if !ok {
			log.Warn("rate limit exceeded",
				zap.String("ip", key),
				zap.String("path", c.Request.URL.Path),
			)
			c.Header("Retry-After", "3600")
			response.TooManyRequests(c, "too many requests, slow down")
			return
		}
		c.Next()
	}
}
