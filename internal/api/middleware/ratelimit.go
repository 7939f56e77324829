package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "github.com/feral-file/achievement-minter/internal/api/shared/errors"
	"github.com/feral-file/achievement-minter/internal/logger"
	"github.com/feral-file/achievement-minter/internal/ratelimit"
)

// RateLimit rejects requests over the limit with 429 and a Retry-After header.
// Requests are keyed by the authenticated operator, falling back to the client IP.
func RateLimit(limiter ratelimit.Limiter, name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if operator, ok := OperatorFromContext(c); ok {
			key = operator.String()
		}

		allowed, retryAfter := limiter.Allow(c.Request.Context(), name+":"+key)
		if !allowed {
			seconds := int(math.Ceil(retryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			logger.WarnCtx(c.Request.Context(), "Rate limit exceeded",
				zap.String("limit", name),
				zap.String("key", key),
				zap.Duration("retry_after", retryAfter),
			)
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				apierrors.NewRateLimitedError("Too many requests", "retry after "+strconv.Itoa(seconds)+"s").Wrap())
			return
		}

		c.Next()
	}
}
