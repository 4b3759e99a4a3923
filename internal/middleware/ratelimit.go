package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
	"github.com/noah-isme/academic-records-api/pkg/response"
)

// LoginRateLimit caps login attempts per client IP using a fixed Redis
// window. A nil client or a Redis failure fails open so an outage never
// locks everyone out.
func LoginRateLimit(client *redis.Client, limit int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if client == nil || limit <= 0 {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:login:%s", c.ClientIP())
		count, err := client.Incr(c.Request.Context(), key).Result()
		if err != nil {
			logger.Warn("login rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if count == 1 {
			if err := client.Expire(c.Request.Context(), key, window).Err(); err != nil {
				logger.Warn("login rate limiter expire failed", zap.Error(err))
			}
		} else if ttl, err := client.TTL(c.Request.Context(), key).Result(); err == nil && ttl < 0 {
			// The counter exists without an expiry, which happens when the
			// process dies between INCR and EXPIRE. Re-arm so the window
			// always closes instead of locking the address out for good.
			if err := client.Expire(c.Request.Context(), key, window).Err(); err != nil {
				logger.Warn("login rate limiter expire failed", zap.Error(err))
			}
		}
		if count > int64(limit) {
			response.Error(c, appErrors.Clone(appErrors.ErrRateLimited, "too many login attempts, try again later"))
			c.Abort()
			return
		}
		c.Next()
	}
}
