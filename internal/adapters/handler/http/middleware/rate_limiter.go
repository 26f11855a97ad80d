package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimiterMiddleware is a fixed-window counter in Redis. Authenticated
// requests are counted per user, the rest per client IP. Redis failures let
// the request through.
func RateLimiterMiddleware(rdb *redis.Client, limit int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := rateLimitKey(c)

		var incr *redis.IntCmd
		var ttl *redis.DurationCmd
		_, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(ctx, key)
			pipe.ExpireNX(ctx, key, window)
			ttl = pipe.TTL(ctx, key)
			return nil
		})
		if err != nil {
			logger.Warn("rate limiter skipped", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		count := incr.Val()
		remaining := ttl.Val()
		if remaining <= 0 {
			remaining = window
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(limit)-count), 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(remaining).Unix(), 10))

		if count > int64(limit) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"status":     "error",
				"message":    "Too many requests. Slow down!",
				"retry_in_s": int(remaining.Seconds()),
			})
			return
		}

		c.Next()
	}
}

func rateLimitKey(c *gin.Context) string {
	if userID, ok := GetUserID(c); ok {
		return fmt.Sprintf("rate_limit:user:%s", userID)
	}
	return fmt.Sprintf("rate_limit:ip:%s", c.ClientIP())
}
