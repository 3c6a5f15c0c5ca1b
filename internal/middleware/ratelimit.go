package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v10"
	"go.uber.org/zap"

	"anoa.com/housecup/internal/logger"
)

// Limiter is satisfied by *redis_rate.Limiter.
type Limiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

// RateLimiter throttles write requests per authenticated user.
type RateLimiter struct {
	limiter Limiter
	limit   redis_rate.Limit
}

func NewRateLimiter(limiter Limiter, perMinute int) *RateLimiter {
	return &RateLimiter{limiter: limiter, limit: redis_rate.PerMinute(perMinute)}
}

// Writes must run after RequireAuth. Safe methods pass through. When Redis is
// unreachable requests are let through.
func (r *RateLimiter) Writes() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		userID := c.GetString("user_id")
		if userID == "" || r.limit.Rate <= 0 {
			c.Next()
			return
		}

		res, err := r.limiter.Allow(c.Request.Context(), "rate_limit:user:"+userID, r.limit)
		if err != nil {
			logger.WarnCtx(c.Request.Context(), "rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if res.Allowed == 0 {
			retry := int(res.RetryAfter.Round(time.Second) / time.Second)
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		c.Next()
	}
}
