package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"

	"mylinked/pkg/logging"
)

// rateCounter is the slice of the redis client the limiter uses.
type rateCounter interface {
	Incr(ctx context.Context, key string) *goredis.IntCmd
	Expire(ctx context.Context, key string, ttl time.Duration) *goredis.BoolCmd
}

// RateLimitMiddleware caps requests per client IP on public routes using a
// fixed redis window. A nil client disables the limit, and a redis failure
// lets the request through: availability of public pages beats the cap.
func RateLimitMiddleware(client *goredis.Client, logger logging.Logger, name string, limit int, window time.Duration) gin.HandlerFunc {
	var counter rateCounter
	if client != nil {
		counter = client
	}
	return rateLimit(counter, logger, name, limit, window)
}

func rateLimit(counter rateCounter, logger logging.Logger, name string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c Context) {
		if counter == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := fmt.Sprintf("mylinked:rl:%s:%s", name, c.ClientIP())

		count, err := counter.Incr(ctx, key).Result()
		if err != nil {
			logger.WithError(err).WithField("route", name).Warn("Rate limit counter unavailable")
			c.Next()
			return
		}
		if count == 1 {
			// First hit opens the window.
			counter.Expire(ctx, key, window)
		}
		if count > int64(limit) {
			c.Header("Retry-After", strconv.Itoa(int(window/time.Second)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, H{"error": "Too many requests"})
			return
		}

		c.Next()
	}
}
