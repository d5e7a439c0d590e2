package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/studyhub/core/internal/pkg/response"
)

const (
	DefaultRateLimitMax    = 10
	DefaultRateLimitWindow = time.Minute
)

// RateLimit allows max requests per fixed window for each owner, or client
// IP when unauthenticated. Redis errors let the request through.
func RateLimit(rdb *redis.Client, max int64, window time.Duration) gin.HandlerFunc {
	if max <= 0 {
		max = DefaultRateLimitMax
	}
	if window <= 0 {
		window = DefaultRateLimitWindow
	}
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		subject := CurrentOwnerID(c)
		if subject == "" {
			subject = "ip:" + c.ClientIP()
		}

		ctx := c.Request.Context()
		bucket := time.Now().UnixNano() / int64(window)
		key := fmt.Sprintf("studyhub:rate_limit:%s:%d", subject, bucket)

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			c.Next()
			return
		}
		if count == 1 {
			rdb.PExpire(ctx, key, window+time.Second)
		}

		if count > max {
			c.Header("Retry-After", strconv.Itoa(int(window/time.Second)+1))
			response.TooManyRequests(c)
			return
		}
		c.Next()
	}
}
