package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"

	rediskey "trayledger/pkg/redis"
)

// luaRateLimit: sliding-window rate limit in a single atomic redis script.
// KEYS[1]=bucket key, ARGV[1]=now, ARGV[2]=window start, ARGV[3]=window secs,
// ARGV[4]=member, ARGV[5]=limit. Returns the count inside the window, or -1
// when the request should be rejected.
const luaRateLimit = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local windowStart = tonumber(ARGV[2])
local windowSec = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '0', windowStart)

local count = redis.call('ZCARD', key)

if count < tonumber(ARGV[5]) then
  redis.call('ZADD', key, now, member)
  redis.call('EXPIRE', key, windowSec)
  return count + 1
else
  return -1
end
`

// SellRateLimit throttles the sell endpoint per staff member, falling back to
// the client IP when no staff header is present. Redis failures fail open: a
// broken limiter must not stop sales.
func SellRateLimit(rdb *rd.Client, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var key string
		if staffID := c.GetHeader(HeaderStaffID); staffID != "" {
			key = rediskey.RateLimitStaffKey(staffID)
		} else {
			key = rediskey.RateLimitIPKey(c.ClientIP())
		}

		now := time.Now().Unix()
		windowSec := int64(window.Seconds())
		windowStart := now - windowSec
		member := time.Now().Format("20060102150405.000000000")

		res, err := rdb.Eval(c.Request.Context(), luaRateLimit, []string{key},
			now, windowStart, windowSec, member, limit).Int()
		if err != nil {
			c.Next()
			return
		}

		if res < 0 {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code": 429,
				"msg":  "too many requests, slow down",
			})
			return
		}
		c.Next()
	}
}
