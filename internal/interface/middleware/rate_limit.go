package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/oksasatya/vidtube-accounts/pkg/response"
)

// ipFromCtx extracts the client IP from Gin context, falling back to "unknown"
func ipFromCtx(c *gin.Context) string {
	if ip := c.GetString("real_ip"); ip != "" {
		return ip
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

func normalizePath(c *gin.Context) string {
	if fp := c.FullPath(); fp != "" {
		return fp
	}
	return c.Request.URL.Path
}

// KeyFunc builds a rate-limit key from the request.
type KeyFunc func(c *gin.Context) string

func KeyByIP() KeyFunc {
	return func(c *gin.Context) string {
		return "rl:ip:" + ipFromCtx(c)
	}
}

// KeyByIPAndPath limits each route separately per client.
func KeyByIPAndPath() KeyFunc {
	return func(c *gin.Context) string {
		return "rl:path:" + normalizePath(c) + ":ip:" + ipFromCtx(c)
	}
}

func KeyByUserID() KeyFunc {
	return func(c *gin.Context) string {
		uid := c.GetString(CtxUserIDKey)
		if uid == "" {
			return "rl:user:anon:ip:" + ipFromCtx(c)
		}
		return "rl:user:" + uid
	}
}

// atomic INCR, and PEXPIRE when the key is new
var incrExpireScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RateLimit allows max requests per window per key. With a Redis client the
// counter is shared across instances (fixed window, fails open on Redis
// errors); without one each process keeps its own token buckets.
// OPTIONS requests and requests accepted by allow are never limited.
func RateLimit(rdb *redis.Client, max int, window time.Duration, keyFn KeyFunc, allow AllowFunc) gin.HandlerFunc {
	if max <= 0 || window <= 0 || keyFn == nil {
		return func(c *gin.Context) { c.Next() }
	}
	if rdb == nil {
		return localRateLimit(max, window, keyFn, allow)
	}
	return func(c *gin.Context) {
		if skipLimit(c, allow) {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := keyFn(c)

		countI, err := incrExpireScript.Run(ctx, rdb, []string{key}, window.Milliseconds()).Result()
		if err != nil {
			c.Next()
			return
		}
		count := toInt(countI)

		ttl, _ := rdb.PTTL(ctx, key).Result()
		resetSec := 0
		if ttl > 0 {
			resetSec = int((ttl + time.Second - 1) / time.Second)
		}

		if !admit(c, max, max-count, resetSec) {
			return
		}
		c.Next()
	}
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// localLimiter keeps one token bucket per key and forgets idle keys.
type localLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	every     rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
}

func (l *localLimiter) get(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Sub(l.lastSweep) > l.idle {
		for k, b := range l.buckets {
			if now.Sub(b.seen) > l.idle {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.every, l.burst)}
		l.buckets[key] = b
	}
	b.seen = now
	return b.lim
}

func localRateLimit(max int, window time.Duration, keyFn KeyFunc, allow AllowFunc) gin.HandlerFunc {
	l := &localLimiter{
		buckets:   map[string]*bucket{},
		every:     rate.Every(window / time.Duration(max)),
		burst:     max,
		idle:      window,
		lastSweep: time.Now(),
	}
	return func(c *gin.Context) {
		if skipLimit(c, allow) {
			c.Next()
			return
		}
		now := time.Now()
		lim := l.get(keyFn(c), now)
		allowed := lim.AllowN(now, 1)
		remaining := int(lim.TokensAt(now))
		if !allowed {
			remaining = -1
		}
		resetSec := int((window/time.Duration(max) + time.Second - 1) / time.Second)
		if !admit(c, max, remaining, resetSec) {
			return
		}
		c.Next()
	}
}

func skipLimit(c *gin.Context, allow AllowFunc) bool {
	if strings.EqualFold(c.Request.Method, http.MethodOptions) {
		return true
	}
	return allow != nil && allow(c)
}

// admit writes the rate-limit headers and aborts with 429 when remaining < 0.
func admit(c *gin.Context, max, remaining, resetSec int) bool {
	shown := remaining
	if shown < 0 {
		shown = 0
	}
	c.Header("X-RateLimit-Limit", strconv.Itoa(max))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(shown))
	c.Header("X-RateLimit-Reset", strconv.Itoa(resetSec))
	if remaining >= 0 {
		return true
	}
	if resetSec > 0 {
		c.Header("Retry-After", strconv.Itoa(resetSec))
	}
	response.Error[any](c, http.StatusTooManyRequests, "rate limit exceeded", nil)
	c.Abort()
	return false
}

func toInt(v interface{}) int {
	switch x := v.(type) {
	case int64:
		return int(x)
	case int:
		return x
	case string:
		i, _ := strconv.Atoi(x)
		return i
	}
	return 0
}
