package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/vidtube-accounts/internal/interface/middleware"
)

// Limits builds rate limiters for route groups. A nil Redis client falls
// back to in-process limiting; Enabled=false turns limiting off.
type Limits struct {
	Redis   *redis.Client
	Enabled bool
}

func NewLimits(rdb *redis.Client, enabled bool) Limits {
	return Limits{Redis: rdb, Enabled: enabled}
}

func (l Limits) PerMinute(max int, key middleware.KeyFunc) gin.HandlerFunc {
	if !l.Enabled {
		max = 0
	}
	return middleware.RateLimit(l.Redis, max, time.Minute, key, nil)
}
