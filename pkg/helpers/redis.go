package helpers

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient returns a client with short timeouts; Redis only backs rate
// limiting here, so a slow server must not stall requests.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
		PoolTimeout:  time.Second,
	})
}
