package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// AllowFunc returns true when a request bypasses the limiter.
type AllowFunc func(*gin.Context) bool

// AllowPrivateIP bypasses loopback and private-range clients.
func AllowPrivateIP() AllowFunc {
	return func(c *gin.Context) bool {
		parsed := net.ParseIP(ipFromCtx(c))
		return parsed != nil && (parsed.IsLoopback() || parsed.IsPrivate())
	}
}

// AllowPaths bypasses requests whose route starts with one of prefixes.
func AllowPaths(prefixes ...string) AllowFunc {
	return func(c *gin.Context) bool {
		p := normalizePath(c)
		for _, prefix := range prefixes {
			if strings.HasPrefix(p, prefix) {
				return true
			}
		}
		return false
	}
}
