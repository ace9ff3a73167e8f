package modules

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/oksasatya/vidtube-accounts/internal/interface/middleware"
	"github.com/oksasatya/vidtube-accounts/pkg/metrics"
)

// DebugModule exposes Prometheus metrics at /metrics, rate-limited per IP.
type DebugModule struct {
	Gatherer prometheus.Gatherer
	Limits   Limits
}

func NewDebugModule(g prometheus.Gatherer, limits Limits) *DebugModule {
	return &DebugModule{Gatherer: g, Limits: limits}
}

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	rg.GET("/metrics", m.Limits.PerMinute(120, middleware.KeyByIP()), gin.WrapH(metrics.Handler(m.Gatherer)))
}
