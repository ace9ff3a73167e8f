// Package metrics exposes Prometheus counters for account flows.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder is what the application layer depends on.
type Recorder interface {
	RecordAuthEvent(flow, outcome string)
	RecordTokenRotation(reason string)
	RecordUpload(kind string, d time.Duration, err error)
}

// Collector is the Prometheus backed Recorder.
type Collector struct {
	authEvents     *prometheus.CounterVec
	tokenRotations *prometheus.CounterVec
	uploadLatency  *prometheus.HistogramVec
	uploadFailures *prometheus.CounterVec
}

// NewCollector registers every metric on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vidtube_auth_events_total",
			Help: "Account flow results by flow and outcome.",
		}, []string{"flow", "outcome"}),
		tokenRotations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vidtube_token_rotations_total",
			Help: "Refresh token rotations by reason.",
		}, []string{"reason"}),
		uploadLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vidtube_upload_duration_seconds",
			Help:    "Image normalization and blob upload latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		uploadFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vidtube_upload_failures_total",
			Help: "Failed image uploads by kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(c.authEvents, c.tokenRotations, c.uploadLatency, c.uploadFailures)
	return c
}

func (c *Collector) RecordAuthEvent(flow, outcome string) {
	c.authEvents.WithLabelValues(flow, outcome).Inc()
}

func (c *Collector) RecordTokenRotation(reason string) {
	c.tokenRotations.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordUpload(kind string, d time.Duration, err error) {
	c.uploadLatency.WithLabelValues(kind).Observe(d.Seconds())
	if err != nil {
		c.uploadFailures.WithLabelValues(kind).Inc()
	}
}

// Handler serves the exposition format for the given gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordAuthEvent(string, string)            {}
func (Nop) RecordTokenRotation(string)                {}
func (Nop) RecordUpload(string, time.Duration, error) {}
