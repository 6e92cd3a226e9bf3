// Package metrics collects Prometheus metrics for the gRPC API and serves
// them, together with a health probe, on a separate HTTP port.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector records per-method request counts and latencies.
type Collector struct {
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	rateLimited *prometheus.CounterVec
	signIns     *prometheus.CounterVec
}

// NewCollector creates the metrics and registers them on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linkedcommunity_grpc_requests_total",
			Help: "gRPC requests by method and status code.",
		}, []string{"method", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "linkedcommunity_grpc_request_duration_seconds",
			Help:    "gRPC request latency by method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linkedcommunity_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}, []string{"method"}),
		signIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linkedcommunity_sign_ins_total",
			Help: "Sign-in attempts by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(c.requests, c.latency, c.rateLimited, c.signIns)
	return c
}

func (c *Collector) RecordRequest(method, code string, d time.Duration) {
	c.requests.WithLabelValues(method, code).Inc()
	c.latency.WithLabelValues(method).Observe(d.Seconds())
}

func (c *Collector) RecordRateLimited(method string) {
	c.rateLimited.WithLabelValues(method).Inc()
}

// RecordSignIn counts a sign-in attempt; outcome is "success" or "failure".
func (c *Collector) RecordSignIn(outcome string) {
	c.signIns.WithLabelValues(outcome).Inc()
}
