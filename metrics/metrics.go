// Package metrics defines the Prometheus instruments for the backend.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Estimate request outcomes.
const (
	OutcomeOK           = "ok"
	OutcomeFallback     = "fallback"
	OutcomePrecondition = "precondition"
	OutcomeConfig       = "config"
)

var (
	// EstimateRequests counts estimation requests by prompt kind and outcome.
	EstimateRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "caloric_estimate_requests_total",
		Help: "Nutrition estimation requests by prompt kind and outcome.",
	}, []string{"kind", "outcome"})

	// UpstreamDuration observes the latency of model API calls.
	UpstreamDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "caloric_upstream_request_seconds",
		Help:    "Latency of model API calls made by the estimator.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	})
)
