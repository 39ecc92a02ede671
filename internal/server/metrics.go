// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// requestDuration measures HTTP request latency.
	// Labels: method, route, status
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cite_engine",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// apiResponses counts API answers by endpoint and status class.
	// Labels: endpoint, class (2xx, 4xx, 5xx)
	apiResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cite_engine",
		Subsystem: "api",
		Name:      "responses_total",
		Help:      "API responses by endpoint and status class",
	}, []string{"endpoint", "class"})
)
