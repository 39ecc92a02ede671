// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stylepool

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// enginesCreated counts style engines built.
	// Labels: style (canonical style URL)
	enginesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cite_engine",
		Subsystem: "stylepool",
		Name:      "engines_created_total",
		Help:      "Total style engines created",
	}, []string{"style"})

	// leaseWait measures time spent waiting for an engine lease.
	// Labels: style
	leaseWait = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cite_engine",
		Subsystem: "stylepool",
		Name:      "lease_wait_seconds",
		Help:      "Time spent waiting for exclusive access to a style engine",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"style"})
)
