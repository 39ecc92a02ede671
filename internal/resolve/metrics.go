// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// resolutions counts key lookups.
	// Labels: scheme (key, easykey, citekey), outcome (found, not_found, ambiguous, malformed, error)
	resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cite_engine",
		Subsystem: "resolve",
		Name:      "lookups_total",
		Help:      "Total key lookups by scheme and outcome",
	}, []string{"scheme", "outcome"})
)
