package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchesAllowedTotal tracks fetches that passed the rate gate.
	FetchesAllowedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sports_arb_ratelimit_allowed_total",
			Help: "Total fetches allowed through the per-category rate gate",
		},
		[]string{"category"},
	)

	// FetchesThrottledTotal tracks fetches rejected by the rate gate.
	FetchesThrottledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sports_arb_ratelimit_throttled_total",
			Help: "Total fetches rejected by the per-category rate gate",
		},
		[]string{"category"},
	)
)
