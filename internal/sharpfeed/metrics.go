package sharpfeed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionHandshakesTotal tracks completed two-step handshakes.
	SessionHandshakesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sports_arb_sharp_session_handshakes_total",
		Help: "Total completed sharp feed session handshakes",
	})

	// SessionHandshakeRestartsTotal tracks handshakes restarted from step
	// one because the register window elapsed or the exchange failed.
	SessionHandshakeRestartsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sports_arb_sharp_session_handshake_restarts_total",
		Help: "Total sharp feed handshakes abandoned and restarted from login",
	})

	// SessionInvalidationsTotal tracks sessions flagged invalid by error codes.
	SessionInvalidationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sports_arb_sharp_session_invalidations_total",
		Help: "Total sharp feed sessions invalidated by downstream error codes",
	})

	// ItemsDroppedTotal tracks feed items dropped before reconciliation.
	ItemsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sports_arb_sharp_items_dropped_total",
			Help: "Total sharp feed items dropped before reconciliation",
		},
		[]string{"category", "reason"},
	)
)
