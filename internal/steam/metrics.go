package steam

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SignalsTotal tracks emitted steam/drift signals by direction.
	SignalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sports_arb_steam_signals_total",
		Help: "Total steam signals emitted by direction",
	}, []string{"direction"})

	// RealertsSuppressedTotal tracks signals muted by the cooldown.
	RealertsSuppressedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sports_arb_steam_realerts_suppressed_total",
		Help: "Total signals suppressed by the per-outcome cooldown",
	})

	// ActiveWindowsGauge tracks price history windows currently held.
	ActiveWindowsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sports_arb_steam_windows",
		Help: "Number of price history windows currently tracked",
	})

	// WindowsPurgedTotal tracks windows dropped by the sweep.
	WindowsPurgedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sports_arb_steam_windows_purged_total",
		Help: "Total price history windows purged for inactive records",
	})
)
