package arb

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OpportunitiesOpenedTotal tracks arbitrage windows opened.
	OpportunitiesOpenedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sports_arb_opportunities_opened_total",
		Help: "Total arbitrage opportunities opened",
	})

	// OpportunitiesClosedTotal tracks arbitrage windows closed.
	OpportunitiesClosedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sports_arb_opportunities_closed_total",
		Help: "Total arbitrage opportunities closed",
	})

	// OpenOpportunitiesGauge tracks windows currently open.
	OpenOpportunitiesGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sports_arb_opportunities_open",
		Help: "Number of arbitrage opportunities currently open",
	})

	// RecordsExcludedTotal tracks records that cleared the margin floor
	// but were excluded anyway.
	RecordsExcludedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sports_arb_scan_records_excluded_total",
		Help: "Total records excluded from arbitrage consideration",
	}, []string{"reason"})
)
