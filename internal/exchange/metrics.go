package exchange

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MarketsFetchedTotal tracks exchange markets successfully parsed.
	MarketsFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sports_arb_exchange_markets_fetched_total",
		Help: "Total exchange markets fetched and parsed",
	})

	// MarketsDroppedTotal tracks markets dropped while parsing a page.
	MarketsDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sports_arb_exchange_markets_dropped_total",
		Help: "Total exchange markets dropped during parsing",
	}, []string{"reason"})
)
