package softbook

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QuotesFetchedTotal tracks soft-book quotes successfully parsed.
	QuotesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sports_arb_softbook_quotes_fetched_total",
		Help: "Total soft-book quotes fetched and parsed",
	})

	// QuotesDroppedTotal tracks quotes dropped while parsing a response.
	QuotesDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sports_arb_softbook_quotes_dropped_total",
		Help: "Total soft-book quotes dropped during parsing",
	}, []string{"reason"})
)
