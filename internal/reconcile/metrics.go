package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordsGauge tracks the number of reconciled records in the cache.
	RecordsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sports_arb_reconcile_records",
		Help: "Number of outcome records currently held in the cache",
	})

	// MergesTotal tracks partial-record merges applied to the cache.
	MergesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sports_arb_reconcile_merges_total",
		Help: "Total partial-record merges applied to the cache",
	})

	// SnapshotWritesTotal tracks snapshot files written to disk.
	SnapshotWritesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sports_arb_reconcile_snapshot_writes_total",
		Help: "Total reconciled snapshots persisted to disk",
	})

	// FeedTicksTotal tracks fetch cycles per category and result.
	FeedTicksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sports_arb_reconcile_feed_ticks_total",
		Help: "Total feed fetch cycles by category and result",
	}, []string{"category", "result"})

	// DegradedGauge is 1 while a category has exceeded its consecutive
	// failure budget.
	DegradedGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sports_arb_reconcile_feed_degraded",
		Help: "Whether a feed category is currently degraded (1) or healthy (0)",
	}, []string{"category"})

	// SharpMatchedTotal tracks sharp prices matched into records.
	SharpMatchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sports_arb_reconcile_sharp_matched_total",
		Help: "Total sharp feed prices matched into outcome records",
	})

	// UnmatchedItemsTotal tracks feed entries dropped because no record
	// could be resolved for them.
	UnmatchedItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sports_arb_reconcile_unmatched_items_total",
		Help: "Total feed entries dropped because no outcome record matched",
	}, []string{"category"})

	// MarketsFilteredTotal tracks exchange markets excluded before merging.
	MarketsFilteredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sports_arb_reconcile_markets_filtered_total",
		Help: "Total exchange markets excluded from reconciliation",
	}, []string{"reason"})

	// InPlayTransitionsTotal tracks records flipped OPEN -> IN_PLAY.
	InPlayTransitionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sports_arb_reconcile_inplay_transitions_total",
		Help: "Total records transitioned to IN_PLAY after their start time",
	})
)
