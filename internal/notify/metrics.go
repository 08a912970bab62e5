package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PublishesTotal tracks events handed to the sink by kind and result.
var PublishesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sports_arb_notify_publishes_total",
	Help: "Total signal events published by kind and result",
}, []string{"kind", "result"})
