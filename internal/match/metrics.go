package match

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MatchesResolvedTotal tracks raw names resolved to a canonical outcome.
	MatchesResolvedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sports_arb_match_resolved_total",
		Help: "Total raw names resolved to exactly one canonical outcome",
	})

	// MatchesUnresolvedTotal tracks raw names with no candidate match.
	MatchesUnresolvedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sports_arb_match_unresolved_total",
		Help: "Total raw names dropped because no candidate matched",
	})

	// MatchesAmbiguousTotal tracks raw names dropped for matching more
	// than one candidate.
	MatchesAmbiguousTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sports_arb_match_ambiguous_total",
		Help: "Total raw names dropped because multiple candidates matched",
	})
)
