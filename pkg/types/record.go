package types

import (
	"fmt"
	"time"
)

// MarketStatus is the lifecycle state of a market outcome.
type MarketStatus string

const (
	StatusOpen      MarketStatus = "OPEN"
	StatusSuspended MarketStatus = "SUSPENDED"
	StatusInPlay    MarketStatus = "IN_PLAY"
	StatusClosed    MarketStatus = "CLOSED"
)

// OutcomeRecord is the reconciled view of one market outcome (selection)
// across all feeds. Zero values mean "not reported by any source yet":
// decimal odds are always > 1.0, so a zero price is unambiguous.
//
// Records are created on first sighting from any feed and never deleted,
// only marked CLOSED.
type OutcomeRecord struct {
	ID          string             `json:"id"`
	Sport       string             `json:"sport"`
	League      string             `json:"league"`
	Event       string             `json:"event"`
	Outcome     string             `json:"outcome"`
	BackPrice   float64            `json:"back_price,omitempty"`
	LayPrice    float64            `json:"lay_price,omitempty"`
	SharpPrice  float64            `json:"sharp_price,omitempty"`
	SoftPrices  map[string]float64 `json:"soft_prices,omitempty"`
	Volume      float64            `json:"volume,omitempty"`
	Status      MarketStatus       `json:"status,omitempty"`
	StartTime   time.Time          `json:"start_time,omitzero"`
	LastUpdated time.Time          `json:"last_updated,omitzero"`
}

// RecordKey identifies an outcome within its competition. The league is
// part of the key so identically named participants in unrelated
// competitions never collide.
type RecordKey struct {
	League  string `json:"league"`
	Event   string `json:"event"`
	Outcome string `json:"outcome"`
}

// Key returns the cache key for this record.
func (r *OutcomeRecord) Key() RecordKey {
	return RecordKey{League: r.League, Event: r.Event, Outcome: r.Outcome}
}

func (k RecordKey) String() string {
	return fmt.Sprintf("%s::%s::%s", k.League, k.Event, k.Outcome)
}

// Started reports whether the scheduled start time has passed.
func (r *OutcomeRecord) Started(now time.Time) bool {
	return !r.StartTime.IsZero() && !now.Before(r.StartTime)
}

// Age returns the time since the record was last touched by any feed.
func (r *OutcomeRecord) Age(now time.Time) time.Duration {
	if r.LastUpdated.IsZero() {
		return time.Duration(1<<62 - 1)
	}
	return now.Sub(r.LastUpdated)
}
