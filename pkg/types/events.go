package types

import "time"

// EventKind classifies a signal event sent to the notification sink.
type EventKind string

const (
	EventOpportunityOpened EventKind = "opportunity_opened"
	EventOpportunityClosed EventKind = "opportunity_closed"
	EventSteam             EventKind = "steam"
)

// Event is the structured payload handed to the notification sink. The
// sink owns formatting and delivery; this core only fills in the data.
type Event struct {
	Kind EventKind `json:"kind"`
	At   time.Time `json:"at"`

	Opportunity *OpportunityEvent `json:"opportunity,omitempty"`
	Steam       *SteamEvent       `json:"steam,omitempty"`
}

// OpportunityEvent describes an arbitrage opportunity opening or closing.
type OpportunityEvent struct {
	OpportunityID string  `json:"opportunity_id"`
	RecordID      string  `json:"record_id"`
	Sport         string  `json:"sport"`
	Event         string  `json:"event"`
	Outcome       string  `json:"outcome"`
	Direction     string  `json:"direction"`
	SharpPrice    float64 `json:"sharp_price"`
	LayPrice      float64 `json:"lay_price"`
	BackPrice     float64 `json:"back_price,omitempty"`
	Margin        float64 `json:"margin"`
	PeakMargin    float64 `json:"peak_margin"`
	Volume        float64 `json:"volume"`
	// LayStakePer100 is the lay stake that equalizes profit both ways for
	// a 100-unit back stake. Only set on opened events.
	LayStakePer100  float64 `json:"lay_stake_per_100,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	StartTime       string  `json:"start_time,omitempty"`
}

// SteamEvent describes a directional sharp-price move.
type SteamEvent struct {
	RecordID        string  `json:"record_id"`
	Sport           string  `json:"sport"`
	Event           string  `json:"event"`
	Outcome         string  `json:"outcome"`
	Direction       string  `json:"direction"` // "steaming" or "drifting"
	OldPrice        float64 `json:"old_price"`
	NewPrice        float64 `json:"new_price"`
	ShiftPP         float64 `json:"shift_pp"` // implied-probability shift in percentage points
	WindowSeconds   float64 `json:"window_seconds"`
	MatchedInWindow float64 `json:"matched_in_window,omitempty"`
	StartTime       string  `json:"start_time,omitempty"`
}
