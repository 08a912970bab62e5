package arb

import (
	"time"

	"github.com/dmccall/sports-arb/pkg/types"
)

// Direction labels which side of the book each leg sits on.
const (
	DirectionBackSharp    = "back-sharp-lay-exchange"
	DirectionBackExchange = "back-exchange-lay-sharp"
)

// Opportunity is one tracked arbitrage window on a single outcome. It is
// opened when the margin clears the floors, updated while the window
// persists, and closed when any entry condition lapses. A closed
// opportunity is never reopened; a later window gets a fresh identity.
type Opportunity struct {
	ID             string
	RecordID       string
	RecordKey      types.RecordKey
	Sport          string
	Direction      string
	BackPrice      float64
	LayPrice       float64
	Volume         float64
	Margin         float64
	PeakMargin     float64
	LayStakePer100 float64
	FirstSeen      time.Time
	LastSeen       time.Time
	ClosedAt       time.Time
}

// Duration is how long the window stayed open.
func (o *Opportunity) Duration() time.Duration {
	end := o.ClosedAt
	if end.IsZero() {
		end = o.LastSeen
	}
	return end.Sub(o.FirstSeen)
}

// margin is the guaranteed profit fraction of the back stake for backing
// at pBack and laying at pLay with exchange commission c:
//
//	((1-c)(pBack-1) - (pLay-1)) / pBack
func margin(pBack, pLay, commission float64) float64 {
	if pBack <= 1.0 {
		return 0
	}
	return ((1-commission)*(pBack-1) - (pLay-1)) / pBack
}

// layStake returns the lay stake equalizing profit across both results
// for the given back stake, net of exchange commission on the lay side.
func layStake(backStake, pBack, pLay, commission float64) float64 {
	denom := pLay - commission*(pLay-1)
	if denom <= 0 {
		return 0
	}
	return backStake * pBack / denom
}
