package reconcile

import (
	"sync"
	"time"

	"github.com/dmccall/sports-arb/pkg/types"
)

// Cache is the reconciled view of every outcome seen so far. Feeds merge
// partial records into it; detectors read copies out of it. A merge never
// regresses a populated field back to empty, so feeds reporting disjoint
// field subsets converge instead of fighting.
//
// The critical section covers a single key's merge only. Readers get
// deep copies and never observe a half-applied merge.
type Cache struct {
	mu      sync.RWMutex
	records map[types.RecordKey]*types.OutcomeRecord
	now     func() time.Time
}

// NewCache creates an empty record cache.
func NewCache() *Cache {
	return &Cache{
		records: make(map[types.RecordKey]*types.OutcomeRecord),
		now:     time.Now,
	}
}

// Merge folds a partial record into the cache and returns the full merged
// record. Zero-valued fields on the partial are treated as "not reported"
// and leave the existing value alone; populated fields overwrite. A record
// is created on first sighting and never deleted, only marked CLOSED.
func (c *Cache) Merge(partial types.OutcomeRecord) types.OutcomeRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	merged := c.mergeLocked(partial, true)
	MergesTotal.Inc()
	RecordsGauge.Set(float64(len(c.records)))
	return merged
}

func (c *Cache) mergeLocked(partial types.OutcomeRecord, stamp bool) types.OutcomeRecord {
	key := partial.Key()
	existing, ok := c.records[key]
	if !ok {
		rec := copyRecord(&partial)
		if stamp {
			rec.LastUpdated = c.now()
		}
		c.records[key] = rec
		return *copyRecord(rec)
	}

	if partial.ID != "" && existing.ID == "" {
		existing.ID = partial.ID
	}
	if partial.Sport != "" {
		existing.Sport = partial.Sport
	}
	if partial.BackPrice > 0 {
		existing.BackPrice = partial.BackPrice
	}
	if partial.LayPrice > 0 {
		existing.LayPrice = partial.LayPrice
	}
	if partial.SharpPrice > 0 {
		existing.SharpPrice = partial.SharpPrice
	}
	if partial.Volume > 0 {
		existing.Volume = partial.Volume
	}
	if !partial.StartTime.IsZero() {
		existing.StartTime = partial.StartTime
	}
	// CLOSED is terminal.
	if partial.Status != "" && existing.Status != types.StatusClosed {
		existing.Status = partial.Status
	}
	if len(partial.SoftPrices) > 0 {
		if existing.SoftPrices == nil {
			existing.SoftPrices = make(map[string]float64, len(partial.SoftPrices))
		}
		for bookie, price := range partial.SoftPrices {
			if price > 0 {
				existing.SoftPrices[bookie] = price
			}
		}
	}

	if stamp {
		existing.LastUpdated = c.now()
	} else if partial.LastUpdated.After(existing.LastUpdated) {
		existing.LastUpdated = partial.LastUpdated
	}

	return *copyRecord(existing)
}

// Get returns a copy of the record at key, if present.
func (c *Cache) Get(key types.RecordKey) (types.OutcomeRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.records[key]
	if !ok {
		return types.OutcomeRecord{}, false
	}
	return *copyRecord(rec), true
}

// SnapshotRecords returns a deep copy of every record. Detectors iterate
// the copy without holding the cache lock.
func (c *Cache) SnapshotRecords() []types.OutcomeRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]types.OutcomeRecord, 0, len(c.records))
	for _, rec := range c.records {
		out = append(out, *copyRecord(rec))
	}
	return out
}

// Len returns the number of records in the cache.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// MarkStarted flips OPEN records whose start time has passed to IN_PLAY
// and returns copies of the records it changed.
func (c *Cache) MarkStarted(now time.Time) []types.OutcomeRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	var changed []types.OutcomeRecord
	for _, rec := range c.records {
		if rec.Status == types.StatusOpen && rec.Started(now) {
			rec.Status = types.StatusInPlay
			changed = append(changed, *copyRecord(rec))
		}
	}
	return changed
}

func copyRecord(r *types.OutcomeRecord) *types.OutcomeRecord {
	cp := *r
	if r.SoftPrices != nil {
		cp.SoftPrices = make(map[string]float64, len(r.SoftPrices))
		for k, v := range r.SoftPrices {
			cp.SoftPrices[k] = v
		}
	}
	return &cp
}
