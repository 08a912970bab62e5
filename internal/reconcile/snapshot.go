package reconcile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmccall/sports-arb/pkg/types"
	"github.com/goccy/go-json"
)

// WriteSnapshot serializes every record to path. The write goes through a
// temp file and rename so a crash mid-write cannot truncate the previous
// snapshot.
func (c *Cache) WriteSnapshot(path string) error {
	records := c.SnapshotRecords()

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}

	_, err = tmp.Write(data)
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write snapshot: %w", err)
	}

	err = tmp.Close()
	if err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close snapshot temp file: %w", err)
	}

	err = os.Rename(tmp.Name(), path)
	if err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename snapshot: %w", err)
	}

	SnapshotWritesTotal.Inc()
	return nil
}

// LoadSnapshot merges records from a snapshot file into the cache. Loaded
// values go through the same merge rule as live feed data, so a snapshot
// restore never blanks fields a feed has already repopulated, and the
// first post-restart delta cannot blank restored state either. A missing
// file is not an error.
func (c *Cache) LoadSnapshot(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read snapshot: %w", err)
	}

	var records []types.OutcomeRecord
	err = json.Unmarshal(data, &records)
	if err != nil {
		return 0, fmt.Errorf("decode snapshot: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, rec := range records {
		// Keep the persisted LastUpdated so staleness gates still hold
		// across a restart.
		c.mergeLocked(rec, false)
	}
	RecordsGauge.Set(float64(len(c.records)))

	return len(records), nil
}

// LoadSnapshotRecords reads a snapshot file without touching any cache.
// Used by the one-shot scan command.
func LoadSnapshotRecords(path string) ([]types.OutcomeRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var records []types.OutcomeRecord
	err = json.Unmarshal(data, &records)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	return records, nil
}
