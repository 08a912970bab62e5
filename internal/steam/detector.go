package steam

import (
	"context"
	"math"
	"time"

	"github.com/dmccall/sports-arb/pkg/types"
	"go.uber.org/zap"
)

const (
	DirectionSteaming = "steaming"
	DirectionDrifting = "drifting"
)

// Signal is one detected directional move on an outcome's sharp price.
type Signal struct {
	RecordID  string
	Key       types.RecordKey
	Sport     string
	Direction string
	OldPrice  float64
	NewPrice  float64
	// ShiftPP is the implied-probability move in percentage points:
	// (1/new - 1/old) * 100.
	ShiftPP float64
	Window  time.Duration
	At      time.Time
}

// Snapshotter provides a copy of the reconciled records to watch.
type Snapshotter interface {
	SnapshotRecords() []types.OutcomeRecord
}

// Sink receives steam events.
type Sink interface {
	Publish(ctx context.Context, ev types.Event) error
}

// Store logs emitted signals. Optional.
type Store interface {
	InsertSteamSignal(ctx context.Context, sig Signal) error
}

// Config holds detector thresholds.
type Config struct {
	Window             time.Duration
	ThresholdPP        float64
	Cooldown           time.Duration
	RealertIncrementPP float64
	MinPrice           float64
	MaxPrice           float64
	TickInterval       time.Duration
	SweepInterval      time.Duration
}

type alertState struct {
	at      time.Time
	shiftPP float64
}

// Detector watches sharp prices for moves in implied probability large
// enough to suggest informed money. Signals are ephemeral: they go to the
// sink and the signal log, never back into the records.
type Detector struct {
	cfg     Config
	records Snapshotter
	sink    Sink
	store   Store
	logger  *zap.Logger
	now     func() time.Time

	windows map[types.RecordKey]*window
	alerts  map[types.RecordKey]alertState
}

// NewDetector creates a steam detector.
func NewDetector(cfg Config, records Snapshotter, store Store, sink Sink, logger *zap.Logger) *Detector {
	return &Detector{
		cfg:     cfg,
		records: records,
		sink:    sink,
		store:   store,
		logger:  logger,
		now:     time.Now,
		windows: make(map[types.RecordKey]*window),
		alerts:  make(map[types.RecordKey]alertState),
	}
}

// Run ticks and sweeps the detector until the context is cancelled. Both
// timers run in this one goroutine, so no lock guards the windows.
func (d *Detector) Run(ctx context.Context) {
	tickInterval := d.cfg.TickInterval
	if tickInterval <= 0 {
		tickInterval = 5 * time.Second
	}
	sweepInterval := d.cfg.SweepInterval
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}

	ticker := time.NewTicker(tickInterval)
	sweeper := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	defer sweeper.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Tick(ctx)
		case <-sweeper.C:
			d.Sweep()
		}
	}
}

// Tick samples every in-band sharp price and emits a signal when the
// implied probability has shifted past the threshold within the window.
func (d *Detector) Tick(ctx context.Context) {
	now := d.now()
	cutoff := now.Add(-d.cfg.Window)

	for _, rec := range d.records.SnapshotRecords() {
		if !d.watchable(rec, now) {
			continue
		}

		key := rec.Key()
		w, ok := d.windows[key]
		if !ok {
			w = &window{}
			d.windows[key] = w
		}

		w.add(now, rec.SharpPrice)
		w.trim(cutoff)

		old, ok := w.oldest()
		if !ok || !old.at.Before(now) {
			continue
		}

		shift := (1/rec.SharpPrice - 1/old.price) * 100
		if math.Abs(shift) < d.cfg.ThresholdPP {
			continue
		}

		if !d.shouldAlert(key, shift, now) {
			RealertsSuppressedTotal.Inc()
			continue
		}

		d.emit(ctx, rec, Signal{
			RecordID:  rec.ID,
			Key:       key,
			Sport:     rec.Sport,
			Direction: direction(shift),
			OldPrice:  old.price,
			NewPrice:  rec.SharpPrice,
			ShiftPP:   shift,
			Window:    now.Sub(old.at),
			At:        now,
		})
		d.alerts[key] = alertState{at: now, shiftPP: shift}
	}

	ActiveWindowsGauge.Set(float64(len(d.windows)))
}

// shouldAlert applies the cooldown: within it, only a move that extended
// by the re-alert increment fires again.
func (d *Detector) shouldAlert(key types.RecordKey, shift float64, now time.Time) bool {
	prev, ok := d.alerts[key]
	if !ok || now.Sub(prev.at) >= d.cfg.Cooldown {
		return true
	}
	return math.Abs(shift) >= math.Abs(prev.shiftPP)+d.cfg.RealertIncrementPP
}

func (d *Detector) watchable(rec types.OutcomeRecord, now time.Time) bool {
	if rec.Status == types.StatusClosed || rec.Status == types.StatusInPlay {
		return false
	}
	if rec.Started(now) {
		return false
	}
	// Extreme prices flap on tiny stake moves; ignore them.
	return rec.SharpPrice >= d.cfg.MinPrice && rec.SharpPrice <= d.cfg.MaxPrice
}

func (d *Detector) emit(ctx context.Context, rec types.OutcomeRecord, sig Signal) {
	SignalsTotal.WithLabelValues(sig.Direction).Inc()
	d.logger.Info("steam-signal",
		zap.String("event", rec.Event),
		zap.String("outcome", rec.Outcome),
		zap.String("direction", sig.Direction),
		zap.Float64("shift-pp", sig.ShiftPP),
		zap.Float64("old-price", sig.OldPrice),
		zap.Float64("new-price", sig.NewPrice))

	if d.store != nil {
		err := d.store.InsertSteamSignal(ctx, sig)
		if err != nil {
			d.logger.Warn("signal-insert-failed", zap.Error(err))
		}
	}

	ev := types.Event{
		Kind: types.EventSteam,
		At:   sig.At,
		Steam: &types.SteamEvent{
			RecordID:        sig.RecordID,
			Sport:           sig.Sport,
			Event:           rec.Event,
			Outcome:         rec.Outcome,
			Direction:       sig.Direction,
			OldPrice:        sig.OldPrice,
			NewPrice:        sig.NewPrice,
			ShiftPP:         sig.ShiftPP,
			WindowSeconds:   sig.Window.Seconds(),
			MatchedInWindow: rec.Volume,
		},
	}
	if !rec.StartTime.IsZero() {
		ev.Steam.StartTime = rec.StartTime.UTC().Format(time.RFC3339)
	}

	err := d.sink.Publish(ctx, ev)
	if err != nil {
		d.logger.Warn("event-publish-failed", zap.String("kind", string(types.EventSteam)), zap.Error(err))
	}
}

// Sweep purges windows for records that started, closed, or disappeared.
func (d *Detector) Sweep() {
	now := d.now()

	live := make(map[types.RecordKey]struct{})
	for _, rec := range d.records.SnapshotRecords() {
		if rec.Status == types.StatusClosed || rec.Status == types.StatusInPlay || rec.Started(now) {
			continue
		}
		live[rec.Key()] = struct{}{}
	}

	for key := range d.windows {
		if _, ok := live[key]; !ok {
			delete(d.windows, key)
			delete(d.alerts, key)
			WindowsPurgedTotal.Inc()
		}
	}
	ActiveWindowsGauge.Set(float64(len(d.windows)))
}

func direction(shift float64) string {
	if shift > 0 {
		return DirectionSteaming
	}
	return DirectionDrifting
}
