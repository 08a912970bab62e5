package arb

import (
	"context"
	"sync"
	"time"

	"github.com/dmccall/sports-arb/pkg/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Snapshotter provides a copy of the reconciled records to scan.
type Snapshotter interface {
	SnapshotRecords() []types.OutcomeRecord
}

// Store persists the opportunity lifecycle.
type Store interface {
	InsertOpportunity(ctx context.Context, o Opportunity) error
	UpdateOpportunity(ctx context.Context, o Opportunity) error
	CloseOpportunity(ctx context.Context, o Opportunity) error
}

// Sink receives opened/closed events.
type Sink interface {
	Publish(ctx context.Context, ev types.Event) error
}

// Config holds scanner thresholds.
type Config struct {
	Commission   float64
	MinMargin    float64
	MaxMargin    float64
	MinVolume    float64
	MinSanePrice float64
	MaxRecordAge time.Duration
	ScanInterval time.Duration
	// Symmetric also scans the mirrored direction (back on the exchange
	// against the sharp price).
	Symmetric bool
}

// Scanner derives arbitrage opportunities from the reconciled records.
// It is read-only over upstream state: it never mutates the cache it
// scans, only its own lifecycle map.
type Scanner struct {
	cfg     Config
	records Snapshotter
	store   Store
	sink    Sink
	logger  *zap.Logger
	now     func() time.Time
	newID   func() string

	// mu guards open and the Opportunity values it points at; the scan
	// tick mutates both while the HTTP API reads through Open.
	mu   sync.Mutex
	open map[string]*Opportunity
}

// NewScanner creates an arbitrage scanner.
func NewScanner(cfg Config, records Snapshotter, store Store, sink Sink, logger *zap.Logger) *Scanner {
	return &Scanner{
		cfg:     cfg,
		records: records,
		store:   store,
		sink:    sink,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
		open:    make(map[string]*Opportunity),
	}
}

// Run ticks the scanner until the context is cancelled.
func (s *Scanner) Run(ctx context.Context) {
	interval := s.cfg.ScanInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick scans one snapshot: opens windows whose margin clears the floors,
// refreshes peaks on persisting ones, and closes those whose entry
// conditions lapsed this pass.
func (s *Scanner) Tick(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	seen := make(map[string]struct{})

	for _, rec := range s.records.SnapshotRecords() {
		s.evaluate(ctx, rec, DirectionBackSharp, rec.SharpPrice, rec.LayPrice, now, seen)
		if s.cfg.Symmetric {
			s.evaluate(ctx, rec, DirectionBackExchange, rec.BackPrice, rec.SharpPrice, now, seen)
		}
	}

	for key, opp := range s.open {
		if _, ok := seen[key]; ok {
			continue
		}
		s.close(ctx, key, opp, now)
	}

	OpenOpportunitiesGauge.Set(float64(len(s.open)))
}

func recordRef(rec types.OutcomeRecord) string {
	if rec.ID != "" {
		return rec.ID
	}
	return rec.Key().String()
}

func (s *Scanner) evaluate(ctx context.Context, rec types.OutcomeRecord, direction string, pBack, pLay float64, now time.Time, seen map[string]struct{}) {
	if rec.Status == types.StatusClosed {
		return
	}
	if pBack <= s.cfg.MinSanePrice || pLay <= s.cfg.MinSanePrice {
		return
	}
	if rec.Age(now) > s.cfg.MaxRecordAge {
		RecordsExcludedTotal.WithLabelValues("stale").Inc()
		return
	}

	m := margin(pBack, pLay, s.cfg.Commission)
	if m < s.cfg.MinMargin {
		return
	}
	// Margins past the cap mean one leg is stale, not free money.
	if m > s.cfg.MaxMargin {
		RecordsExcludedTotal.WithLabelValues("margin-cap").Inc()
		return
	}
	if rec.Volume < s.cfg.MinVolume {
		RecordsExcludedTotal.WithLabelValues("thin").Inc()
		return
	}

	key := recordRef(rec) + "|" + direction
	seen[key] = struct{}{}

	if opp, ok := s.open[key]; ok {
		opp.LastSeen = now
		opp.Margin = m
		opp.BackPrice = pBack
		opp.LayPrice = pLay
		opp.Volume = rec.Volume
		if m > opp.PeakMargin {
			opp.PeakMargin = m
		}
		err := s.store.UpdateOpportunity(ctx, *opp)
		if err != nil {
			s.logger.Warn("opportunity-update-failed", zap.String("id", opp.ID), zap.Error(err))
		}
		return
	}

	opp := &Opportunity{
		ID:             s.newID(),
		RecordID:       recordRef(rec),
		RecordKey:      rec.Key(),
		Sport:          rec.Sport,
		Direction:      direction,
		BackPrice:      pBack,
		LayPrice:       pLay,
		Volume:         rec.Volume,
		Margin:         m,
		PeakMargin:     m,
		LayStakePer100: layStake(100, pBack, pLay, s.cfg.Commission),
		FirstSeen:      now,
		LastSeen:       now,
	}
	s.open[key] = opp

	OpportunitiesOpenedTotal.Inc()
	s.logger.Info("opportunity-opened",
		zap.String("id", opp.ID),
		zap.String("event", rec.Event),
		zap.String("outcome", rec.Outcome),
		zap.String("direction", direction),
		zap.Float64("margin", m),
		zap.Float64("back-price", pBack),
		zap.Float64("lay-price", pLay))

	err := s.store.InsertOpportunity(ctx, *opp)
	if err != nil {
		s.logger.Warn("opportunity-insert-failed", zap.String("id", opp.ID), zap.Error(err))
	}
	s.publish(ctx, types.EventOpportunityOpened, opp, rec.StartTime)
}

func (s *Scanner) close(ctx context.Context, key string, opp *Opportunity, now time.Time) {
	delete(s.open, key)
	opp.ClosedAt = now

	OpportunitiesClosedTotal.Inc()
	s.logger.Info("opportunity-closed",
		zap.String("id", opp.ID),
		zap.Float64("peak-margin", opp.PeakMargin),
		zap.Duration("duration", opp.Duration()))

	err := s.store.CloseOpportunity(ctx, *opp)
	if err != nil {
		s.logger.Warn("opportunity-close-failed", zap.String("id", opp.ID), zap.Error(err))
	}
	s.publish(ctx, types.EventOpportunityClosed, opp, time.Time{})
}

func (s *Scanner) publish(ctx context.Context, kind types.EventKind, opp *Opportunity, start time.Time) {
	ev := types.Event{
		Kind: kind,
		At:   s.now(),
		Opportunity: &types.OpportunityEvent{
			OpportunityID: opp.ID,
			RecordID:      opp.RecordID,
			Sport:         opp.Sport,
			Event:         opp.RecordKey.Event,
			Outcome:       opp.RecordKey.Outcome,
			Direction:     opp.Direction,
			SharpPrice:    opp.BackPrice,
			LayPrice:      opp.LayPrice,
			Margin:        opp.Margin,
			PeakMargin:    opp.PeakMargin,
			Volume:        opp.Volume,
		},
	}
	if kind == types.EventOpportunityOpened {
		ev.Opportunity.LayStakePer100 = opp.LayStakePer100
		if !start.IsZero() {
			ev.Opportunity.StartTime = start.UTC().Format(time.RFC3339)
		}
	} else {
		ev.Opportunity.DurationSeconds = opp.Duration().Seconds()
	}

	err := s.sink.Publish(ctx, ev)
	if err != nil {
		s.logger.Warn("event-publish-failed", zap.String("kind", string(kind)), zap.Error(err))
	}
}

// Open returns copies of the currently open opportunities, for the HTTP
// API.
func (s *Scanner) Open() []Opportunity {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Opportunity, 0, len(s.open))
	for _, opp := range s.open {
		out = append(out, *opp)
	}
	return out
}

// FindOpportunities evaluates a static record set once, without lifecycle
// tracking. Used by the one-shot scan command.
func FindOpportunities(records []types.OutcomeRecord, cfg Config, now time.Time) []Opportunity {
	var out []Opportunity
	for _, rec := range records {
		if rec.Status == types.StatusClosed {
			continue
		}
		if rec.SharpPrice <= cfg.MinSanePrice || rec.LayPrice <= cfg.MinSanePrice {
			continue
		}
		if rec.Age(now) > cfg.MaxRecordAge {
			continue
		}

		m := margin(rec.SharpPrice, rec.LayPrice, cfg.Commission)
		if m < cfg.MinMargin || m > cfg.MaxMargin || rec.Volume < cfg.MinVolume {
			continue
		}

		out = append(out, Opportunity{
			ID:             uuid.NewString(),
			RecordID:       recordRef(rec),
			RecordKey:      rec.Key(),
			Sport:          rec.Sport,
			Direction:      DirectionBackSharp,
			BackPrice:      rec.SharpPrice,
			LayPrice:       rec.LayPrice,
			Volume:         rec.Volume,
			Margin:         m,
			PeakMargin:     m,
			LayStakePer100: layStake(100, rec.SharpPrice, rec.LayPrice, cfg.Commission),
			FirstSeen:      now,
			LastSeen:       now,
		})
	}
	return out
}
