package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmccall/sports-arb/internal/exchange"
	"github.com/dmccall/sports-arb/internal/match"
	"github.com/dmccall/sports-arb/internal/sharpfeed"
	"github.com/dmccall/sports-arb/internal/softbook"
	"github.com/dmccall/sports-arb/pkg/types"
	"go.uber.org/zap"
)

// SharpFeed fetches odds pages from the sharp book.
type SharpFeed interface {
	GetFeeds(ctx context.Context, s sharpfeed.Session, sportID int, cat types.FeedCategory, cursor int64) (sharpfeed.FeedPage, error)
}

// Sessions owns the sharp feed session lifecycle.
type Sessions interface {
	EnsureSession(ctx context.Context) error
	Current() (sharpfeed.Session, sharpfeed.SessionState)
	ReportError(code int)
	Touch()
}

// ExchangeFeed lists exchange market books.
type ExchangeFeed interface {
	ListMarkets(ctx context.Context) ([]exchange.Market, error)
}

// SoftbookFeed fetches aggregator quotes for a sport.
type SoftbookFeed interface {
	FetchQuotes(ctx context.Context, sportKey string) ([]softbook.Quote, error)
}

// Gate is the per-category fetch rate limiter.
type Gate interface {
	Allow(cat types.FeedCategory) bool
	Record(cat types.FeedCategory)
}

// Store persists reconciled records. Failures are logged and the write is
// retried at the next natural tick.
type Store interface {
	UpsertRecord(ctx context.Context, rec types.OutcomeRecord) error
}

// Config holds reconciliation engine configuration.
type Config struct {
	Intervals             map[types.FeedCategory]time.Duration
	SharpSportID          int
	SoftbookSportKeys     []string
	StaleDropWindow       time.Duration
	ExchangeMinVolumeSoon float64
	DegradedAfterFailures int
	SnapshotPath          string
	SnapshotInterval      time.Duration
}

// Engine polls every feed category on its own clock and folds the results
// into the record cache. No category's loop ever blocks another; the only
// shared state is the cache, which locks per merge.
type Engine struct {
	cfg      Config
	cache    *Cache
	gate     Gate
	sessions Sessions
	sharp    SharpFeed
	exchange ExchangeFeed
	softbook SoftbookFeed
	matcher  match.Matcher
	store    Store
	logger   *zap.Logger
	now      func() time.Time

	mu         sync.Mutex
	cursors    map[types.FeedCategory]int64
	sharpItems map[types.FeedCategory]map[string]sharpfeed.Item
	failures   map[types.FeedCategory]int
	degraded   map[types.FeedCategory]bool
}

// Deps bundles the engine's collaborators.
type Deps struct {
	Cache    *Cache
	Gate     Gate
	Sessions Sessions
	Sharp    SharpFeed
	Exchange ExchangeFeed
	Softbook SoftbookFeed
	Matcher  match.Matcher
	Store    Store
	Logger   *zap.Logger
}

// NewEngine creates a reconciliation engine.
func NewEngine(cfg Config, deps Deps) *Engine {
	return &Engine{
		cfg:        cfg,
		cache:      deps.Cache,
		gate:       deps.Gate,
		sessions:   deps.Sessions,
		sharp:      deps.Sharp,
		exchange:   deps.Exchange,
		softbook:   deps.Softbook,
		matcher:    deps.Matcher,
		store:      deps.Store,
		logger:     deps.Logger,
		now:        time.Now,
		cursors:    make(map[types.FeedCategory]int64),
		sharpItems: make(map[types.FeedCategory]map[string]sharpfeed.Item),
		failures:   make(map[types.FeedCategory]int),
		degraded:   make(map[types.FeedCategory]bool),
	}
}

// Run starts one goroutine per feed category plus the housekeeping loop
// and blocks until the context is cancelled.
func (e *Engine) Run(ctx context.Context) {
	var wg sync.WaitGroup

	for _, cat := range types.AllCategories() {
		wg.Add(1)
		go func(cat types.FeedCategory) {
			defer wg.Done()
			e.runCategory(ctx, cat)
		}(cat)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		e.runHousekeeping(ctx)
	}()

	wg.Wait()
}

func (e *Engine) interval(cat types.FeedCategory) time.Duration {
	if d, ok := e.cfg.Intervals[cat]; ok && d > 0 {
		return d
	}
	return cat.DefaultInterval()
}

func (e *Engine) runCategory(ctx context.Context, cat types.FeedCategory) {
	ticker := time.NewTicker(e.interval(cat))
	defer ticker.Stop()

	e.logger.Info("feed-loop-started",
		zap.String("category", string(cat)),
		zap.Duration("interval", e.interval(cat)))

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("feed-loop-stopped", zap.String("category", string(cat)))
			return
		case <-ticker.C:
			err := e.tick(ctx, cat)
			e.recordTickResult(cat, err)
		}
	}
}

func (e *Engine) tick(ctx context.Context, cat types.FeedCategory) error {
	switch cat {
	case types.CategoryExchange:
		return e.tickExchange(ctx)
	case types.CategorySoftbook:
		return e.tickSoftbook(ctx)
	default:
		return e.tickSharp(ctx, cat)
	}
}

// recordTickResult keeps the per-category consecutive failure count and
// flips the degraded flag across the configured budget.
func (e *Engine) recordTickResult(cat types.FeedCategory, err error) {
	if err == nil {
		FeedTicksTotal.WithLabelValues(string(cat), "ok").Inc()

		e.mu.Lock()
		e.failures[cat] = 0
		wasDegraded := e.degraded[cat]
		e.degraded[cat] = false
		e.mu.Unlock()

		if wasDegraded {
			DegradedGauge.WithLabelValues(string(cat)).Set(0)
			e.logger.Info("feed-recovered", zap.String("category", string(cat)))
		}
		return
	}

	FeedTicksTotal.WithLabelValues(string(cat), "error").Inc()
	e.logger.Warn("feed-tick-failed",
		zap.String("category", string(cat)),
		zap.Error(err))

	e.mu.Lock()
	e.failures[cat]++
	n := e.failures[cat]
	newlyDegraded := n >= e.cfg.DegradedAfterFailures && !e.degraded[cat]
	if newlyDegraded {
		e.degraded[cat] = true
	}
	e.mu.Unlock()

	if newlyDegraded {
		DegradedGauge.WithLabelValues(string(cat)).Set(1)
		e.logger.Error("feed-degraded",
			zap.String("category", string(cat)),
			zap.Int("consecutive-failures", n))
	}
}

// Degraded returns a copy of the per-category degraded flags.
func (e *Engine) Degraded() map[types.FeedCategory]bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[types.FeedCategory]bool, len(e.degraded))
	for cat, d := range e.degraded {
		out[cat] = d
	}
	return out
}

func (e *Engine) tickSharp(ctx context.Context, cat types.FeedCategory) error {
	if !e.gate.Allow(cat) {
		return nil
	}

	err := e.sessions.EnsureSession(ctx)
	if err != nil {
		return fmt.Errorf("ensure session: %w", err)
	}
	s, _ := e.sessions.Current()

	e.gate.Record(cat)
	cursor := e.cursor(cat)
	page, err := e.sharp.GetFeeds(ctx, s, e.cfg.SharpSportID, cat, cursor)
	if err != nil {
		var fe *sharpfeed.FeedError
		if errors.As(err, &fe) && errors.Is(err, sharpfeed.ErrSessionInvalid) {
			// Session died mid-flight: re-authenticate and retry once.
			e.sessions.ReportError(fe.Code)
			err = e.sessions.EnsureSession(ctx)
			if err != nil {
				return fmt.Errorf("re-ensure session: %w", err)
			}
			s, _ = e.sessions.Current()
			page, err = e.sharp.GetFeeds(ctx, s, e.cfg.SharpSportID, cat, cursor)
		}
		if err != nil {
			return fmt.Errorf("get feeds %s: %w", cat, err)
		}
	}

	e.sessions.Touch()
	e.setCursor(cat, page.Cursor)
	e.applySharpItems(cat, page.Items)
	e.matchSharpPrices(ctx)
	return nil
}

func (e *Engine) cursor(cat types.FeedCategory) int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cursors[cat]
}

func (e *Engine) setCursor(cat types.FeedCategory, cursor int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cursor != 0 {
		e.cursors[cat] = cursor
	}
}

// applySharpItems folds one delta page into the per-category item cache.
// Removals evict; stale entries are dropped; an incoming entry without
// odds never displaces a cached entry that has them.
func (e *Engine) applySharpItems(cat types.FeedCategory, items []sharpfeed.Item) {
	now := e.now()

	e.mu.Lock()
	defer e.mu.Unlock()

	entries, ok := e.sharpItems[cat]
	if !ok {
		entries = make(map[string]sharpfeed.Item)
		e.sharpItems[cat] = entries
	}

	for _, item := range items {
		key := item.EntryKey()

		if item.Removed {
			delete(entries, key)
			sharpfeed.ItemsDroppedTotal.WithLabelValues(string(cat), "removed").Inc()
			continue
		}

		if !item.UpdatedAt.IsZero() && now.Sub(item.UpdatedAt) > e.cfg.StaleDropWindow {
			sharpfeed.ItemsDroppedTotal.WithLabelValues(string(cat), "stale").Inc()
			continue
		}

		if prev, ok := entries[key]; ok && prev.HasOdds() && !item.HasOdds() {
			continue
		}
		entries[key] = item
	}
}

// matchSharpPrices runs the match-all pass: every cached sharp item from
// every category is matched against the active records, applying
// categories in ascending priority so the most time-sensitive window's
// price wins a same-tick tie.
func (e *Engine) matchSharpPrices(ctx context.Context) {
	active := e.activeRecords()
	if len(active) == 0 {
		return
	}

	e.mu.Lock()
	byCat := make(map[types.FeedCategory][]sharpfeed.Item, len(types.SharpCategories))
	for _, cat := range types.SharpCategories {
		for _, item := range e.sharpItems[cat] {
			byCat[cat] = append(byCat[cat], item)
		}
	}
	e.mu.Unlock()

	for _, cat := range types.SharpCategories {
		for _, item := range byCat[cat] {
			if !e.matchSharpItem(ctx, item, active) {
				UnmatchedItemsTotal.WithLabelValues(string(cat)).Inc()
			}
		}
	}
}

func (e *Engine) matchSharpItem(ctx context.Context, item sharpfeed.Item, active []types.OutcomeRecord) bool {
	matched := false
	for _, rec := range active {
		if !e.matcher.TeamInEvent(item.HomeTeam, rec.Event) ||
			!e.matcher.TeamInEvent(item.AwayTeam, rec.Event) {
			continue
		}

		side := e.recordSide(rec, item)
		if side == "" {
			continue
		}

		price := sharpfeed.SharpPrice(item.Odds, side)
		if price <= 1.0 {
			continue
		}

		merged := e.cache.Merge(types.OutcomeRecord{
			League:     rec.League,
			Event:      rec.Event,
			Outcome:    rec.Outcome,
			SharpPrice: price,
		})
		SharpMatchedTotal.Inc()
		e.upsert(ctx, merged)
		matched = true
	}
	return matched
}

// recordSide maps a record's outcome onto the item's home/away/draw side.
func (e *Engine) recordSide(rec types.OutcomeRecord, item sharpfeed.Item) string {
	switch {
	case isDraw(rec.Outcome):
		return "draw"
	case e.matcher.SameTeam(rec.Outcome, item.HomeTeam):
		return "home"
	case e.matcher.SameTeam(rec.Outcome, item.AwayTeam):
		return "away"
	default:
		return ""
	}
}

func (e *Engine) tickExchange(ctx context.Context) error {
	if !e.gate.Allow(types.CategoryExchange) {
		return nil
	}
	e.gate.Record(types.CategoryExchange)

	markets, err := e.exchange.ListMarkets(ctx)
	if err != nil {
		return fmt.Errorf("list markets: %w", err)
	}

	now := e.now()
	best := make(map[types.RecordKey]types.OutcomeRecord)

	for _, m := range markets {
		if isYouthLeague(m.League) {
			MarketsFilteredTotal.WithLabelValues("youth-league").Inc()
			continue
		}

		// Thin markets about to start are noise, not opportunities.
		if m.StartTime.After(now) && m.StartTime.Sub(now) <= time.Hour &&
			totalMatched(m) < e.cfg.ExchangeMinVolumeSoon {
			MarketsFilteredTotal.WithLabelValues("thin-market").Inc()
			continue
		}

		for _, r := range m.Runners {
			rec := types.OutcomeRecord{
				ID:        m.ID + ":" + match.Normalize(r.Name),
				Sport:     m.Sport,
				League:    m.League,
				Event:     m.Event,
				Outcome:   r.Name,
				BackPrice: r.Back,
				LayPrice:  r.Lay,
				Volume:    r.Matched,
				Status:    m.Status,
				StartTime: m.StartTime,
			}

			// The same outcome can appear on several markets; keep the
			// most liquid one.
			key := rec.Key()
			prev, seen := best[key]
			if !seen || rec.Volume > prev.Volume {
				best[key] = rec
			}
		}
	}

	for _, rec := range best {
		merged := e.cache.Merge(rec)
		e.upsert(ctx, merged)
	}
	return nil
}

func (e *Engine) tickSoftbook(ctx context.Context) error {
	active := e.activeRecords()
	if len(active) == 0 {
		// Nothing to attach soft prices to; don't spend the quota.
		e.logger.Debug("softbook-skipped", zap.String("reason", "no-active-records"))
		FeedTicksTotal.WithLabelValues(string(types.CategorySoftbook), "skipped").Inc()
		return nil
	}

	if !e.gate.Allow(types.CategorySoftbook) {
		return nil
	}
	e.gate.Record(types.CategorySoftbook)

	byKey := make(map[string]types.OutcomeRecord, len(active))
	for _, rec := range active {
		byKey[rec.Key().String()] = rec
	}

	for _, sportKey := range e.cfg.SoftbookSportKeys {
		quotes, err := e.softbook.FetchQuotes(ctx, sportKey)
		if err != nil {
			return fmt.Errorf("fetch quotes %s: %w", sportKey, err)
		}

		for _, q := range quotes {
			if !e.applyQuote(ctx, q, active, byKey) {
				UnmatchedItemsTotal.WithLabelValues(string(types.CategorySoftbook)).Inc()
			}
		}
	}
	return nil
}

// applyQuote resolves one aggregator quote to a record and merges the
// bookmaker price in. The candidate set is scoped to the quote's fixture
// first, so identically named outcomes in other events can't collide.
func (e *Engine) applyQuote(ctx context.Context, q softbook.Quote, active []types.OutcomeRecord, byKey map[string]types.OutcomeRecord) bool {
	var candidates []match.Candidate
	for _, rec := range active {
		if !e.matcher.TeamInEvent(q.HomeTeam, rec.Event) ||
			!e.matcher.TeamInEvent(q.AwayTeam, rec.Event) {
			continue
		}
		candidates = append(candidates, match.Candidate{
			ID:      rec.Key().String(),
			Event:   rec.Event,
			Outcome: rec.Outcome,
		})
	}
	if len(candidates) == 0 {
		return false
	}

	var hit match.Candidate
	if isDraw(q.Outcome) {
		found := false
		for _, c := range candidates {
			if isDraw(c.Outcome) {
				hit, found = c, true
				break
			}
		}
		if !found {
			return false
		}
	} else {
		// Fixture scoping already happened; league names differ across
		// feeds, so resolution runs without the league guard.
		c, ok := e.matcher.Resolve(q.Outcome, "", candidates)
		if !ok {
			return false
		}
		hit = c
	}

	rec, ok := byKey[hit.ID]
	if !ok {
		return false
	}

	merged := e.cache.Merge(types.OutcomeRecord{
		League:     rec.League,
		Event:      rec.Event,
		Outcome:    rec.Outcome,
		SoftPrices: map[string]float64{q.Bookmaker: q.Price},
	})
	e.upsert(ctx, merged)
	return true
}

// runHousekeeping flips started records to IN_PLAY and persists the
// snapshot on its own clock.
func (e *Engine) runHousekeeping(ctx context.Context) {
	interval := e.cfg.SnapshotInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Final snapshot so a restart resumes close to where we stopped.
			err := e.cache.WriteSnapshot(e.cfg.SnapshotPath)
			if err != nil {
				e.logger.Warn("final-snapshot-failed", zap.Error(err))
			}
			return
		case <-ticker.C:
			changed := e.cache.MarkStarted(e.now())
			for _, rec := range changed {
				InPlayTransitionsTotal.Inc()
				e.upsert(ctx, rec)
			}

			err := e.cache.WriteSnapshot(e.cfg.SnapshotPath)
			if err != nil {
				e.logger.Warn("snapshot-write-failed", zap.Error(err))
			}
		}
	}
}

// activeRecords returns records still eligible for price matching: not
// closed, not started.
func (e *Engine) activeRecords() []types.OutcomeRecord {
	now := e.now()
	var active []types.OutcomeRecord
	for _, rec := range e.cache.SnapshotRecords() {
		if rec.Status == types.StatusClosed || rec.Status == types.StatusInPlay {
			continue
		}
		if rec.Started(now) {
			continue
		}
		active = append(active, rec)
	}
	return active
}

func (e *Engine) upsert(ctx context.Context, rec types.OutcomeRecord) {
	if e.store == nil {
		return
	}
	err := e.store.UpsertRecord(ctx, rec)
	if err != nil {
		e.logger.Warn("record-upsert-failed",
			zap.String("key", rec.Key().String()),
			zap.Error(err))
	}
}

func isDraw(outcome string) bool {
	switch match.Normalize(outcome) {
	case "draw", "thedraw", "x":
		return true
	}
	return false
}

var youthMarkers = []string{"u17", "u18", "u19", "u20", "u21", "u23", "youth", "reserve", "junior", "academy"}

func isYouthLeague(league string) bool {
	l := strings.ToLower(league)
	for _, marker := range youthMarkers {
		if strings.Contains(l, marker) {
			return true
		}
	}
	return false
}

func totalMatched(m exchange.Market) float64 {
	var total float64
	for _, r := range m.Runners {
		total += r.Matched
	}
	return total
}
