package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmccall/sports-arb/internal/exchange"
	"github.com/dmccall/sports-arb/internal/match"
	"github.com/dmccall/sports-arb/internal/sharpfeed"
	"github.com/dmccall/sports-arb/internal/softbook"
	"github.com/dmccall/sports-arb/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type allowAllGate struct{}

func (allowAllGate) Allow(types.FeedCategory) bool { return true }
func (allowAllGate) Record(types.FeedCategory)     {}

type fakeSessions struct {
	ensures  int
	reports  []int
	touches  int
}

func (f *fakeSessions) EnsureSession(ctx context.Context) error { f.ensures++; return nil }
func (f *fakeSessions) Current() (sharpfeed.Session, sharpfeed.SessionState) {
	return sharpfeed.Session{Token: "tok", Key: "key", ServiceURL: "https://svc"}, sharpfeed.StateAuthenticated
}
func (f *fakeSessions) ReportError(code int) { f.reports = append(f.reports, code) }
func (f *fakeSessions) Touch()               { f.touches++ }

type sharpResponse struct {
	page sharpfeed.FeedPage
	err  error
}

type fakeSharp struct {
	responses []sharpResponse
	calls     int
}

func (f *fakeSharp) GetFeeds(ctx context.Context, s sharpfeed.Session, sportID int, cat types.FeedCategory, cursor int64) (sharpfeed.FeedPage, error) {
	if f.calls >= len(f.responses) {
		return sharpfeed.FeedPage{}, errors.New("unexpected call")
	}
	r := f.responses[f.calls]
	f.calls++
	return r.page, r.err
}

type fakeExchange struct {
	markets []exchange.Market
	err     error
	calls   int
}

func (f *fakeExchange) ListMarkets(ctx context.Context) ([]exchange.Market, error) {
	f.calls++
	return f.markets, f.err
}

type fakeSoftbook struct {
	quotes []softbook.Quote
	err    error
	calls  int
}

func (f *fakeSoftbook) FetchQuotes(ctx context.Context, sportKey string) ([]softbook.Quote, error) {
	f.calls++
	return f.quotes, f.err
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, deps Deps) *Engine {
	t.Helper()

	if deps.Cache == nil {
		deps.Cache = NewCache()
	}
	if deps.Gate == nil {
		deps.Gate = allowAllGate{}
	}
	if deps.Matcher == nil {
		deps.Matcher = match.New(match.Config{Logger: zap.NewNop()})
	}
	deps.Logger = zap.NewNop()

	e := NewEngine(Config{
		SharpSportID:          1,
		SoftbookSportKeys:     []string{"soccer_epl"},
		StaleDropWindow:       time.Minute,
		ExchangeMinVolumeSoon: 10.0,
		DegradedAfterFailures: 5,
	}, deps)
	e.now = func() time.Time { return testNow }
	deps.Cache.now = e.now
	return e
}

func openMarket(id, league, event string, start time.Time, runners ...exchange.Runner) exchange.Market {
	return exchange.Market{
		ID: id, Sport: "Soccer", League: league, Event: event,
		Status: types.StatusOpen, StartTime: start, Runners: runners,
	}
}

func TestTickExchangeCreatesAndFiltersRecords(t *testing.T) {
	fx := &fakeExchange{markets: []exchange.Market{
		openMarket("1.1", "English Premier League", "Arsenal v Chelsea", testNow.Add(4*time.Hour),
			exchange.Runner{Name: "Arsenal", Back: 2.10, Lay: 2.14, Matched: 5000},
			exchange.Runner{Name: "Chelsea", Back: 3.60, Lay: 3.70, Matched: 4000},
			exchange.Runner{Name: "The Draw", Back: 3.40, Lay: 3.50, Matched: 2000}),
		openMarket("1.2", "Premier League U21", "Spurs U21 v Fulham U21", testNow.Add(4*time.Hour),
			exchange.Runner{Name: "Spurs U21", Back: 1.90, Matched: 500}),
		openMarket("1.3", "League Two", "Barrow v Salford", testNow.Add(30*time.Minute),
			exchange.Runner{Name: "Barrow", Back: 2.40, Matched: 4}),
	}}

	cache := NewCache()
	e := newTestEngine(t, Deps{Cache: cache, Exchange: fx})

	require.NoError(t, e.tickExchange(context.Background()))

	// Youth league and the thin imminent market are excluded.
	assert.Equal(t, 3, cache.Len())

	got, ok := cache.Get(types.RecordKey{League: "English Premier League", Event: "Arsenal v Chelsea", Outcome: "Arsenal"})
	require.True(t, ok)
	assert.Equal(t, "1.1:arsenal", got.ID)
	assert.Equal(t, 2.10, got.BackPrice)
	assert.Equal(t, 2.14, got.LayPrice)
	assert.Equal(t, 5000.0, got.Volume)
	assert.Equal(t, types.StatusOpen, got.Status)
}

func TestTickExchangeDedupesByHighestVolume(t *testing.T) {
	fx := &fakeExchange{markets: []exchange.Market{
		openMarket("1.1", "EPL", "Arsenal v Chelsea", testNow.Add(4*time.Hour),
			exchange.Runner{Name: "Arsenal", Back: 2.00, Lay: 2.04, Matched: 100}),
		openMarket("1.9", "EPL", "Arsenal v Chelsea", testNow.Add(4*time.Hour),
			exchange.Runner{Name: "Arsenal", Back: 2.10, Lay: 2.12, Matched: 9000}),
	}}

	cache := NewCache()
	e := newTestEngine(t, Deps{Cache: cache, Exchange: fx})

	require.NoError(t, e.tickExchange(context.Background()))

	got, ok := cache.Get(types.RecordKey{League: "EPL", Event: "Arsenal v Chelsea", Outcome: "Arsenal"})
	require.True(t, ok)
	assert.Equal(t, 2.10, got.BackPrice, "most liquid market wins")
	assert.Equal(t, 9000.0, got.Volume)
}

func TestSharpMatchLiveWinsSameTickTie(t *testing.T) {
	cache := NewCache()
	e := newTestEngine(t, Deps{Cache: cache})

	cache.Merge(types.OutcomeRecord{
		League: "English Premier League", Event: "Arsenal v Chelsea", Outcome: "Arsenal",
		Status: types.StatusOpen, StartTime: testNow.Add(4 * time.Hour),
	})

	item := sharpfeed.Item{
		HomeTeam: "Arsenal", AwayTeam: "Chelsea", League: "England Premier",
		UpdatedAt: testNow,
	}

	early := item
	early.Odds = map[string]sharpfeed.SidePrices{"SIN": {Home: 2.50, Away: 3.00}}
	live := item
	live.Odds = map[string]sharpfeed.SidePrices{"SIN": {Home: 2.20, Away: 3.10}}

	e.applySharpItems(types.CategoryEarly, []sharpfeed.Item{early})
	e.applySharpItems(types.CategoryLive, []sharpfeed.Item{live})
	e.matchSharpPrices(context.Background())

	got, ok := cache.Get(types.RecordKey{League: "English Premier League", Event: "Arsenal v Chelsea", Outcome: "Arsenal"})
	require.True(t, ok)
	assert.Equal(t, 2.20, got.SharpPrice, "live window price wins the tie")
}

func TestTickSharpRetriesOnceAfterSessionInvalid(t *testing.T) {
	sessions := &fakeSessions{}
	sharp := &fakeSharp{responses: []sharpResponse{
		{err: &sharpfeed.FeedError{Code: -4, Message: "session expired"}},
		{page: sharpfeed.FeedPage{Cursor: 42}},
	}}

	e := newTestEngine(t, Deps{Sessions: sessions, Sharp: sharp})

	require.NoError(t, e.tickSharp(context.Background(), types.CategoryToday))

	assert.Equal(t, 2, sharp.calls)
	assert.Equal(t, []int{-4}, sessions.reports)
	assert.Equal(t, 2, sessions.ensures)
	assert.Equal(t, int64(42), e.cursor(types.CategoryToday))
}

func TestTickSharpDoesNotRetryOtherFaults(t *testing.T) {
	sessions := &fakeSessions{}
	sharp := &fakeSharp{responses: []sharpResponse{
		{err: &sharpfeed.FeedError{Code: -99, Message: "upstream fault"}},
	}}

	e := newTestEngine(t, Deps{Sessions: sessions, Sharp: sharp})

	err := e.tickSharp(context.Background(), types.CategoryToday)
	require.Error(t, err)
	assert.Equal(t, 1, sharp.calls)
	assert.Empty(t, sessions.reports)
}

func TestApplySharpItemsDeltaSemantics(t *testing.T) {
	e := newTestEngine(t, Deps{})

	withOdds := sharpfeed.Item{
		HomeTeam: "Arsenal", AwayTeam: "Chelsea", League: "EPL", UpdatedAt: testNow,
		Odds: map[string]sharpfeed.SidePrices{"SIN": {Home: 2.2, Away: 3.1}},
	}
	e.applySharpItems(types.CategoryToday, []sharpfeed.Item{withOdds})
	require.Len(t, e.sharpItems[types.CategoryToday], 1)

	// An update without odds must not displace the priced entry.
	noOdds := withOdds
	noOdds.Odds = nil
	e.applySharpItems(types.CategoryToday, []sharpfeed.Item{noOdds})
	assert.True(t, e.sharpItems[types.CategoryToday][withOdds.EntryKey()].HasOdds())

	// Stale entries are dropped.
	stale := sharpfeed.Item{
		HomeTeam: "Leeds", AwayTeam: "Derby", League: "EPL",
		UpdatedAt: testNow.Add(-2 * time.Minute),
		Odds:      map[string]sharpfeed.SidePrices{"SIN": {Home: 1.9, Away: 3.9}},
	}
	e.applySharpItems(types.CategoryToday, []sharpfeed.Item{stale})
	assert.Len(t, e.sharpItems[types.CategoryToday], 1)

	// Removals evict.
	removed := withOdds
	removed.Removed = true
	e.applySharpItems(types.CategoryToday, []sharpfeed.Item{removed})
	assert.Empty(t, e.sharpItems[types.CategoryToday])
}

func TestTickSoftbookSkipsWithoutActiveRecords(t *testing.T) {
	sb := &fakeSoftbook{}
	e := newTestEngine(t, Deps{Softbook: sb})

	require.NoError(t, e.tickSoftbook(context.Background()))
	assert.Zero(t, sb.calls, "no quota spent when nothing is in scope")
}

func TestTickSoftbookMergesResolvedQuotes(t *testing.T) {
	cache := NewCache()
	for _, outcome := range []string{"Arsenal", "Chelsea", "The Draw"} {
		cache.Merge(types.OutcomeRecord{
			League: "English Premier League", Event: "Arsenal v Chelsea", Outcome: outcome,
			Status: types.StatusOpen, StartTime: testNow.Add(4 * time.Hour),
		})
	}

	sb := &fakeSoftbook{quotes: []softbook.Quote{
		{League: "EPL", Event: "Arsenal v Chelsea", HomeTeam: "Arsenal", AwayTeam: "Chelsea",
			Outcome: "Arsenal", Bookmaker: "williamhill", Price: 2.05, StartTime: testNow.Add(4 * time.Hour)},
		{League: "EPL", Event: "Arsenal v Chelsea", HomeTeam: "Arsenal", AwayTeam: "Chelsea",
			Outcome: "Draw", Bookmaker: "paddypower", Price: 3.45, StartTime: testNow.Add(4 * time.Hour)},
	}}

	e := newTestEngine(t, Deps{Cache: cache, Softbook: sb})

	require.NoError(t, e.tickSoftbook(context.Background()))

	got, ok := cache.Get(types.RecordKey{League: "English Premier League", Event: "Arsenal v Chelsea", Outcome: "Arsenal"})
	require.True(t, ok)
	assert.Equal(t, 2.05, got.SoftPrices["williamhill"])

	draw, ok := cache.Get(types.RecordKey{League: "English Premier League", Event: "Arsenal v Chelsea", Outcome: "The Draw"})
	require.True(t, ok)
	assert.Equal(t, 3.45, draw.SoftPrices["paddypower"])
}

func TestDegradedFlagLifecycle(t *testing.T) {
	e := newTestEngine(t, Deps{})
	cat := types.CategoryExchange

	for i := 0; i < 4; i++ {
		e.recordTickResult(cat, errors.New("boom"))
	}
	assert.False(t, e.Degraded()[cat], "below the budget the feed is still healthy")

	e.recordTickResult(cat, errors.New("boom"))
	assert.True(t, e.Degraded()[cat])

	e.recordTickResult(cat, nil)
	assert.False(t, e.Degraded()[cat], "one success clears the flag")
}
