package ratelimit

import (
	"sync"
	"time"

	"github.com/dmccall/sports-arb/pkg/types"
	"go.uber.org/zap"
)

// Limiter gates fetches per feed category to a configured minimum
// interval. Allow and Record are separate so a category loop can check
// the gate before committing to a fetch and only mark the clock once the
// fetch is actually issued.
//
// Safe for concurrent use by category loops running in parallel.
type Limiter struct {
	mu        sync.Mutex
	intervals map[types.FeedCategory]time.Duration
	lastFetch map[types.FeedCategory]time.Time
	now       func() time.Time
	logger    *zap.Logger
}

// Config holds limiter configuration.
type Config struct {
	// Intervals maps each category to its minimum re-fetch interval.
	// Categories not listed fall back to their default interval.
	Intervals map[types.FeedCategory]time.Duration
	Logger    *zap.Logger
}

// New creates a limiter covering every known category.
func New(cfg Config) *Limiter {
	intervals := make(map[types.FeedCategory]time.Duration, len(types.AllCategories()))
	for _, cat := range types.AllCategories() {
		if iv, ok := cfg.Intervals[cat]; ok && iv > 0 {
			intervals[cat] = iv
		} else {
			intervals[cat] = cat.DefaultInterval()
		}
	}

	return &Limiter{
		intervals: intervals,
		lastFetch: make(map[types.FeedCategory]time.Time),
		now:       time.Now,
		logger:    cfg.Logger,
	}
}

// Allow reports whether a fetch for the category may be issued now.
// It does not consume the slot; call Record once the fetch goes out.
func (l *Limiter) Allow(cat types.FeedCategory) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	last, ok := l.lastFetch[cat]
	if !ok {
		FetchesAllowedTotal.WithLabelValues(string(cat)).Inc()
		return true
	}

	if l.now().Sub(last) < l.intervals[cat] {
		FetchesThrottledTotal.WithLabelValues(string(cat)).Inc()
		return false
	}

	FetchesAllowedTotal.WithLabelValues(string(cat)).Inc()
	return true
}

// Record marks the instant a permitted fetch was issued for the category.
func (l *Limiter) Record(cat types.FeedCategory) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastFetch[cat] = l.now()
}

// Interval returns the configured minimum interval for a category.
func (l *Limiter) Interval(cat types.FeedCategory) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.intervals[cat]
}
