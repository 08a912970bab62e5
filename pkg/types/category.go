package types

import "time"

// FeedCategory is a class of upstream data source sharing one rate-limit
// policy. Each category polls on its own clock; none may delay another.
type FeedCategory string

const (
	// Sharp feed market windows, in ascending priority. When more than one
	// category describes the same outcome in a tick, the higher-priority
	// (more time-sensitive) category's values win ties.
	CategoryEarly FeedCategory = "early"
	CategoryToday FeedCategory = "today"
	CategoryLive  FeedCategory = "live"

	CategoryExchange FeedCategory = "exchange"
	CategorySoftbook FeedCategory = "softbook"
)

// SharpCategories lists the sharp feed windows in merge order: least
// time-sensitive first so the freshest source wins last-write ties.
var SharpCategories = []FeedCategory{CategoryEarly, CategoryToday, CategoryLive}

// Priority returns the tie-break rank for sharp categories. Higher wins.
func (c FeedCategory) Priority() int {
	switch c {
	case CategoryLive:
		return 3
	case CategoryToday:
		return 2
	case CategoryEarly:
		return 1
	default:
		return 0
	}
}

// DefaultInterval is the minimum re-fetch interval for a category when no
// override is configured. The sharp feed enforces these limits server-side.
func (c FeedCategory) DefaultInterval() time.Duration {
	switch c {
	case CategoryLive:
		return 5 * time.Second
	case CategoryToday:
		return 10 * time.Second
	case CategoryEarly:
		return 20 * time.Second
	case CategoryExchange:
		return 5 * time.Second
	case CategorySoftbook:
		return 2 * time.Minute
	default:
		return time.Minute
	}
}

// AllCategories returns every category the engine schedules.
func AllCategories() []FeedCategory {
	return []FeedCategory{
		CategoryEarly, CategoryToday, CategoryLive,
		CategoryExchange, CategorySoftbook,
	}
}
