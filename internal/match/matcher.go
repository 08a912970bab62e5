package match

import (
	"regexp"
	"strings"
	"time"

	"github.com/dmccall/sports-arb/pkg/cache"
	"go.uber.org/zap"
)

// Candidate is a canonical outcome offered to the matcher for resolution.
type Candidate struct {
	ID      string
	League  string
	Event   string
	Outcome string
}

// Matcher resolves a raw participant name from a foreign feed to at most
// one canonical outcome from a candidate set. Implementations must never
// match across leagues, even on identical names.
type Matcher interface {
	// Resolve returns the single candidate matching the raw name within
	// the given league, or false when there is no unambiguous match.
	Resolve(raw, league string, candidates []Candidate) (Candidate, bool)
	// SameTeam reports whether two raw team names refer to one team.
	SameTeam(a, b string) bool
	// TeamInEvent reports whether the team (or any alias of it) appears
	// in the event name.
	TeamInEvent(team, event string) bool
}

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]`)

// Club name prefixes stripped before fuzzy comparison.
var teamPrefixes = []string{"afc", "fc", "as", "us", "cf", "sc", "ac", "ssc", "rcd", "rc"}

// Club name suffixes stripped before fuzzy comparison, longest first so
// compound suffixes win.
var teamSuffixes = []string{
	"andhovealbion", "hovealbion", "wanderers", "hotspur", "athletic",
	"united", "albion", "rovers", "county", "orient", "rangers", "argyle",
	"town", "city",
}

// TableMatcher matches on normalized names with a transitively closed
// alias table and a substring fuzzy fallback.
type TableMatcher struct {
	canonical map[string]string // normalized alias -> canonical representative
	memo      cache.Cache
	logger    *zap.Logger
}

// Config holds matcher configuration.
type Config struct {
	// Aliases maps a name to its known alternates, in either direction.
	// The table is closed transitively at construction: A->B plus B->C
	// makes A, B and C one group.
	Aliases map[string][]string
	// Memo caches normalization results. Optional.
	Memo   cache.Cache
	Logger *zap.Logger
}

// New builds a TableMatcher with the alias table closed over.
func New(cfg Config) *TableMatcher {
	m := &TableMatcher{
		canonical: make(map[string]string),
		memo:      cfg.Memo,
		logger:    cfg.Logger,
	}
	m.buildClosure(cfg.Aliases)
	return m
}

// buildClosure union-finds alias groups so lookups resolve through any
// chain length in one step.
func (m *TableMatcher) buildClosure(aliases map[string][]string) {
	parent := make(map[string]string)

	var find func(string) string
	find = func(x string) string {
		p, ok := parent[x]
		if !ok {
			parent[x] = x
			return x
		}
		if p == x {
			return x
		}
		root := find(p)
		parent[x] = root
		return root
	}

	union := func(a, b string) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	for name, alts := range aliases {
		n := Normalize(name)
		for _, alt := range alts {
			union(n, Normalize(alt))
		}
	}

	for name := range parent {
		m.canonical[name] = find(name)
	}
}

// Normalize lowercases and strips every non-alphanumeric character.
func Normalize(name string) string {
	return nonAlnumRe.ReplaceAllString(strings.ToLower(name), "")
}

// normalize memoizes Normalize through the ristretto cache when present.
func (m *TableMatcher) normalize(name string) string {
	if m.memo == nil {
		return Normalize(name)
	}

	if v, ok := m.memo.Get("norm:" + name); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}

	n := Normalize(name)
	m.memo.Set("norm:"+name, n, time.Hour)
	return n
}

// canon resolves a normalized name through the alias closure.
func (m *TableMatcher) canon(norm string) string {
	if c, ok := m.canonical[norm]; ok {
		return c
	}
	return norm
}

func stripPrefix(name string) string {
	for _, prefix := range teamPrefixes {
		if strings.HasPrefix(name, prefix) && len(name) > len(prefix)+3 {
			return name[len(prefix):]
		}
	}
	return name
}

func stripSuffix(name string) string {
	for _, suffix := range teamSuffixes {
		if strings.HasSuffix(name, suffix) && len(name) > len(suffix)+3 {
			return name[:len(name)-len(suffix)]
		}
	}
	return name
}

// fuzzyContains is the substring fallback: only cores longer than 4
// characters may match, to avoid short-token false positives.
func fuzzyContains(a, b string) bool {
	if len(a) > 4 && strings.Contains(b, a) {
		return true
	}
	if len(b) > 4 && strings.Contains(a, b) {
		return true
	}
	return false
}

// SameTeam reports whether two raw names refer to the same team:
// exact normalized match, alias closure, substring fallback, then the
// same again with club prefixes stripped.
func (m *TableMatcher) SameTeam(a, b string) bool {
	na, nb := m.normalize(a), m.normalize(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}

	if m.canon(na) == m.canon(nb) {
		return true
	}

	if fuzzyContains(na, nb) {
		return true
	}

	sa, sb := stripPrefix(na), stripPrefix(nb)
	if sa != na || sb != nb {
		if sa == sb || fuzzyContains(sa, sb) {
			return true
		}
	}

	return false
}

// TeamInEvent reports whether the team appears in the event string,
// trying the raw core, prefix/suffix-stripped cores, and every alias in
// the team's group.
func (m *TableMatcher) TeamInEvent(team, event string) bool {
	teamNorm := m.normalize(team)
	eventNorm := m.normalize(event)
	if teamNorm == "" || eventNorm == "" {
		return false
	}

	if strings.Contains(eventNorm, teamNorm) {
		return true
	}

	if s := stripPrefix(teamNorm); s != teamNorm && len(s) > 4 && strings.Contains(eventNorm, s) {
		return true
	}
	if c := stripSuffix(teamNorm); c != teamNorm && len(c) > 4 && strings.Contains(eventNorm, c) {
		return true
	}
	if cs := stripSuffix(stripPrefix(teamNorm)); cs != teamNorm && len(cs) > 4 && strings.Contains(eventNorm, cs) {
		return true
	}

	root := m.canon(teamNorm)
	for alias, r := range m.canonical {
		if r != root || alias == teamNorm {
			continue
		}
		if len(alias) > 4 && strings.Contains(eventNorm, alias) {
			return true
		}
		if s := stripPrefix(alias); s != alias && len(s) > 4 && strings.Contains(eventNorm, s) {
			return true
		}
		if c := stripSuffix(alias); c != alias && len(c) > 4 && strings.Contains(eventNorm, c) {
			return true
		}
	}

	return false
}

// Resolve returns the single candidate whose outcome matches the raw
// name. Candidates from a different league never match, and an ambiguous
// raw name (two candidates hit) resolves to nothing rather than risking
// a wrong merge.
func (m *TableMatcher) Resolve(raw, league string, candidates []Candidate) (Candidate, bool) {
	rawNorm := m.normalize(raw)
	if rawNorm == "" {
		return Candidate{}, false
	}

	leagueNorm := m.normalize(league)

	var hit Candidate
	var hits int
	for _, c := range candidates {
		if leagueNorm != "" && c.League != "" && m.normalize(c.League) != leagueNorm {
			continue
		}

		if m.SameTeam(raw, c.Outcome) {
			hit = c
			hits++
			if hits > 1 {
				MatchesAmbiguousTotal.Inc()
				return Candidate{}, false
			}
		}
	}

	if hits == 1 {
		MatchesResolvedTotal.Inc()
		return hit, true
	}

	MatchesUnresolvedTotal.Inc()
	return Candidate{}, false
}
