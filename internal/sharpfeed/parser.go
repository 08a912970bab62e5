package sharpfeed

import (
	"regexp"
	"strconv"
	"strings"
)

// SidePrices holds one bookmaker's decimal prices for an outcome line.
// Draw is zero on two-way markets.
type SidePrices struct {
	Home float64
	Away float64
	Draw float64
}

// Side returns the price for "home", "away" or "draw".
func (p SidePrices) Side(side string) float64 {
	switch side {
	case "home":
		return p.Home
	case "away":
		return p.Away
	case "draw":
		return p.Draw
	default:
		return 0
	}
}

var barePrefixRe = regexp.MustCompile(`^([A-Za-z0-9]+?)([\d.,]+)$`)

// ParseBookieOdds parses the delimited per-bookmaker price string the
// sharp feed embeds in each item. The format is loose: entries separated
// by ";", bookie code and prices separated by ":", "=" or nothing at all,
// and a trailing BEST section that is summary only.
//
//	"SIN:2.26,1.61;IBC:2.30,1.58;BEST:SIN 2.26,IBC 1.58"
//	"SBT=2.084,3.655,3.614"  (3-way: home,away,draw)
//	"SIN2.260,1.610"         (no separator)
//
// Entries that cannot be parsed, or whose prices are not sane decimal
// odds, are dropped individually; the rest of the string still parses.
func ParseBookieOdds(s string) map[string]SidePrices {
	result := make(map[string]SidePrices)
	if s == "" {
		return result
	}

	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		// BEST section is a derived summary, not a bookmaker entry.
		if strings.HasPrefix(strings.ToUpper(part), "BEST") {
			continue
		}

		var bookie, prices string
		switch {
		case strings.Contains(part, ":"):
			split := strings.SplitN(part, ":", 2)
			bookie, prices = split[0], split[1]
		case strings.Contains(part, "="):
			split := strings.SplitN(part, "=", 2)
			bookie, prices = split[0], split[1]
		default:
			m := barePrefixRe.FindStringSubmatch(part)
			if m == nil {
				continue
			}
			bookie, prices = m[1], m[2]
		}

		bookie = strings.ToUpper(strings.TrimSpace(bookie))
		if bookie == "" || prices == "" {
			continue
		}

		fields := strings.Split(prices, ",")
		parse := func(i int) float64 {
			if i >= len(fields) || fields[i] == "" {
				return 0
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(fields[i]), 64)
			if err != nil {
				return 0
			}
			return v
		}

		home, away := parse(0), parse(1)
		if home <= 1.0 || away <= 1.0 {
			continue
		}

		sp := SidePrices{Home: home, Away: away}
		if len(fields) >= 3 && fields[2] != "" {
			sp.Draw = parse(2)
		}
		result[bookie] = sp
	}

	return result
}

// Sharp bookmaker codes in lookup order. The reference price is taken
// from the first code present.
var sharpCodes = []string{"PIN", "SIN"}

// SharpPrice extracts the reference book's price for a side from parsed
// odds. Returns 0 when no sharp code is present.
func SharpPrice(odds map[string]SidePrices, side string) float64 {
	for _, code := range sharpCodes {
		if sp, ok := odds[code]; ok {
			return sp.Side(side)
		}
	}
	return 0
}

// BestPrice returns the highest price for a side across all bookmakers
// and the code offering it.
func BestPrice(odds map[string]SidePrices, side string) (float64, string) {
	var best float64
	var bookie string
	for code, sp := range odds {
		if p := sp.Side(side); p > best {
			best = p
			bookie = code
		}
	}
	return best, bookie
}
