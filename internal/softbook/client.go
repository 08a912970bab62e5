package softbook

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Quote is one bookmaker's price for one outcome of an upcoming event,
// as reported by the aggregator.
type Quote struct {
	Sport     string
	League    string
	Event     string
	HomeTeam  string
	AwayTeam  string
	Outcome   string
	Bookmaker string
	Price     float64
	StartTime time.Time
}

// Client polls the soft-book aggregator API. One call returns head-to-head
// prices across the configured bookmakers for a sport.
type Client struct {
	baseURL    string
	apiKey     string
	bookmakers string
	httpc      *http.Client
	logger     *zap.Logger
}

// Config holds soft-book client configuration.
type Config struct {
	BaseURL string
	APIKey  string
	// Bookmakers is the comma-separated aggregator bookmaker keys to
	// request, e.g. "williamhill,paddypower".
	Bookmakers string
	Timeout    time.Duration
	Logger     *zap.Logger
}

// New creates a soft-book aggregator client.
func New(cfg Config) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		bookmakers: cfg.Bookmakers,
		httpc:      &http.Client{Timeout: cfg.Timeout},
		logger:     cfg.Logger,
	}
}

type outcomePayload struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type marketPayload struct {
	Key      string           `json:"key"`
	Outcomes []outcomePayload `json:"outcomes"`
}

type bookmakerPayload struct {
	Key     string          `json:"key"`
	Markets []marketPayload `json:"markets"`
}

type eventPayload struct {
	SportKey   string             `json:"sport_key"`
	SportTitle string             `json:"sport_title"`
	League     string             `json:"league"`
	Commence   time.Time          `json:"commence_time"`
	HomeTeam   string             `json:"home_team"`
	AwayTeam   string             `json:"away_team"`
	Bookmakers []bookmakerPayload `json:"bookmakers"`
}

// FetchQuotes pulls head-to-head quotes for one sport across all
// configured bookmakers. Outcomes priced at or below 1.0 are dropped.
func (c *Client) FetchQuotes(ctx context.Context, sportKey string) ([]Quote, error) {
	params := url.Values{
		"apiKey":     {c.apiKey},
		"regions":    {"uk"},
		"markets":    {"h2h"},
		"oddsFormat": {"decimal"},
	}
	if c.bookmakers != "" {
		params.Set("bookmakers", c.bookmakers)
	}

	reqURL := fmt.Sprintf("%s/sports/%s/odds?%s", c.baseURL, url.PathEscape(sportKey), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch odds: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch odds: status %d: %s", resp.StatusCode, string(body))
	}

	var events []eventPayload
	err = json.NewDecoder(resp.Body).Decode(&events)
	if err != nil {
		return nil, fmt.Errorf("decode odds: %w", err)
	}

	var quotes []Quote
	for _, ev := range events {
		if ev.HomeTeam == "" || ev.AwayTeam == "" {
			QuotesDroppedTotal.WithLabelValues("malformed").Inc()
			continue
		}

		league := ev.League
		if league == "" {
			league = ev.SportTitle
		}
		event := ev.HomeTeam + " v " + ev.AwayTeam

		for _, bm := range ev.Bookmakers {
			for _, mkt := range bm.Markets {
				if mkt.Key != "h2h" {
					continue
				}
				for _, out := range mkt.Outcomes {
					if out.Name == "" || out.Price <= 1.0 {
						QuotesDroppedTotal.WithLabelValues("bad-price").Inc()
						continue
					}
					quotes = append(quotes, Quote{
						Sport:     ev.SportKey,
						League:    league,
						Event:     event,
						HomeTeam:  ev.HomeTeam,
						AwayTeam:  ev.AwayTeam,
						Outcome:   out.Name,
						Bookmaker: bm.Key,
						Price:     out.Price,
						StartTime: ev.Commence,
					})
				}
			}
		}
	}

	QuotesFetchedTotal.Add(float64(len(quotes)))
	return quotes, nil
}
