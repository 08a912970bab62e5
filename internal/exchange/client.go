package exchange

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmccall/sports-arb/pkg/types"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Runner is one selection on an exchange market with its best available
// back and lay prices and the volume matched on it so far.
type Runner struct {
	Name    string
	Back    float64
	Lay     float64
	Matched float64
}

// Market is one exchange market: an event plus its runners. Status maps
// onto the record lifecycle (OPEN, SUSPENDED, CLOSED).
type Market struct {
	ID        string
	Sport     string
	League    string
	Event     string
	Status    types.MarketStatus
	StartTime time.Time
	Runners   []Runner
}

// Client polls the exchange REST API for market books.
type Client struct {
	baseURL string
	appKey  string
	httpc   *http.Client
	logger  *zap.Logger
}

// Config holds exchange client configuration.
type Config struct {
	BaseURL string
	AppKey  string
	Timeout time.Duration
	Logger  *zap.Logger
}

// New creates an exchange client.
func New(cfg Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		appKey:  cfg.AppKey,
		httpc:   &http.Client{Timeout: cfg.Timeout},
		logger:  cfg.Logger,
	}
}

type runnerPayload struct {
	Name         string  `json:"runnerName"`
	BestBack     float64 `json:"bestBackPrice"`
	BestLay      float64 `json:"bestLayPrice"`
	TotalMatched float64 `json:"totalMatched"`
}

type marketPayload struct {
	MarketID    string          `json:"marketId"`
	Sport       string          `json:"eventType"`
	Competition string          `json:"competition"`
	EventName   string          `json:"eventName"`
	StartTime   time.Time       `json:"marketStartTime"`
	Status      string          `json:"status"`
	InPlay      bool            `json:"inplay"`
	Runners     []runnerPayload `json:"runners"`
}

type listResponse struct {
	Markets []marketPayload `json:"markets"`
}

// ListMarkets fetches the current match-odds market books. Individual
// markets with no usable runners are dropped without failing the page.
func (c *Client) ListMarkets(ctx context.Context) ([]Market, error) {
	params := url.Values{
		"marketType": {"MATCH_ODDS"},
		"status":     {"OPEN,SUSPENDED"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/markets?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Application", c.appKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list markets: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("list markets: status %d: %s", resp.StatusCode, string(body))
	}

	var payload listResponse
	err = json.NewDecoder(resp.Body).Decode(&payload)
	if err != nil {
		return nil, fmt.Errorf("decode markets: %w", err)
	}

	markets := make([]Market, 0, len(payload.Markets))
	for _, m := range payload.Markets {
		market, ok := toMarket(m)
		if !ok {
			MarketsDroppedTotal.WithLabelValues("malformed").Inc()
			continue
		}
		markets = append(markets, market)
	}

	MarketsFetchedTotal.Add(float64(len(markets)))
	return markets, nil
}

func toMarket(m marketPayload) (Market, bool) {
	if m.MarketID == "" || m.EventName == "" || len(m.Runners) == 0 {
		return Market{}, false
	}

	status := types.StatusOpen
	switch {
	case strings.EqualFold(m.Status, "SUSPENDED"):
		status = types.StatusSuspended
	case strings.EqualFold(m.Status, "CLOSED"):
		status = types.StatusClosed
	case m.InPlay:
		status = types.StatusInPlay
	}

	runners := make([]Runner, 0, len(m.Runners))
	for _, r := range m.Runners {
		if r.Name == "" {
			continue
		}
		runners = append(runners, Runner{
			Name:    r.Name,
			Back:    r.BestBack,
			Lay:     r.BestLay,
			Matched: r.TotalMatched,
		})
	}
	if len(runners) == 0 {
		return Market{}, false
	}

	return Market{
		ID:        m.MarketID,
		Sport:     m.Sport,
		League:    m.Competition,
		Event:     m.EventName,
		Status:    status,
		StartTime: m.StartTime,
		Runners:   runners,
	}, true
}
