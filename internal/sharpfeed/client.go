package sharpfeed

import (
	"context"
	"crypto/md5" //nolint:gosec // upstream API requires md5-hashed passwords
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmccall/sports-arb/pkg/types"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Item is one match entry from a feed page, with its bookmaker odds
// already parsed. Items flagged for removal carry Removed=true so the
// caller can evict them from its delta cache.
type Item struct {
	HomeTeam  string
	AwayTeam  string
	League    string
	Odds      map[string]SidePrices
	UpdatedAt time.Time
	Removed   bool
}

// EntryKey identifies the item within a feed category cache.
func (it Item) EntryKey() string {
	return it.HomeTeam + "_" + it.AwayTeam + "_" + it.League
}

// HasOdds reports whether the item carries any parsed bookmaker prices.
func (it Item) HasOdds() bool {
	return len(it.Odds) > 0
}

// FeedPage is one GetFeeds response: items plus the delta cursor to pass
// on the next call. Cursor 0 requests a full snapshot.
type FeedPage struct {
	Items  []Item
	Cursor int64
}

// Client talks to the sharp feed API. It is stateless with respect to the
// session: handshake calls produce a Session, data calls consume one. The
// SessionManager owns session lifecycle.
type Client struct {
	baseURL  string
	username string
	password string
	httpc    *http.Client
	now      func() time.Time
	logger   *zap.Logger
}

// ClientConfig holds sharp feed client configuration.
type ClientConfig struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
	Logger   *zap.Logger
}

// NewClient creates a sharp feed client.
func NewClient(cfg ClientConfig) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		httpc:    &http.Client{Timeout: cfg.Timeout},
		now:      time.Now,
		logger:   cfg.Logger,
	}
}

// envelope is the common response wrapper: Code 0 on success, negative
// on fault, with the payload under Result.
type envelope struct {
	Code   int             `json:"Code"`
	Result json.RawMessage `json:"Result"`
}

type resultMessage struct {
	TextMessage string `json:"TextMessage"`
}

func (c *Client) get(ctx context.Context, base, endpoint string, params url.Values, s *Session) (*envelope, error) {
	if base == "" {
		base = c.baseURL
	}

	reqURL := base + "/" + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if s != nil {
		req.Header.Set("X-Session-Token", s.Token)
		req.Header.Set("X-Session-Key", s.Key)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", endpoint, err)
	}

	// Some responses arrive with a UTF-8 BOM.
	body = []byte(strings.TrimPrefix(string(body), "\ufeff"))

	var env envelope
	err = json.Unmarshal(body, &env)
	if err != nil {
		return nil, fmt.Errorf("%s: decode envelope: %w", endpoint, err)
	}

	if env.Code != codeOK {
		var msg resultMessage
		_ = json.Unmarshal(env.Result, &msg)
		return nil, &FeedError{Code: env.Code, Message: msg.TextMessage}
	}

	return &env, nil
}

type loginResult struct {
	Token string `json:"Token"`
	Key   string `json:"Key"`
	URL   string `json:"Url"`
}

// Login performs step one of the handshake, returning a temporary
// credential that must be registered within the register window.
func (c *Client) Login(ctx context.Context) (Session, error) {
	sum := md5.Sum([]byte(c.password)) //nolint:gosec // upstream protocol
	params := url.Values{
		"username": {c.username},
		"password": {hex.EncodeToString(sum[:])},
	}

	env, err := c.get(ctx, c.baseURL, "Login", params, nil)
	if err != nil {
		return Session{}, err
	}

	var res loginResult
	err = json.Unmarshal(env.Result, &res)
	if err != nil {
		return Session{}, fmt.Errorf("decode login result: %w", err)
	}

	return Session{
		Token:      res.Token,
		Key:        res.Key,
		ServiceURL: strings.TrimRight(res.URL, "/"),
		IssuedAt:   c.now(),
	}, nil
}

// Register performs step two of the handshake against the service URL
// issued at login.
func (c *Client) Register(ctx context.Context, s Session) error {
	params := url.Values{"username": {c.username}}
	_, err := c.get(ctx, s.ServiceURL, "Register", params, &s)
	return err
}

// Probe checks whether the session is still accepted upstream.
func (c *Client) Probe(ctx context.Context, s Session) error {
	_, err := c.get(ctx, s.ServiceURL, "IsLoggedIn", nil, &s)
	return err
}

// marketTypeID maps sharp feed categories onto the API's market windows.
func marketTypeID(cat types.FeedCategory) int {
	switch cat {
	case types.CategoryLive:
		return 0
	case types.CategoryToday:
		return 1
	default:
		return 2
	}
}

type feedTeam struct {
	Name string `json:"Name"`
}

type feedOddsBlock struct {
	BookieOdds string `json:"BookieOdds"`
}

type feedMatch struct {
	HomeTeam      feedTeam      `json:"HomeTeam"`
	AwayTeam      feedTeam      `json:"AwayTeam"`
	HomeTeamName  string        `json:"HomeTeamName"`
	AwayTeamName  string        `json:"AwayTeamName"`
	LeagueName    string        `json:"LeagueName"`
	OneXTwo       feedOddsBlock `json:"FullTimeOneXTwo"`
	MoneyLine     feedOddsBlock `json:"FullTimeMoneyLine"`
	WillBeRemoved bool          `json:"WillBeRemoved"`
	IsActive      *bool         `json:"IsActive"`
	UpdatedMillis int64         `json:"UpdatedDateTime"`
}

type feedSport struct {
	MatchGames []feedMatch `json:"MatchGames"`
}

type feedResult struct {
	Since  int64       `json:"Since"`
	Sports []feedSport `json:"Sports"`
}

// GetFeeds fetches the odds feed for one sport and category. The cursor
// selects a delta since the previous call; pass 0 for a full snapshot.
// Individual malformed or inactive entries are dropped without failing
// the page.
func (c *Client) GetFeeds(ctx context.Context, s Session, sportID int, cat types.FeedCategory, cursor int64) (FeedPage, error) {
	params := url.Values{
		"sportsType":   {strconv.Itoa(sportID)},
		"marketTypeId": {strconv.Itoa(marketTypeID(cat))},
		"oddsFormat":   {"00"}, // decimal
		"since":        {strconv.FormatInt(cursor, 10)},
	}

	env, err := c.get(ctx, s.ServiceURL, "GetFeeds", params, &s)
	if err != nil {
		return FeedPage{}, err
	}

	var res feedResult
	err = json.Unmarshal(env.Result, &res)
	if err != nil {
		return FeedPage{}, fmt.Errorf("decode feed result: %w", err)
	}

	page := FeedPage{Cursor: res.Since}
	for _, sp := range res.Sports {
		for _, m := range sp.MatchGames {
			item, ok := c.toItem(m)
			if !ok {
				ItemsDroppedTotal.WithLabelValues(string(cat), "malformed").Inc()
				continue
			}
			page.Items = append(page.Items, item)
		}
	}

	return page, nil
}

func (c *Client) toItem(m feedMatch) (Item, bool) {
	home := m.HomeTeam.Name
	if home == "" {
		home = m.HomeTeamName
	}
	away := m.AwayTeam.Name
	if away == "" {
		away = m.AwayTeamName
	}
	if home == "" || away == "" {
		return Item{}, false
	}

	if m.IsActive != nil && !*m.IsActive {
		return Item{}, false
	}

	raw := m.OneXTwo.BookieOdds
	if raw == "" {
		raw = m.MoneyLine.BookieOdds
	}

	var updated time.Time
	if m.UpdatedMillis > 0 {
		updated = time.UnixMilli(m.UpdatedMillis).UTC()
	}

	return Item{
		HomeTeam:  home,
		AwayTeam:  away,
		League:    m.LeagueName,
		Odds:      ParseBookieOdds(raw),
		UpdatedAt: updated,
		Removed:   m.WillBeRemoved,
	}, true
}
