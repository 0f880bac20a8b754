// Package sportsapi reads league standings and fixtures from TheSportsDB.
//
// Every response is cached in the storage api_cache table, so a restart or a
// burst of menu requests does not hit the remote API again until the entry
// expires. All calls are best effort: callers fall back to generated data.
package sportsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/storage"
	logx "github.com/Dmitry77701/saudi-football-bot-advanced/pkg/logx"
)

const (
	DefaultBaseURL = "https://www.thesportsdb.com/api/v1/json"
	DefaultKey     = "123"
	DefaultLeague  = "4480"

	endpointStandings = "standings"
	endpointEvents    = "events_day"

	maxBody = 4 << 20
)

var ErrDisabled = errors.New("sportsapi: disabled")

// Cache is the subset of storage used for response caching.
type Cache interface {
	CacheGet(ctx context.Context, endpoint, params string) ([]byte, bool, error)
	CachePut(ctx context.Context, endpoint, params string, payload []byte, ttl time.Duration) error
}

type Config struct {
	Enabled  bool
	BaseURL  string
	Key      string
	LeagueID string
	Season   string
	CacheTTL time.Duration
	Timeout  time.Duration
}

type Client struct {
	cfg   Config
	http  *http.Client
	cache Cache
	log   logx.Logger
}

func New(cfg Config, cache Cache, log logx.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}
	if cfg.LeagueID == "" {
		cfg.LeagueID = DefaultLeague
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = storage.DefaultCacheTTL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: cfg.Timeout},
		cache: cache,
		log:   log,
	}
}

func (c *Client) Enabled() bool { return c != nil && c.cfg.Enabled }

func (c *Client) LeagueID() string { return c.cfg.LeagueID }

func (c *Client) Season() string { return c.cfg.Season }

// get returns the body of path?query, served from the cache when a live entry exists.
func (c *Client) get(ctx context.Context, endpoint, path string, params map[string]string) ([]byte, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	key := storage.CanonicalParams(params)
	if c.cache != nil {
		payload, ok, err := c.cache.CacheGet(ctx, endpoint, key)
		if err != nil {
			c.log.Warn("cache read failed", logx.String("endpoint", endpoint), logx.Err(err))
		} else if ok {
			c.log.Debug("cache hit", logx.String("endpoint", endpoint), logx.String("params", key))
			return payload, nil
		}
	}

	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	u := c.cfg.BaseURL + "/" + url.PathEscape(c.cfg.Key) + "/" + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("sportsapi %s: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "saudi-football-bot/1.0")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sportsapi %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sportsapi %s: status %d", endpoint, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("sportsapi %s: read: %w", endpoint, err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("sportsapi %s: response is not JSON", endpoint)
	}
	c.log.Debug("fetched", logx.String("endpoint", endpoint), logx.Duration("dur", time.Since(start)), logx.Int("bytes", len(body)))

	if c.cache != nil {
		if err := c.cache.CachePut(ctx, endpoint, key, body, c.cfg.CacheTTL); err != nil {
			c.log.Warn("cache write failed", logx.String("endpoint", endpoint), logx.Err(err))
		}
	}
	return body, nil
}

// flexInt accepts numbers encoded either as JSON numbers or strings; the v1
// API uses both, and null for unknown scores.
type flexInt struct {
	V     int
	Valid bool
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = flexInt{}
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("number %q: %w", s, err)
	}
	*f = flexInt{V: n, Valid: true}
	return nil
}
