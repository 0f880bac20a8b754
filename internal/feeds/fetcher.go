// Package feeds turns RSS and Atom sources into headlines for the content seed.
package feeds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/content"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/storage"
	logx "github.com/Dmitry77701/saudi-football-bot-advanced/pkg/logx"
)

const (
	endpointFeed = "feed"
	userAgent    = "saudi-football-bot/1.0"
	maxBody      = 8 << 20
)

// Cache is the subset of storage used to cache parsed feeds.
type Cache interface {
	CacheGet(ctx context.Context, endpoint, params string) ([]byte, bool, error)
	CachePut(ctx context.Context, endpoint, params string, payload []byte, ttl time.Duration) error
}

type Config struct {
	URLs     []string
	CacheTTL time.Duration
	MaxItems int
	Timeout  time.Duration
}

type Fetcher struct {
	cfg    Config
	parser *gofeed.Parser
	client *http.Client
	cache  Cache
	log    logx.Logger
}

func NewFetcher(cfg Config, cache Cache, log logx.Logger) *Fetcher {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Minute
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 20
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	return &Fetcher{
		cfg:    cfg,
		parser: parser,
		client: &http.Client{Timeout: cfg.Timeout},
		cache:  cache,
		log:    log,
	}
}

// Headlines collects up to MaxItems headlines across all sources, in source
// order. A failing source is logged and skipped; the error is returned only
// when every source failed.
func (f *Fetcher) Headlines(ctx context.Context) ([]content.Headline, error) {
	var (
		out  []content.Headline
		errs []error
		seen = map[string]bool{}
	)
	for _, u := range f.cfg.URLs {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		items, err := f.Feed(ctx, u)
		if err != nil {
			f.log.Warn("feed fetch failed", logx.String("url", u), logx.Err(err))
			errs = append(errs, err)
			continue
		}
		for _, h := range items {
			if seen[h.Title] || len(out) >= f.cfg.MaxItems {
				continue
			}
			seen[h.Title] = true
			out = append(out, h)
		}
	}
	if len(out) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// Feed returns the sanitized headlines of one source, cached per URL.
func (f *Fetcher) Feed(ctx context.Context, url string) ([]content.Headline, error) {
	params := storage.CanonicalParams(map[string]string{"url": url})
	if f.cache != nil {
		if payload, ok, err := f.cache.CacheGet(ctx, endpointFeed, params); err == nil && ok {
			var cached []content.Headline
			if err := json.Unmarshal(payload, &cached); err == nil {
				return cached, nil
			}
		}
	}

	parsed, err := f.fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	source := content.Sanitize(parsed.Title)
	items := make([]content.Headline, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		title := content.Sanitize(it.Title)
		if title == "" {
			continue
		}
		items = append(items, content.Headline{Title: title, Link: strings.TrimSpace(it.Link), Source: source})
		if len(items) >= f.cfg.MaxItems {
			break
		}
	}

	if f.cache != nil {
		if payload, err := json.Marshal(items); err == nil {
			if err := f.cache.CachePut(ctx, endpointFeed, params, payload, f.cfg.CacheTTL); err != nil {
				f.log.Debug("feed cache write failed", logx.String("url", url), logx.Err(err))
			}
		}
	}
	return items, nil
}

func (f *Fetcher) fetch(ctx context.Context, url string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s returned status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read feed %s: %w", url, err)
	}
	parsed, err := f.parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", url, err)
	}
	return parsed, nil
}
