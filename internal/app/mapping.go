package app

import (
	"strconv"
	"strings"
	"time"

	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/config"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/feeds"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/notifier"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/sportsapi"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/storage"
	kit "github.com/Dmitry77701/saudi-football-bot-advanced/internal/transport"
	logx "github.com/Dmitry77701/saudi-football-bot-advanced/pkg/logx"
)

// The mappers below assume cfg passed Normalize and Validate, so duration
// strings are present and well formed; the errors still surface typos when a
// caller skips validation.

func mapStorageConfig(cfg *config.Config) (storage.Config, error) {
	busy, err := config.ParseDurationOrDefault("storage.busy_timeout", cfg.Storage.BusyTimeout, 5*time.Second)
	if err != nil {
		return storage.Config{}, err
	}
	return storage.Config{Path: strings.TrimSpace(cfg.Storage.Path), BusyTimeout: busy}, nil
}

func mapNotifierConfig(cfg *config.Config) (notifier.Config, error) {
	n := cfg.Notifier
	base, err := config.ParseDurationOrDefault("notifier.retry_base", n.RetryBase, time.Second)
	if err != nil {
		return notifier.Config{}, err
	}
	maxDelay, err := config.ParseDurationOrDefault("notifier.retry_max_delay", n.RetryMaxDelay, 30*time.Second)
	if err != nil {
		return notifier.Config{}, err
	}
	return notifier.Config{
		RatePerSec:    n.RatePerSec,
		RetryMax:      n.RetryMax,
		RetryBase:     base,
		RetryMaxDelay: maxDelay,
		FanoutWorkers: n.FanoutWorkers,
		PreviewRunes:  n.PreviewRunes,
	}, nil
}

func mapSportsConfig(cfg *config.Config) (sportsapi.Config, error) {
	a := cfg.SportsAPI
	ttl, err := config.ParseDurationOrDefault("sportsapi.cache_ttl", a.CacheTTL, storage.DefaultCacheTTL)
	if err != nil {
		return sportsapi.Config{}, err
	}
	timeout, err := config.ParseDurationOrDefault("sportsapi.timeout", a.Timeout, 10*time.Second)
	if err != nil {
		return sportsapi.Config{}, err
	}
	return sportsapi.Config{
		Enabled:  a.Enabled,
		BaseURL:  a.BaseURL,
		Key:      a.Key,
		LeagueID: a.LeagueID,
		Season:   a.Season,
		CacheTTL: ttl,
		Timeout:  timeout,
	}, nil
}

func mapFeedsConfig(cfg *config.Config) (feeds.Config, error) {
	ttl, err := config.ParseDurationOrDefault("feeds.cache_ttl", cfg.Feeds.CacheTTL, 30*time.Minute)
	if err != nil {
		return feeds.Config{}, err
	}
	return feeds.Config{URLs: cfg.Feeds.URLs, CacheTTL: ttl, MaxItems: cfg.Feeds.MaxItems}, nil
}

func mapLogConfig(cfg *config.Config) logx.Config {
	l := cfg.Logging
	lc := logx.Config{
		Level:   l.Level,
		Console: l.Console,
		File:    logx.FileConfig{Enabled: l.File.Enabled, Path: l.File.Path},
		Chat: logx.ChatConfig{
			Enabled:    l.Chat.Enabled,
			ThreadID:   l.Chat.ThreadID,
			MinLevel:   l.Chat.MinLevel,
			RatePerSec: l.Chat.RatePerSec,
		},
	}
	if raw := strings.TrimSpace(cfg.Telegram.GroupLog); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			lc.Chat.ChatID = id
		}
	}
	return lc
}

func channelTarget(cfg *config.Config) (kit.ChatTarget, error) {
	id, username, err := cfg.ChannelTarget()
	if err != nil {
		return kit.ChatTarget{}, err
	}
	return kit.ChatTarget{ChatID: id, Username: username}, nil
}
