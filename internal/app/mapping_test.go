package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/config"
)

func normalized(mut func(*config.Config)) *config.Config {
	cfg := &config.Config{}
	cfg.Telegram.ChannelID = "@saudi_football"
	if mut != nil {
		mut(cfg)
	}
	cfg.Normalize()
	return cfg
}

func TestMapNotifierConfig(t *testing.T) {
	t.Parallel()
	cfg := normalized(func(c *config.Config) { c.Notifier.RetryBase = "250ms" })
	nc, err := mapNotifierConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if nc.RetryBase != 250*time.Millisecond || nc.RetryMaxDelay != 30*time.Second || nc.RatePerSec != 20 || nc.FanoutWorkers != 8 {
		t.Fatalf("notifier = %+v", nc)
	}

	cfg.Notifier.RetryMaxDelay = "soon"
	if _, err := mapNotifierConfig(cfg); err == nil {
		t.Fatal("want error for bad duration")
	}
}

func TestMapLogConfigGroupLog(t *testing.T) {
	t.Parallel()
	tests := []struct {
		groupLog string
		want     int64
	}{
		{"-100123", -100123},
		{"", 0},
		{"ops", 0},
	}
	for _, tt := range tests {
		cfg := normalized(func(c *config.Config) {
			c.Telegram.GroupLog = tt.groupLog
			c.Logging.Chat.Enabled = true
		})
		lc := mapLogConfig(cfg)
		if lc.Chat.ChatID != tt.want || !lc.Chat.Enabled || lc.Level != "info" {
			t.Fatalf("group_log %q: %+v", tt.groupLog, lc)
		}
	}
}

func TestMapSportsAndFeeds(t *testing.T) {
	t.Parallel()
	cfg := normalized(func(c *config.Config) {
		c.SportsAPI.Enabled = true
		c.SportsAPI.CacheTTL = "2h"
		c.Feeds.URLs = []string{"https://example.org/rss"}
	})
	sc, err := mapSportsConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !sc.Enabled || sc.CacheTTL != 2*time.Hour || sc.LeagueID != "4480" || sc.Timeout != 10*time.Second {
		t.Fatalf("sports = %+v", sc)
	}
	fc, err := mapFeedsConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if fc.CacheTTL != 30*time.Minute || fc.MaxItems != 20 || len(fc.URLs) != 1 {
		t.Fatalf("feeds = %+v", fc)
	}
}

func TestChannelTarget(t *testing.T) {
	t.Parallel()
	to, err := channelTarget(normalized(nil))
	if err != nil || to.Username != "@saudi_football" || to.ChatID != 0 {
		t.Fatalf("target = %+v, %v", to, err)
	}
	to, err = channelTarget(normalized(func(c *config.Config) { c.Telegram.ChannelID = "-1001" }))
	if err != nil || to.ChatID != -1001 {
		t.Fatalf("target = %+v, %v", to, err)
	}
}

func TestNewRequiresToken(t *testing.T) {
	t.Parallel()
	_, err := New(context.Background(), normalized(nil))
	if err == nil || !strings.Contains(err.Error(), "telegram.token") {
		t.Fatalf("err = %v", err)
	}
}
