package config

type Config struct {
	Telegram  TelegramConfig  `json:"telegram"`
	Logging   LoggingConfig   `json:"logging"`
	Storage   StorageConfig   `json:"storage"`
	Schedule  ScheduleConfig  `json:"schedule"`
	Notifier  NotifierConfig  `json:"notifier"`
	Content   ContentConfig   `json:"content"`
	SportsAPI SportsAPIConfig `json:"sportsapi"`
	Feeds     FeedsConfig     `json:"feeds"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// ChannelID is the primary channel: a numeric chat id or an @username.
	ChannelID    string  `json:"channel_id"`
	OwnerUserIDs []int64 `json:"owner_user_ids,omitempty"`
	// GroupLog is an optional operator chat id for warning/error log mirroring.
	GroupLog string `json:"group_log,omitempty"`
	// PollTimeout is a Go duration string (e.g. "10s").
	PollTimeout string `json:"poll_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
	Chat    LoggingChat `json:"chat"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type LoggingChat struct {
	Enabled    bool   `json:"enabled"`
	ThreadID   int    `json:"thread_id,omitempty"`
	MinLevel   string `json:"min_level,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
}

// StorageConfig points at the SQLite database file.
//
//	"storage": { "path": "./data/bot.db", "busy_timeout": "5s" }
type StorageConfig struct {
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

// ScheduleConfig tunes the fixed job table. Every duration is a Go duration
// string; omitted values keep the built-in schedule.
//
// Defaults:
//   - quick_offset: "5m"   (allowed 1m..5m)
//   - full_offset: "1m"    (allowed 1m..2m)
//   - daily_at: "09:00"
//   - weekly_day: "monday", weekly_at: "10:00"
//   - startup_delay: "10s"
//   - housekeeping_offset: "1h"
//   - job_timeout: "5m"
type ScheduleConfig struct {
	Timezone           string `json:"timezone,omitempty"`
	QuickOffset        string `json:"quick_offset,omitempty"`
	FullOffset         string `json:"full_offset,omitempty"`
	DailyAt            string `json:"daily_at,omitempty"`
	WeeklyDay          string `json:"weekly_day,omitempty"`
	WeeklyAt           string `json:"weekly_at,omitempty"`
	StartupDelay       string `json:"startup_delay,omitempty"`
	HousekeepingOffset string `json:"housekeeping_offset,omitempty"`
	JobTimeout         string `json:"job_timeout,omitempty"`
}

// NotifierConfig controls channel delivery and subscriber fan-out.
type NotifierConfig struct {
	RatePerSec    int    `json:"rate_per_sec,omitempty"`
	RetryMax      int    `json:"retry_max,omitempty"`
	RetryBase     string `json:"retry_base,omitempty"`
	RetryMaxDelay string `json:"retry_max_delay,omitempty"`
	FanoutWorkers int    `json:"fanout_workers,omitempty"`
	PreviewRunes  int    `json:"preview_runes,omitempty"`
}

type ContentConfig struct {
	// CatalogPath is an optional YAML file overriding the built-in teams/players.
	// It is watched and reloaded on change.
	CatalogPath string `json:"catalog_path,omitempty"`
	// Seed fixes the random source (0 = time based).
	Seed int64 `json:"seed,omitempty"`
}

type SportsAPIConfig struct {
	Enabled  bool   `json:"enabled"`
	BaseURL  string `json:"base_url,omitempty"`
	Key      string `json:"key,omitempty"`
	LeagueID string `json:"league_id,omitempty"`
	Season   string `json:"season,omitempty"`
	CacheTTL string `json:"cache_ttl,omitempty"`
	Timeout  string `json:"timeout,omitempty"`
}

type FeedsConfig struct {
	Enabled  bool     `json:"enabled"`
	URLs     []string `json:"urls,omitempty"`
	CacheTTL string   `json:"cache_ttl,omitempty"`
	MaxItems int      `json:"max_items,omitempty"`
}
