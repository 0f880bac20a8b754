package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Env overrides applied after the file is parsed.
const (
	EnvToken     = "BOT_TOKEN"
	EnvChannelID = "CHANNEL_ID"
)

// Load reads, decodes, normalizes and validates the config at path.
// The config is read once per process.
func Load(path string) (*Config, error) {
	cfg, err := Parse(path)
	if err != nil {
		return nil, err
	}
	applyEnv(cfg, os.Getenv)
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes the file strictly: unknown keys and trailing data are errors.
func Parse(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	jb, format, err := coerceToJSONBytes(path, b)
	if err != nil {
		return nil, err
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode %s config: %w", format, err)
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, errors.New("invalid config: trailing data")
		}
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvToken)); v != "" {
		cfg.Telegram.Token = v
	}
	if v := strings.TrimSpace(getenv(EnvChannelID)); v != "" {
		cfg.Telegram.ChannelID = v
	}
}

// Normalize fills defaults for omitted fields.
func (c *Config) Normalize() {
	def := func(p *string, v string) {
		if strings.TrimSpace(*p) == "" {
			*p = v
		}
	}
	def(&c.Telegram.PollTimeout, "10s")
	def(&c.Logging.Level, "info")
	def(&c.Storage.Path, "./data/bot.db")
	def(&c.Storage.BusyTimeout, "5s")

	s := &c.Schedule
	def(&s.QuickOffset, "5m")
	def(&s.FullOffset, "1m")
	def(&s.DailyAt, "09:00")
	def(&s.WeeklyDay, "monday")
	def(&s.WeeklyAt, "10:00")
	def(&s.StartupDelay, "10s")
	def(&s.HousekeepingOffset, "1h")
	def(&s.JobTimeout, "5m")

	n := &c.Notifier
	if n.RatePerSec <= 0 {
		n.RatePerSec = 20
	}
	if n.RetryMax <= 0 {
		n.RetryMax = 3
	}
	def(&n.RetryBase, "1s")
	def(&n.RetryMaxDelay, "30s")
	if n.FanoutWorkers <= 0 {
		n.FanoutWorkers = 8
	}
	if n.PreviewRunes <= 0 {
		n.PreviewRunes = 500
	}

	a := &c.SportsAPI
	def(&a.BaseURL, "https://www.thesportsdb.com/api/v1/json")
	def(&a.Key, "123")
	def(&a.LeagueID, "4480")
	def(&a.CacheTTL, "60m")
	def(&a.Timeout, "10s")

	def(&c.Feeds.CacheTTL, "30m")
	if c.Feeds.MaxItems <= 0 {
		c.Feeds.MaxItems = 20
	}
}

// Validate checks syntax of every duration, clock time and range.
// Credentials are checked by the caller that needs them.
func (c *Config) Validate() error {
	var errs []error
	for _, f := range c.durationFields() {
		if err := f.check(); err != nil {
			errs = append(errs, err)
		}
	}
	if _, _, err := ParseClock(c.Schedule.DailyAt); err != nil {
		errs = append(errs, fmt.Errorf("schedule.daily_at: %w", err))
	}
	if _, _, err := ParseClock(c.Schedule.WeeklyAt); err != nil {
		errs = append(errs, fmt.Errorf("schedule.weekly_at: %w", err))
	}
	if _, err := ParseWeekday(c.Schedule.WeeklyDay); err != nil {
		errs = append(errs, fmt.Errorf("schedule.weekly_day: %w", err))
	}
	if tz := strings.TrimSpace(c.Schedule.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			errs = append(errs, fmt.Errorf("schedule.timezone: %w", err))
		}
	}
	if strings.TrimSpace(c.Telegram.GroupLog) != "" {
		if _, err := strconv.ParseInt(strings.TrimSpace(c.Telegram.GroupLog), 10, 64); err != nil {
			errs = append(errs, fmt.Errorf("telegram.group_log: must be a numeric chat id"))
		}
	}
	return errors.Join(errs...)
}

// ParseClock parses "HH:MM" (24h).
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid clock time %q (want HH:MM)", s)
	}
	return t.Hour(), t.Minute(), nil
}

// ParseWeekday accepts English day names and their three-letter forms.
func ParseWeekday(s string) (time.Weekday, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if v == name || v == name[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", s)
}

// ChannelTarget resolves telegram.channel_id. Numeric ids return (id, "");
// @usernames return (0, username).
func (c *Config) ChannelTarget() (int64, string, error) {
	raw := strings.TrimSpace(c.Telegram.ChannelID)
	if raw == "" {
		return 0, "", errors.New("telegram.channel_id is required")
	}
	if strings.HasPrefix(raw, "@") {
		return 0, raw, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("telegram.channel_id: %w", err)
	}
	return id, "", nil
}

// Location resolves schedule.timezone; empty means the process-local zone.
func (s ScheduleConfig) Location() (*time.Location, error) {
	tz := strings.TrimSpace(s.Timezone)
	if tz == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("schedule.timezone: %w", err)
	}
	return loc, nil
}
