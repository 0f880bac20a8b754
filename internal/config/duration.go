package config

import (
	"fmt"
	"strings"
	"time"
)

// durationField is one duration setting. Bounds apply only when hi > 0.
type durationField struct {
	path   string
	raw    string
	lo, hi time.Duration
}

// durationFields lists every duration setting in report order.
func (c *Config) durationFields() []durationField {
	return []durationField{
		{path: "telegram.poll_timeout", raw: c.Telegram.PollTimeout},
		{path: "storage.busy_timeout", raw: c.Storage.BusyTimeout},
		{path: "schedule.quick_offset", raw: c.Schedule.QuickOffset, lo: time.Minute, hi: 5 * time.Minute},
		{path: "schedule.full_offset", raw: c.Schedule.FullOffset, lo: time.Minute, hi: 2 * time.Minute},
		{path: "schedule.startup_delay", raw: c.Schedule.StartupDelay},
		{path: "schedule.housekeeping_offset", raw: c.Schedule.HousekeepingOffset},
		{path: "schedule.job_timeout", raw: c.Schedule.JobTimeout},
		{path: "notifier.retry_base", raw: c.Notifier.RetryBase},
		{path: "notifier.retry_max_delay", raw: c.Notifier.RetryMaxDelay},
		{path: "sportsapi.cache_ttl", raw: c.SportsAPI.CacheTTL},
		{path: "sportsapi.timeout", raw: c.SportsAPI.Timeout},
		{path: "feeds.cache_ttl", raw: c.Feeds.CacheTTL},
	}
}

func (f durationField) check() error {
	d, err := ParseDurationField(f.path, f.raw)
	if err != nil {
		return err
	}
	if f.hi > 0 && (d < f.lo || d > f.hi) {
		return fmt.Errorf("%s: %s outside allowed range %s..%s", f.path, d, f.lo, f.hi)
	}
	return nil
}

// ParseDurationField parses a Go duration string. Blank means unset and
// yields 0; negative values are rejected.
func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

// ParseDurationOrDefault is ParseDurationField with def for unset or zero values.
func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil || d > 0 {
		return d, err
	}
	return def, nil
}
