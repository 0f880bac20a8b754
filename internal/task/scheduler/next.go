package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

var stdParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// parseHHMM parses "HH:MM" (24h).
func parseHHMM(s string) (int, int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	hh, err1 := strconv.Atoi(h)
	mm, err2 := strconv.Atoi(m)
	if err1 != nil || err2 != nil || hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0, 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	return hh, mm, nil
}

// cronSpec returns the 5-field cron expression of a daily or weekly job.
func cronSpec(spec JobSpec) (string, error) {
	h, m, err := parseHHMM(spec.At)
	if err != nil {
		return "", err
	}
	switch spec.Kind {
	case KindDaily:
		return fmt.Sprintf("%d %d * * *", m, h), nil
	case KindWeekly:
		return fmt.Sprintf("%d %d * * %d", m, h, int(spec.Weekday)), nil
	}
	return "", fmt.Errorf("kind %q has no cron form", spec.Kind)
}

// nextInterval returns the first start+offset+N*period strictly after now
// (or start+offset itself when that is still ahead).
func nextInterval(start time.Time, offset, period time.Duration, now time.Time) time.Time {
	base := start.Add(offset)
	if now.Before(base) {
		return base
	}
	n := now.Sub(base)/period + 1
	return base.Add(n * period)
}

func describe(spec JobSpec) string {
	switch spec.Kind {
	case KindInterval:
		return fmt.Sprintf("every %s, offset %s", spec.Period, spec.Offset)
	case KindDaily:
		return "daily at " + spec.At
	case KindWeekly:
		return spec.Weekday.String() + " at " + spec.At
	case KindOnce:
		return "once after " + spec.Offset.String()
	}
	return string(spec.Kind)
}
