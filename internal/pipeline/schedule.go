package pipeline

import (
	"fmt"
	"time"

	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/config"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/task/scheduler"
)

// Job names of the fixed job table.
const (
	JobQuickNews     = "quick_news"
	JobFullNews      = "full_news"
	JobDailyFixtures = "daily_fixtures"
	JobWeeklyTable   = "weekly_table"
	JobStartup       = "startup"
	JobHousekeeping  = "housekeeping"
)

const (
	quickPeriod        = 15 * time.Minute
	fullPeriod         = 30 * time.Minute
	housekeepingPeriod = 2 * time.Hour
)

// JobTable builds the job table from the schedule section and remembers it
// for the startup post.
func (p *Pipeline) JobTable(sc config.ScheduleConfig) ([]scheduler.JobSpec, error) {
	dur := func(path, raw string, def time.Duration) (time.Duration, error) {
		return config.ParseDurationOrDefault("schedule."+path, raw, def)
	}
	quickOff, err := dur("quick_offset", sc.QuickOffset, 5*time.Minute)
	if err != nil {
		return nil, err
	}
	fullOff, err := dur("full_offset", sc.FullOffset, time.Minute)
	if err != nil {
		return nil, err
	}
	startup, err := dur("startup_delay", sc.StartupDelay, 10*time.Second)
	if err != nil {
		return nil, err
	}
	hkOff, err := dur("housekeeping_offset", sc.HousekeepingOffset, time.Hour)
	if err != nil {
		return nil, err
	}
	timeout, err := dur("job_timeout", sc.JobTimeout, 5*time.Minute)
	if err != nil {
		return nil, err
	}
	dailyAt := orClock(sc.DailyAt, "09:00")
	weeklyAt := orClock(sc.WeeklyAt, "10:00")
	weekday := time.Monday
	if sc.WeeklyDay != "" {
		if weekday, err = config.ParseWeekday(sc.WeeklyDay); err != nil {
			return nil, fmt.Errorf("schedule.weekly_day: %w", err)
		}
	}

	specs := []scheduler.JobSpec{
		{Name: JobQuickNews, Kind: scheduler.KindInterval, Period: quickPeriod, Offset: quickOff, Timeout: timeout, Run: p.QuickNews},
		{Name: JobFullNews, Kind: scheduler.KindInterval, Period: fullPeriod, Offset: fullOff, Timeout: timeout, Run: p.FullNews},
		{Name: JobDailyFixtures, Kind: scheduler.KindDaily, At: dailyAt, Timeout: timeout, Run: p.DailyFixtures},
		{Name: JobWeeklyTable, Kind: scheduler.KindWeekly, Weekday: weekday, At: weeklyAt, Timeout: timeout, Run: p.WeeklyTable},
		{Name: JobStartup, Kind: scheduler.KindOnce, Offset: startup, Timeout: timeout, Run: p.Startup},
		{Name: JobHousekeeping, Kind: scheduler.KindInterval, Period: housekeepingPeriod, Offset: hkOff, Timeout: timeout, Run: p.Housekeeping},
	}

	p.schedule = []string{
		"Срочные новости: каждые 15 минут",
		"Полные новости: каждые 30 минут",
		"Матчи: ежедневно в " + dailyAt,
		"Таблица: " + weekdaysRU[weekday] + " в " + weeklyAt,
	}
	return specs, nil
}

var weekdaysRU = [...]string{"воскресенье", "понедельник", "вторник", "среда", "четверг", "пятница", "суббота"}

func orClock(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
