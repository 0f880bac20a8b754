package storage

import (
	"context"
	"time"
)

// Day formats t as the bot_stats calendar day.
func Day(t time.Time) string { return t.Format("2006-01-02") }

// RecordStat appends one stat row for today.
func (s *Store) RecordStat(ctx context.Context, statType string, value int64) error {
	now := s.now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bot_stats(stat_type, stat_value, day, created_at) VALUES(?,?,?,?)`,
		statType, value, Day(now), ms(now),
	)
	return wrap("record stat", err)
}

// StatsForDay sums stat values per type for one day ("" means all time).
func (s *Store) StatsForDay(ctx context.Context, day string) (map[string]int64, error) {
	q := `SELECT stat_type, SUM(stat_value) FROM bot_stats`
	args := []any{}
	if day != "" {
		q += ` WHERE day = ?`
		args = append(args, day)
	}
	q += ` GROUP BY stat_type`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, wrap("stats for day", err)
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var (
			typ string
			sum int64
		)
		if err := rows.Scan(&typ, &sum); err != nil {
			return nil, wrap("stats for day", err)
		}
		out[typ] = sum
	}
	return out, wrap("stats for day", rows.Err())
}
