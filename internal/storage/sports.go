package storage

import (
	"context"
	"database/sql"
	"strings"
)

// UpsertTeams stores reference team data, keyed by name. Empty fields keep
// the stored value.
func (s *Store) UpsertTeams(ctx context.Context, teams []Team) error {
	return s.inTx(ctx, "upsert teams", func(tx *sql.Tx) error {
		now := ms(s.dbNow())
		for _, t := range teams {
			if strings.TrimSpace(t.Name) == "" {
				continue
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO teams(name, city, founded, stadium, updated_at) VALUES(?,?,?,?,?)
				 ON CONFLICT(name) DO UPDATE SET
				   city = COALESCE(NULLIF(excluded.city, ''), teams.city),
				   founded = CASE WHEN excluded.founded > 0 THEN excluded.founded ELSE teams.founded END,
				   stadium = COALESCE(NULLIF(excluded.stadium, ''), teams.stadium),
				   updated_at = excluded.updated_at`,
				t.Name, t.City, t.Founded, t.Stadium, now)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) Teams(ctx context.Context) ([]Team, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, city, founded, stadium FROM teams ORDER BY name`)
	if err != nil {
		return nil, wrap("teams", err)
	}
	defer rows.Close()
	var out []Team
	for rows.Next() {
		var t Team
		if err := rows.Scan(&t.Name, &t.City, &t.Founded, &t.Stadium); err != nil {
			return nil, wrap("teams", err)
		}
		out = append(out, t)
	}
	return out, wrap("teams", rows.Err())
}

// UpsertPlayers stores reference player data, keyed by name.
func (s *Store) UpsertPlayers(ctx context.Context, players []Player) error {
	return s.inTx(ctx, "upsert players", func(tx *sql.Tx) error {
		for _, p := range players {
			if strings.TrimSpace(p.Name) == "" {
				continue
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO players(name, team, position, nationality) VALUES(?,?,?,?)
				 ON CONFLICT(name) DO UPDATE SET
				   team = excluded.team, position = excluded.position, nationality = excluded.nationality`,
				p.Name, p.Team, p.Position, p.Nationality)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) Players(ctx context.Context) ([]Player, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, team, position, nationality FROM players ORDER BY name`)
	if err != nil {
		return nil, wrap("players", err)
	}
	defer rows.Close()
	var out []Player
	for rows.Next() {
		var p Player
		if err := rows.Scan(&p.Name, &p.Team, &p.Position, &p.Nationality); err != nil {
			return nil, wrap("players", err)
		}
		out = append(out, p)
	}
	return out, wrap("players", rows.Err())
}

// UpsertStandings replaces rows of a (league, season) table.
func (s *Store) UpsertStandings(ctx context.Context, rows []StandingRow) error {
	return s.inTx(ctx, "upsert standings", func(tx *sql.Tx) error {
		now := ms(s.dbNow())
		for _, r := range rows {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO league_table(team, league, season, position, played, won, drawn, lost,
				   goals_for, goals_against, goal_difference, points, updated_at)
				 VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)
				 ON CONFLICT(team, league, season) DO UPDATE SET
				   position = excluded.position, played = excluded.played, won = excluded.won,
				   drawn = excluded.drawn, lost = excluded.lost, goals_for = excluded.goals_for,
				   goals_against = excluded.goals_against, goal_difference = excluded.goal_difference,
				   points = excluded.points, updated_at = excluded.updated_at`,
				r.Team, r.League, r.Season, r.Position, r.Played, r.Won, r.Drawn, r.Lost,
				r.GoalsFor, r.GoalsAgainst, r.GoalDifference, r.Points, now)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Standings returns a league table ordered by position.
func (s *Store) Standings(ctx context.Context, league, season string) ([]StandingRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT team, league, season, position, played, won, drawn, lost,
		        goals_for, goals_against, goal_difference, points
		 FROM league_table WHERE league = ? AND season = ? ORDER BY position, team`, league, season)
	if err != nil {
		return nil, wrap("standings", err)
	}
	defer rows.Close()
	var out []StandingRow
	for rows.Next() {
		var r StandingRow
		if err := rows.Scan(&r.Team, &r.League, &r.Season, &r.Position, &r.Played, &r.Won, &r.Drawn,
			&r.Lost, &r.GoalsFor, &r.GoalsAgainst, &r.GoalDifference, &r.Points); err != nil {
			return nil, wrap("standings", err)
		}
		out = append(out, r)
	}
	return out, wrap("standings", rows.Err())
}

// SaveMatch inserts or updates a fixture keyed by (home, away, day) and returns its id.
func (s *Store) SaveMatch(ctx context.Context, m Match) (int64, error) {
	if m.Status == "" {
		m.Status = "scheduled"
	}
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO matches(home_team, away_team, match_day, kickoff, tournament, tv_channel, status, home_score, away_score)
		 VALUES(?,?,?,?,?,?,?,?,?)
		 ON CONFLICT(home_team, away_team, match_day) DO UPDATE SET
		   kickoff = excluded.kickoff, tournament = excluded.tournament, tv_channel = excluded.tv_channel,
		   status = excluded.status, home_score = excluded.home_score, away_score = excluded.away_score
		 RETURNING id`,
		m.HomeTeam, m.AwayTeam, m.Day, m.Kickoff, m.Tournament, m.TVChannel, m.Status,
		intPtr(m.HomeScore), intPtr(m.AwayScore),
	).Scan(&id)
	return id, wrap("save match", err)
}

// MatchesOn lists fixtures of one calendar day ordered by kickoff.
func (s *Store) MatchesOn(ctx context.Context, day string) ([]Match, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, home_team, away_team, match_day, kickoff, tournament, tv_channel, status, home_score, away_score
		 FROM matches WHERE match_day = ? ORDER BY kickoff, id`, day)
	if err != nil {
		return nil, wrap("matches on", err)
	}
	defer rows.Close()
	var out []Match
	for rows.Next() {
		var (
			m          Match
			home, away sql.NullInt64
		)
		if err := rows.Scan(&m.ID, &m.HomeTeam, &m.AwayTeam, &m.Day, &m.Kickoff, &m.Tournament,
			&m.TVChannel, &m.Status, &home, &away); err != nil {
			return nil, wrap("matches on", err)
		}
		m.HomeScore = fromNull(home)
		m.AwayScore = fromNull(away)
		out = append(out, m)
	}
	return out, wrap("matches on", rows.Err())
}

func intPtr(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func fromNull(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func (s *Store) inTx(ctx context.Context, op string, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap(op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return wrap(op, err)
	}
	return wrap(op, tx.Commit())
}
