package sportsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/content"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/storage"
)

type event struct {
	HomeTeam  string  `json:"strHomeTeam"`
	AwayTeam  string  `json:"strAwayTeam"`
	Date      string  `json:"dateEvent"`
	Time      string  `json:"strTime"`
	League    string  `json:"strLeague"`
	Venue     string  `json:"strVenue"`
	Status    string  `json:"strStatus"`
	HomeScore flexInt `json:"intHomeScore"`
	AwayScore flexInt `json:"intAwayScore"`
}

type eventsResponse struct {
	Events []event `json:"events"`
}

// Match is one fixture with its result when known.
type Match struct {
	content.Fixture
	Day       string
	Status    string
	HomeScore *int
	AwayScore *int
}

// FetchFixtures returns the league's matches on day, ordered by kickoff.
func (c *Client) FetchFixtures(ctx context.Context, day time.Time) ([]Match, error) {
	d := storage.Day(day)
	body, err := c.get(ctx, endpointEvents, "eventsday.php", map[string]string{"d": d, "l": c.cfg.LeagueID})
	if err != nil {
		return nil, err
	}
	var resp eventsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("sportsapi events: decode: %w", err)
	}
	out := make([]Match, 0, len(resp.Events))
	for _, e := range resp.Events {
		home, away := content.Sanitize(e.HomeTeam), content.Sanitize(e.AwayTeam)
		if home == "" || away == "" {
			continue
		}
		m := Match{
			Fixture: content.Fixture{
				Home:       home,
				Away:       away,
				Kickoff:    kickoff(e.Time),
				Tournament: content.Sanitize(e.League),
				Venue:      content.Sanitize(e.Venue),
			},
			Day:    orDay(e.Date, d),
			Status: e.Status,
		}
		if e.HomeScore.Valid {
			v := e.HomeScore.V
			m.HomeScore = &v
		}
		if e.AwayScore.Valid {
			v := e.AwayScore.V
			m.AwayScore = &v
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Kickoff < out[j].Kickoff })
	return out, nil
}

// MatchSaver is the storage side of SyncFixtures.
type MatchSaver interface {
	SaveMatch(ctx context.Context, m storage.Match) (int64, error)
}

// SyncFixtures fetches day's matches and stores them.
func (c *Client) SyncFixtures(ctx context.Context, st MatchSaver, day time.Time) ([]content.Fixture, error) {
	matches, err := c.FetchFixtures(ctx, day)
	if err != nil {
		return nil, err
	}
	out := make([]content.Fixture, 0, len(matches))
	for _, m := range matches {
		if _, err := st.SaveMatch(ctx, storage.Match{
			HomeTeam:   m.Home,
			AwayTeam:   m.Away,
			Day:        m.Day,
			Kickoff:    m.Kickoff,
			Tournament: m.Tournament,
			Status:     m.Status,
			HomeScore:  m.HomeScore,
			AwayScore:  m.AwayScore,
		}); err != nil {
			return out, err
		}
		out = append(out, m.Fixture)
	}
	return out, nil
}

// kickoff trims "HH:MM:SS" (and "HH:MM:SS+00:00") to "HH:MM".
func kickoff(s string) string {
	if len(s) >= 5 && s[2] == ':' {
		return s[:5]
	}
	return s
}

func orDay(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
