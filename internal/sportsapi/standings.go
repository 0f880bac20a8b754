package sportsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/content"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/storage"
	logx "github.com/Dmitry77701/saudi-football-bot-advanced/pkg/logx"
)

type tableRow struct {
	Rank         flexInt `json:"intRank"`
	Team         string  `json:"strTeam"`
	Played       flexInt `json:"intPlayed"`
	Win          flexInt `json:"intWin"`
	Draw         flexInt `json:"intDraw"`
	Loss         flexInt `json:"intLoss"`
	GoalsFor     flexInt `json:"intGoalsFor"`
	GoalsAgainst flexInt `json:"intGoalsAgainst"`
	Points       flexInt `json:"intPoints"`
	Season       string  `json:"strSeason"`
}

type tableResponse struct {
	Table []tableRow `json:"table"`
}

// FetchStandings returns the league table ordered by position.
func (c *Client) FetchStandings(ctx context.Context, leagueID string) ([]content.Standing, error) {
	if leagueID == "" {
		leagueID = c.cfg.LeagueID
	}
	params := map[string]string{"l": leagueID}
	if c.cfg.Season != "" {
		params["s"] = c.cfg.Season
	}
	body, err := c.get(ctx, endpointStandings, "lookuptable.php", params)
	if err != nil {
		return nil, err
	}
	var resp tableResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("sportsapi standings: decode: %w", err)
	}
	out := make([]content.Standing, 0, len(resp.Table))
	for _, r := range resp.Table {
		team := content.Sanitize(r.Team)
		if team == "" {
			continue
		}
		out = append(out, content.Standing{
			Team:         team,
			Position:     r.Rank.V,
			Played:       r.Played.V,
			Won:          r.Win.V,
			Drawn:        r.Draw.V,
			Lost:         r.Loss.V,
			GoalsFor:     r.GoalsFor.V,
			GoalsAgainst: r.GoalsAgainst.V,
			Points:       r.Points.V,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

// StandingsStore is the storage side of SyncStandings.
type StandingsStore interface {
	UpsertStandings(ctx context.Context, rows []storage.StandingRow) error
	UpsertTeams(ctx context.Context, teams []storage.Team) error
}

// SyncStandings fetches the table and persists it with the team names it mentions.
func (c *Client) SyncStandings(ctx context.Context, st StandingsStore) ([]content.Standing, error) {
	rows, err := c.FetchStandings(ctx, c.cfg.LeagueID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	season := c.cfg.Season
	if season == "" {
		season = "current"
	}
	srows := make([]storage.StandingRow, 0, len(rows))
	teams := make([]storage.Team, 0, len(rows))
	for _, r := range rows {
		srows = append(srows, storage.StandingRow{
			Team:           r.Team,
			League:         c.cfg.LeagueID,
			Season:         season,
			Position:       r.Position,
			Played:         r.Played,
			Won:            r.Won,
			Drawn:          r.Drawn,
			Lost:           r.Lost,
			GoalsFor:       r.GoalsFor,
			GoalsAgainst:   r.GoalsAgainst,
			GoalDifference: r.GoalDifference(),
			Points:         r.Points,
		})
		teams = append(teams, storage.Team{Name: r.Team})
	}
	if err := st.UpsertTeams(ctx, teams); err != nil {
		return rows, err
	}
	if err := st.UpsertStandings(ctx, srows); err != nil {
		return rows, err
	}
	c.log.Info("standings synced", logx.String("league", c.cfg.LeagueID), logx.String("season", season), logx.Int("rows", len(srows)))
	return rows, nil
}

// StandingsFromStore converts stored rows back to content rows.
func StandingsFromStore(rows []storage.StandingRow) []content.Standing {
	out := make([]content.Standing, 0, len(rows))
	for _, r := range rows {
		if strings.TrimSpace(r.Team) == "" {
			continue
		}
		out = append(out, content.Standing{
			Team: r.Team, Position: r.Position, Played: r.Played,
			Won: r.Won, Drawn: r.Drawn, Lost: r.Lost,
			GoalsFor: r.GoalsFor, GoalsAgainst: r.GoalsAgainst, Points: r.Points,
		})
	}
	return out
}
