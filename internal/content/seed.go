package content

import (
	"html"
	"strings"

	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/catalog"

	"github.com/microcosm-cc/bluemonday"
)

// Fixture is one scheduled match used as real seed data.
type Fixture struct {
	Home       string
	Away       string
	Kickoff    string
	Tournament string
	Channel    string
	Venue      string
}

// Headline is an external news item (feeds) used as real seed data.
type Headline struct {
	Title  string
	Link   string
	Source string
}

// Standing is one league table row.
type Standing struct {
	Team         string
	Position     int
	Played       int
	Won          int
	Drawn        int
	Lost         int
	GoalsFor     int
	GoalsAgainst int
	Points       int
}

func (s Standing) GoalDifference() int { return s.GoalsFor - s.GoalsAgainst }

type Venue struct {
	City    string
	Stadium string
}

// Seed is the context a template draws names and facts from. Empty pools fall
// back to the built-in catalog.
type Seed struct {
	Teams        []string
	Players      []string
	Tournaments  []string
	Channels     []string
	Achievements []string
	Rosters      map[string][]string // team -> players
	Venues       map[string]Venue

	Fixtures  []Fixture
	Standings []Standing
	Headlines []Headline
}

// SeedFromCatalog builds the name pools of a seed from catalog data.
func SeedFromCatalog(d catalog.Data) Seed {
	s := Seed{
		Teams:        d.TeamNames(),
		Players:      d.PlayerNames(),
		Tournaments:  d.Tournaments,
		Channels:     d.Channels,
		Achievements: d.Achievements,
		Rosters:      map[string][]string{},
		Venues:       map[string]Venue{},
	}
	for _, t := range d.Teams {
		s.Venues[t.Name] = Venue{City: t.City, Stadium: t.Stadium}
	}
	for _, p := range d.Players {
		if p.Team != "" {
			s.Rosters[p.Team] = append(s.Rosters[p.Team], p.Name)
		}
	}
	return s
}

func (s Seed) withDefaults() Seed {
	if len(s.Teams) == 0 || len(s.Players) == 0 || len(s.Tournaments) == 0 ||
		len(s.Channels) == 0 || len(s.Achievements) == 0 {
		def := builtinSeed
		if len(s.Teams) == 0 {
			s.Teams = def.Teams
			if s.Venues == nil {
				s.Venues = def.Venues
			}
		}
		if len(s.Players) == 0 {
			s.Players = def.Players
			if s.Rosters == nil {
				s.Rosters = def.Rosters
			}
		}
		if len(s.Tournaments) == 0 {
			s.Tournaments = def.Tournaments
		}
		if len(s.Channels) == 0 {
			s.Channels = def.Channels
		}
		if len(s.Achievements) == 0 {
			s.Achievements = def.Achievements
		}
	}
	return s
}

var builtinSeed = SeedFromCatalog(catalog.Builtin())

var strict = bluemonday.StrictPolicy()

// Sanitize strips markup from external text and returns plain text.
func Sanitize(s string) string {
	s = html.UnescapeString(strict.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}

func (s Seed) teamOf(player string) string {
	for team, players := range s.Rosters {
		for _, p := range players {
			if p == player {
				return team
			}
		}
	}
	return ""
}
