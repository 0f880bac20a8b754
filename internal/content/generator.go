// Package content fabricates candidate posts from template pools.
//
// Generation never fails: unresolvable placeholders and empty pools fall back
// to generic values. All randomness comes from an injected Random.
package content

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"
)

// Generator is safe for concurrent use; calls serialize on the random source.
type Generator struct {
	mu  sync.Mutex
	rnd Random
}

// New returns a generator over r. A nil r uses a time-seeded source.
func New(r Random) *Generator {
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{rnd: r}
}

// NewSeeded returns a generator with a deterministic source (seed 0 means time-seeded).
func NewSeeded(seed int64) *Generator {
	if seed == 0 {
		return New(nil)
	}
	return New(rand.New(rand.NewSource(seed)))
}

// Generate produces one candidate of kind. Unknown kinds use the quick pool.
func (g *Generator) Generate(kind Kind, seed Seed) Candidate {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.generateLocked(kind, seed)
}

func (g *Generator) generateLocked(kind Kind, seed Seed) Candidate {
	if kind == Quick && (len(seed.Fixtures) > 0 || len(seed.Headlines) > 0) && g.rnd.Intn(2) == 0 {
		return realQuick(g.rnd, seed)
	}
	pool := templates[kind]
	if len(pool) == 0 {
		kind = Quick
		pool = templates[Quick]
	}
	return pool[g.rnd.Intn(len(pool))].Fill(kind, g.rnd, seed)
}

// Batch produces n candidates of kind; n <= 0 means a random 3..5.
func (g *Generator) Batch(kind Kind, seed Seed, n int) []Candidate {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n <= 0 {
		n = between(g.rnd, 3, 5)
	}
	out := make([]Candidate, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, g.generateLocked(kind, seed))
	}
	return out
}

// realQuick builds a quick post from today's fixtures or an external headline.
func realQuick(r Random, s Seed) Candidate {
	useFixture := len(s.Fixtures) > 0 && (len(s.Headlines) == 0 || r.Intn(2) == 0)
	if useFixture {
		f := s.Fixtures[r.Intn(len(s.Fixtures))]
		home, away := orDefault(f.Home, fallbackTeam), orDefault(f.Away, fallbackTeam)
		titles := []string{
			"🔥 Подготовка к матчу: " + home + " vs " + away + " в " + orDefault(f.Kickoff, "--:--"),
			"⚽ Последние новости перед игрой " + home + " - " + away,
			"📺 Матч " + home + " против " + away + " покажет " + orDefault(f.Channel, "SSC Sport 1"),
		}
		body := "Команды активно готовятся к предстоящему матчу в рамках турнира «" +
			orDefault(f.Tournament, "Саудовская Про Лига") + "». Болельщики с нетерпением ждут начала игры."
		return Candidate{
			Kind:       Quick,
			Title:      titles[r.Intn(len(titles))],
			Body:       body,
			Summary:    Summarize(body),
			Tags:       mergeTags([]string{"матч дня"}, []string{home, away}),
			Importance: 2,
			Source:     "database",
		}
	}

	h := s.Headlines[r.Intn(len(s.Headlines))]
	title := Sanitize(h.Title)
	if title == "" {
		title = "Новости саудовского футбола"
	}
	body := "📰 " + title
	if src := Sanitize(h.Source); src != "" {
		body += "\nИсточник: " + src
	}
	var ents []string
	for _, name := range s.withDefaults().Teams {
		if strings.Contains(title, name) {
			ents = append(ents, name)
		}
	}
	return Candidate{
		Kind:       Quick,
		Title:      "📰 " + title,
		Body:       body,
		Summary:    Summarize(body),
		Tags:       mergeTags([]string{"новости"}, ents),
		Importance: 2,
		Source:     "feed",
	}
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// Fixtures invents up to four matches for a day without real data. It returns
// no matches about one day in five.
func (g *Generator) Fixtures(seed Seed) []Fixture {
	g.mu.Lock()
	defer g.mu.Unlock()
	r := g.rnd
	s := seed.withDefaults()
	if r.Intn(5) == 0 {
		return nil
	}
	n := between(r, 1, 4)
	free := append([]string(nil), s.Teams...)
	out := make([]Fixture, 0, n)
	for i := 0; i < n && len(free) >= 2; i++ {
		hi := r.Intn(len(free))
		home := free[hi]
		free = append(free[:hi], free[hi+1:]...)
		ai := r.Intn(len(free))
		away := free[ai]
		free = append(free[:ai], free[ai+1:]...)

		minutes := "00"
		if r.Intn(2) == 1 {
			minutes = "30"
		}
		out = append(out, Fixture{
			Home:       home,
			Away:       away,
			Kickoff:    fmt.Sprintf("%02d:%s", between(r, 15, 22), minutes),
			Tournament: pick(r, s.Tournaments, fallbackValue),
			Channel:    pick(r, s.Channels, fallbackValue),
			Venue:      s.Venues[home].Stadium,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Kickoff < out[j].Kickoff })
	return out
}

// Table invents a plausible league table for the seed's teams, sorted by
// points then goal difference.
func (g *Generator) Table(seed Seed) []Standing {
	g.mu.Lock()
	defer g.mu.Unlock()
	r := g.rnd
	s := seed.withDefaults()
	out := make([]Standing, 0, len(s.Teams))
	for i, team := range s.Teams {
		played := between(r, 25, 30)
		won := max(0, between(r, 8, 20)-i)
		lost := max(0, between(r, 2, 12)+i/2)
		if won+lost > played {
			lost = played - won
		}
		drawn := played - won - lost
		out = append(out, Standing{
			Team:         team,
			Played:       played,
			Won:          won,
			Drawn:        drawn,
			Lost:         lost,
			GoalsFor:     won*between(r, 1, 3) + drawn*between(r, 0, 2),
			GoalsAgainst: lost*between(r, 1, 3) + drawn*between(r, 0, 2),
			Points:       won*3 + drawn,
		})
	}
	SortStandings(out)
	return out
}

// SortStandings orders rows by points, then goal difference, then goals
// scored, and renumbers positions from 1.
func SortStandings(rows []Standing) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDifference() != b.GoalDifference() {
			return a.GoalDifference() > b.GoalDifference()
		}
		return a.GoalsFor > b.GoalsFor
	})
	for i := range rows {
		rows[i].Position = i + 1
	}
}
