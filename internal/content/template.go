package content

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// MaxTags bounds Candidate.Tags.
	MaxTags = 5

	summaryRunes = 100

	fallbackTeam   = "команда"
	fallbackPlayer = "игрок"
	fallbackValue  = "0"
)

// Candidate is a generated post that has not been checked for novelty yet.
type Candidate struct {
	Kind       Kind
	Title      string
	Body       string
	Summary    string
	Tags       []string
	Importance int
	Source     string
}

// Template is one variant of a kind. Title and Body may reference
// placeholders in braces; Bodies, when set, supplies alternative bodies of
// which one is chosen per fill.
type Template struct {
	Name       string
	Title      string
	Body       string
	Bodies     []string
	Tags       []string
	Importance int // 0 means uniform in 1..3
	Source     string
}

// Fill renders the template. It depends only on r and s.
func (t Template) Fill(kind Kind, r Random, s Seed) Candidate {
	res := &resolver{r: r, s: s.withDefaults(), vals: map[string]string{}}

	body := t.Body
	if len(t.Bodies) > 0 {
		body = t.Bodies[r.Intn(len(t.Bodies))]
	}
	c := Candidate{
		Kind:   kind,
		Title:  res.expand(t.Title),
		Body:   res.expand(body),
		Source: t.Source,
	}
	if c.Source == "" {
		c.Source = "generator"
	}
	c.Importance = t.Importance
	if c.Importance < 1 || c.Importance > 3 {
		c.Importance = between(r, 1, 3)
	}
	c.Summary = Summarize(c.Body)
	c.Tags = mergeTags(t.Tags, res.entities)
	return c
}

// Summarize returns the first 100 runes of body, with "..." when cut.
func Summarize(body string) string {
	body = strings.TrimSpace(body)
	if utf8.RuneCountInString(body) <= summaryRunes {
		return body
	}
	runes := []rune(body)
	return string(runes[:summaryRunes]) + "..."
}

func mergeTags(base, entities []string) []string {
	out := make([]string, 0, MaxTags)
	seen := map[string]bool{}
	add := func(tag string) {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] || len(out) >= MaxTags {
			return
		}
		seen[tag] = true
		out = append(out, tag)
	}
	for _, t := range base {
		add(t)
	}
	for _, e := range entities {
		add(e)
	}
	return out
}

// resolver resolves placeholders lazily so a name repeats consistently
// between title and body of one fill.
type resolver struct {
	r        Random
	s        Seed
	vals     map[string]string
	entities []string
}

func (res *resolver) expand(text string) string {
	if !strings.Contains(text, "{") {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	for {
		open := strings.IndexByte(text, '{')
		if open < 0 {
			b.WriteString(text)
			break
		}
		end := strings.IndexByte(text[open:], '}')
		if end < 0 {
			// Unbalanced brace: drop it.
			b.WriteString(text[:open])
			b.WriteString(text[open+1:])
			break
		}
		b.WriteString(text[:open])
		b.WriteString(res.value(text[open+1 : open+end]))
		text = text[open+end+1:]
	}
	return b.String()
}

func (res *resolver) value(name string) string {
	if v, ok := res.vals[name]; ok {
		return v
	}
	v := res.resolve(name)
	res.vals[name] = v
	return v
}

func (res *resolver) resolve(name string) string {
	r, s := res.r, res.s
	switch name {
	case "team":
		if p, ok := res.vals["player"]; ok {
			if team := s.teamOf(p); team != "" {
				return res.entity(team)
			}
		}
		return res.entity(pick(r, s.Teams, fallbackTeam))
	case "team2", "opponent":
		team := res.value("team")
		return res.entity(pickOther(r, s.Teams, team, fallbackTeam))
	case "player":
		if team, ok := res.vals["team"]; ok && len(s.Rosters[team]) > 0 {
			return res.entity(pick(r, s.Rosters[team], fallbackPlayer))
		}
		return res.entity(pick(r, s.Players, fallbackPlayer))
	case "player2":
		return res.entity(pickOther(r, s.Players, res.value("player"), fallbackPlayer))
	case "tournament":
		return pick(r, s.Tournaments, fallbackValue)
	case "channel":
		return pick(r, s.Channels, fallbackValue)
	case "achievement":
		return pick(r, s.Achievements, fallbackValue)
	case "stadium":
		if v, ok := s.Venues[res.value("team")]; ok && v.Stadium != "" {
			return v.Stadium
		}
		return fallbackValue
	case "city":
		if v, ok := s.Venues[res.value("team")]; ok && v.City != "" {
			return v.City
		}
		return fallbackValue
	case "score":
		return strconv.Itoa(between(r, 1, 4)) + "-" + strconv.Itoa(between(r, 0, 3))
	case "goals":
		return strconv.Itoa(between(r, 2, 4))
	case "amount":
		return strconv.Itoa(between(r, 10, 80))
	case "position":
		return strconv.Itoa(between(r, 1, 8))
	case "wins":
		return strconv.Itoa(between(r, 3, 7))
	case "minute":
		return strconv.Itoa(between(r, 1, 90))
	case "rating":
		return strconv.Itoa(between(r, 6, 9)) + "." + strconv.Itoa(r.Intn(10))
	case "matches":
		return strconv.Itoa(between(r, 10, 30))
	case "assists":
		return strconv.Itoa(between(r, 0, 12))
	case "season_goals":
		return strconv.Itoa(between(r, 3, 25))
	case "possession":
		return strconv.Itoa(between(r, 40, 70))
	case "years":
		return strconv.Itoa(between(r, 2, 5))
	case "formation":
		return pick(r, formations, "4-3-3")
	}
	switch {
	case strings.Contains(name, "team"):
		return fallbackTeam
	case strings.Contains(name, "player"):
		return fallbackPlayer
	}
	return fallbackValue
}

func (res *resolver) entity(name string) string {
	if name != fallbackTeam && name != fallbackPlayer {
		res.entities = append(res.entities, name)
	}
	return name
}

func pickOther(r Random, pool []string, not, fallback string) string {
	others := make([]string, 0, len(pool))
	for _, v := range pool {
		if v != not {
			others = append(others, v)
		}
	}
	return pick(r, others, fallback)
}

var formations = []string{"4-3-3", "4-2-3-1", "3-5-2", "4-4-2", "3-4-3"}
