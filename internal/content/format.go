package content

import (
	"fmt"
	"html"
	"strings"
	"time"
	"unicode"
)

var kindHeaders = map[Kind]string{
	Quick:     "⚡ СРОЧНО",
	Full:      "📰 НОВОСТИ",
	Preview:   "🎯 ПРЕВЬЮ",
	Result:    "⚽ РЕЗУЛЬТАТ",
	Spotlight: "⭐ В ФОКУСЕ",
	Transfer:  "💰 ТРАНСФЕРЫ",
	Tactical:  "🧠 ТАКТИКА",
}

// FormatPost renders the channel message (Telegram HTML).
func FormatPost(c Candidate) string {
	var b strings.Builder
	if h := kindHeaders[c.Kind]; h != "" {
		b.WriteString("<b>" + h + "</b>\n\n")
	}
	b.WriteString("<b>" + html.EscapeString(c.Title) + "</b>")
	if body := strings.TrimSpace(c.Body); body != "" {
		b.WriteString("\n\n" + html.EscapeString(body))
	}
	if tags := Hashtags(c.Tags); tags != "" {
		b.WriteString("\n\n" + tags)
	}
	return b.String()
}

// PlainText is the unformatted text of a post, used for entity matching.
func PlainText(c Candidate) string {
	return strings.TrimSpace(c.Title + "\n\n" + c.Body)
}

// Hashtags turns tags into "#tag" words, dropping characters Telegram does not
// accept in hashtags.
func Hashtags(tags []string) string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		var b strings.Builder
		for _, r := range t {
			switch {
			case unicode.IsLetter(r) || unicode.IsDigit(r):
				b.WriteRune(r)
			case r == ' ' || r == '_':
				b.WriteRune('_')
			}
		}
		if s := strings.Trim(b.String(), "_"); s != "" {
			out = append(out, "#"+s)
		}
	}
	return strings.Join(out, " ")
}

// FormatFixtures renders the daily fixtures message.
func (g *Generator) FormatFixtures(day time.Time, fixtures []Fixture) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "<b>⚽ МАТЧИ НА СЕГОДНЯ (%s)</b>\n\n", day.Format("02.01.2006"))
	if len(fixtures) == 0 {
		b.WriteString("😔 На сегодня матчей не запланировано\n\n")
		b.WriteString("📅 Следите за расписанием - скоро будут новые игры!")
		return b.String()
	}
	for i, f := range fixtures {
		title := fixtureTitles[g.rnd.Intn(len(fixtureTitles))]
		title = strings.NewReplacer("{home}", f.Home, "{away}", f.Away).Replace(title)
		fmt.Fprintf(&b, "<b>%d. %s</b>\n", i+1, html.EscapeString(title))
		fmt.Fprintf(&b, "🕐 %s\n", html.EscapeString(orDefault(f.Kickoff, "--:--")))
		if f.Tournament != "" {
			fmt.Fprintf(&b, "🏆 %s\n", html.EscapeString(f.Tournament))
		}
		if f.Channel != "" {
			fmt.Fprintf(&b, "📺 %s\n", html.EscapeString(f.Channel))
		}
		if f.Venue != "" {
			fmt.Fprintf(&b, "🏟️ %s\n", html.EscapeString(f.Venue))
		}
		b.WriteString("\n")
	}
	b.WriteString("📱 Используйте бота для быстрого доступа к информации!")
	return b.String()
}

// FixturesPlain lists "home - away" lines for entity matching.
func FixturesPlain(fixtures []Fixture) string {
	lines := make([]string, 0, len(fixtures))
	for _, f := range fixtures {
		lines = append(lines, f.Home+" - "+f.Away)
	}
	return strings.Join(lines, "\n")
}
