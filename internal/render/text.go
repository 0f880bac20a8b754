// Package render draws the league table as monospace text and as a PNG image.
package render

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/content"
)

const (
	// DefaultTitle heads both renderings.
	DefaultTitle = "Saudi Pro League - Турнирная таблица"

	nameRunes = 12
	maxRows   = 18

	// Rows 1..4 qualify for the continental cup; the last two are relegated.
	championsZone  = 4
	relegationZone = 2
)

var ErrNoRows = errors.New("render: no standings")

var headers = []string{"#", "Команда", "И", "В", "Н", "П", "ЗГ", "ПГ", "О"}

// Text renders rows as an HTML <pre> block with a zone legend.
func Text(title string, rows []content.Standing) string {
	if title == "" {
		title = DefaultTitle
	}
	var b strings.Builder
	b.WriteString("🏆 <b>")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</b>\n\n")
	if len(rows) == 0 {
		b.WriteString("Таблица пока недоступна.")
		return b.String()
	}

	b.WriteString("<pre>")
	b.WriteString(fmt.Sprintf("%2s  %s %2s %2s %2s %2s %3s %3s %3s\n",
		headers[0], pad(headers[1], nameRunes), headers[2], headers[3], headers[4], headers[5], headers[6], headers[7], headers[8]))
	b.WriteString(strings.Repeat("─", 2+2+nameRunes+1+4*3+3*4))
	b.WriteByte('\n')
	for _, r := range limit(rows) {
		b.WriteString(fmt.Sprintf("%2d. %s %2d %2d %2d %2d %3d %3d %3d\n",
			r.Position, html.EscapeString(pad(r.Team, nameRunes)), r.Played, r.Won, r.Drawn, r.Lost, r.GoalsFor, r.GoalsAgainst, r.Points))
	}
	b.WriteString("</pre>\n")
	b.WriteString(fmt.Sprintf("🟢 Зона Лиги Чемпионов (1-%d)\n", championsZone))
	b.WriteString("🔴 Зона вылета")
	return b.String()
}

func limit(rows []content.Standing) []content.Standing {
	if len(rows) > maxRows {
		return rows[:maxRows]
	}
	return rows
}

// pad truncates or right-pads s to n runes.
func pad(s string, n int) string {
	if c := utf8.RuneCountInString(s); c > n {
		return string([]rune(s)[:n])
	} else if c < n {
		return s + strings.Repeat(" ", n-c)
	}
	return s
}
