package menu

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"
	"strconv"

	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/catalog"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/content"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/render"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/storage"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/transport/telegram/router"
	"github.com/Dmitry77701/saudi-football-bot-advanced/pkg/tgui"

	tele "gopkg.in/telebot.v4"
)

var (
	backHome = tgui.Btn("🔙 Назад в меню", data("home", ""))
)

func mainMenu() tgui.Message {
	kb := tgui.NewInline().
		Row(tgui.Btn("📰 Свежие новости", data("news", ""))).
		Row(tgui.Btn("⚽ Команды", data("teams", "")), tgui.Btn("🌟 Игроки", data("players", ""))).
		Row(tgui.Btn("📊 Статистика", data("statistics", "")), tgui.Btn("🏆 Турнирная таблица", data("table", ""))).
		Row(tgui.Btn("📅 Расписание матчей", data("fixtures", "")), tgui.Btn("🔔 Мои подписки", data("subs", ""))).
		Row(tgui.Btn("⚙️ Настройки", data("settings", "")), tgui.Btn("ℹ️ О боте", data("about", "")))
	return tgui.New().
		Title("📋", "ГЛАВНОЕ МЕНЮ Saudi Football Bot").
		Blank().
		Line("Выберите интересующий раздел:").
		Inline(kb).
		Build()
}

func (h *Handler) cbHome(ctx context.Context, req *router.Request, _ string) error {
	return show(ctx, req, mainMenu())
}

func (h *Handler) cbTeams(ctx context.Context, req *router.Request, _ string) error {
	d := h.d.Catalog.Snapshot()
	btns := make([]tele.Btn, 0, len(d.Teams))
	for i, t := range d.Teams {
		btns = append(btns, tgui.Btn(t.Name, data("team", strconv.Itoa(i))))
	}
	kb := tgui.NewInline().Grid(2, btns).Row(backHome)
	return show(ctx, req, tgui.New().
		Title("⚽", "КОМАНДЫ Saudi Pro League").
		Blank().
		Line("Выберите команду для получения информации:").
		Inline(kb).Build())
}

func (h *Handler) cbPlayers(ctx context.Context, req *router.Request, _ string) error {
	d := h.d.Catalog.Snapshot()
	btns := make([]tele.Btn, 0, len(d.Players))
	for i, p := range d.Players {
		btns = append(btns, tgui.Btn(p.Name, data("player", strconv.Itoa(i))))
	}
	kb := tgui.NewInline().Grid(2, btns).Row(backHome)
	return show(ctx, req, tgui.New().
		Title("🌟", "ЗВЕЗДЫ Saudi Pro League").
		Blank().
		Line("Выберите игрока для получения информации:").
		Inline(kb).Build())
}

func subButton(ref entityRef, subscribed bool, back tele.Btn) *tgui.Inline {
	kb := tgui.NewInline()
	if subscribed {
		kb.Row(tgui.Btn("🔕 Отписаться", data("unsub", ref.payload())))
	} else {
		kb.Row(tgui.Btn("🔔 Подписаться", data("sub", ref.payload())))
	}
	return kb.Row(back)
}

func (h *Handler) cbTeam(ctx context.Context, req *router.Request, payload string) error {
	ref, err := h.entity(catalog.KindTeam, payload)
	if err != nil {
		return err
	}
	team := h.d.Catalog.Snapshot().Teams[ref.Index]
	sub, err := h.subscribed(ctx, req.FromID, ref)
	if err != nil {
		return err
	}

	b := tgui.New().Title("⚽", team.Name).Blank()
	if team.Stadium != "" {
		b.KV("🏟️ Стадион", team.Stadium)
	}
	if team.City != "" {
		b.KV("🏙️ Город", team.City)
	}
	if team.Founded > 0 {
		b.KV("📅 Основан", strconv.Itoa(team.Founded))
	}
	if row, ok := findStanding(h.d.Publisher.LatestStandings(ctx), team.Name); ok {
		b.Blank().Section("📊 ТЕКУЩИЙ СЕЗОН").
			KV("Позиция", strconv.Itoa(row.Position)).
			KV("Очки", strconv.Itoa(row.Points)).
			KV("Матчи", strconv.Itoa(row.Played)).
			KV("В/Н/П", fmt.Sprintf("%d/%d/%d", row.Won, row.Drawn, row.Lost)).
			KV("Мячи", fmt.Sprintf("%d:%d", row.GoalsFor, row.GoalsAgainst))
	}
	back := tgui.Btn("🔙 К командам", data("teams", ""))
	return show(ctx, req, b.Inline(subButton(ref, sub, back)).Build())
}

func findStanding(rows []content.Standing, team string) (content.Standing, bool) {
	for _, r := range rows {
		if r.Team == team {
			return r, true
		}
	}
	return content.Standing{}, false
}

func (h *Handler) cbPlayer(ctx context.Context, req *router.Request, payload string) error {
	ref, err := h.entity(catalog.KindPlayer, payload)
	if err != nil {
		return err
	}
	p := h.d.Catalog.Snapshot().Players[ref.Index]
	sub, err := h.subscribed(ctx, req.FromID, ref)
	if err != nil {
		return err
	}
	b := tgui.New().Title("🌟", p.Name).Blank().
		KV("⚽ Команда", p.Team).
		KV("🎯 Позиция", p.Position).
		KV("🌍 Страна", p.Nationality)
	back := tgui.Btn("🔙 К игрокам", data("players", ""))
	return show(ctx, req, b.Inline(subButton(ref, sub, back)).Build())
}

func backTo(ref entityRef) tele.Btn {
	return tgui.Btn("🔙 Назад", data(ref.Kind, strconv.Itoa(ref.Index)))
}

func (h *Handler) cbSub(ctx context.Context, req *router.Request, payload string) error {
	ref, err := h.parseEntity(payload)
	if err != nil {
		return err
	}
	created, err := h.d.Store.Subscribe(ctx, req.FromID, ref.Name, ref.Kind)
	if err != nil {
		return err
	}
	b := tgui.New()
	if created {
		b.Line("✅ Вы подписались на " + ref.Name + "!").Blank().
			Line("Теперь вы будете получать уведомления о всех новостях, связанных с " + ref.Name + ".")
	} else {
		b.Line("ℹ️ Вы уже подписаны на " + ref.Name + ".")
	}
	return show(ctx, req, b.Inline(tgui.NewInline().Row(backTo(ref))).Build())
}

func (h *Handler) cbUnsub(ctx context.Context, req *router.Request, payload string) error {
	ref, err := h.parseEntity(payload)
	if err != nil {
		return err
	}
	removed, err := h.d.Store.Unsubscribe(ctx, req.FromID, ref.Name, ref.Kind)
	if err != nil {
		return err
	}
	text := "✅ Вы отписались от " + ref.Name + "."
	if !removed {
		text = "ℹ️ Активной подписки на " + ref.Name + " нет."
	}
	return show(ctx, req, tgui.New().Line(text).Inline(tgui.NewInline().Row(backTo(ref))).Build())
}

func (h *Handler) cbSubs(ctx context.Context, req *router.Request, _ string) error {
	subs, err := h.d.Store.SubscriptionsOf(ctx, req.FromID)
	if err != nil {
		return err
	}
	b := tgui.New().Title("🔔", "МОИ ПОДПИСКИ").Blank()
	if len(subs) == 0 {
		b.Line("У вас пока нет активных подписок.").Blank().
			Line("Подпишитесь на интересующие команды и игроков, чтобы получать персональные уведомления о новостях!")
		kb := tgui.NewInline().
			Row(tgui.Btn("⚽ Подписаться на команду", data("teams", ""))).
			Row(tgui.Btn("🌟 Подписаться на игрока", data("players", ""))).
			Row(backHome)
		return show(ctx, req, b.Inline(kb).Build())
	}

	var teams, players []string
	for _, s := range subs {
		if s.EntityKind == storage.KindTeam {
			teams = append(teams, s.EntityName)
		} else {
			players = append(players, s.EntityName)
		}
	}
	if len(teams) > 0 {
		b.Section("⚽ КОМАНДЫ:").Bullets(teams...).Blank()
	}
	if len(players) > 0 {
		b.Section("🌟 ИГРОКИ:").Bullets(players...).Blank()
	}
	b.Line(fmt.Sprintf("Всего активных подписок: %d", len(subs)))
	return show(ctx, req, b.Inline(tgui.NewInline().Row(backHome)).Build())
}

func (h *Handler) cbSettings(ctx context.Context, req *router.Request, payload string) error {
	if err := h.d.Store.EnsureUser(ctx, req.FromID); err != nil {
		return err
	}
	us, err := h.d.Store.UserSettings(ctx, req.FromID)
	if err != nil {
		return err
	}
	if payload == "notify" {
		us.Notifications = !us.Notifications
		if err := h.d.Store.UpdateUserSettings(ctx, us); err != nil {
			return err
		}
	}

	notify, toggle := "включены", "🔕 Выключить уведомления"
	if !us.Notifications {
		notify, toggle = "выключены", "🔔 Включить уведомления"
	}
	kb := tgui.NewInline().Row(tgui.Btn(toggle, data("settings", "notify"))).Row(backHome)
	return show(ctx, req, tgui.New().
		Title("⚙️", "НАСТРОЙКИ").Blank().
		Line("Текущие настройки:").
		KV("🌍 Язык", languageName(us.Language)).
		KV("🕐 Время уведомлений", us.NotificationTime).
		KV("🌐 Часовой пояс", us.Timezone).
		KV("🔔 Уведомления", notify).
		Inline(kb).Build())
}

func languageName(code string) string {
	if code == "ru" || code == "" {
		return "Русский"
	}
	return code
}

func (h *Handler) cbStatistics(ctx context.Context, req *router.Request, _ string) error {
	kb := tgui.NewInline().
		Row(tgui.Btn("🏆 Турнирная таблица", data("table", "")), tgui.Btn("⚽ Бомбардиры", data("scorers", ""))).
		Row(tgui.Btn("📅 Календарь", data("fixtures", ""))).
		Row(backHome)
	return show(ctx, req, tgui.New().
		Title("📊", "СТАТИСТИКА Saudi Pro League").Blank().
		Line("Выберите тип статистики:").
		Inline(kb).Build())
}

func (h *Handler) cbTable(ctx context.Context, req *router.Request, _ string) error {
	text := render.Text(render.DefaultTitle, h.d.Publisher.LatestStandings(ctx))
	kb := tgui.NewInline().Row(tgui.Btn("🔙 К статистике", data("statistics", "")))
	return show(ctx, req, tgui.New().RawLine(tgui.Raw(text)).Inline(kb).Build())
}

// Scorer is one line of the top-scorers screen.
type Scorer struct {
	Name  string
	Team  string
	Goals int
}

// TopScorers ranks the catalog players with goal counts that are stable for
// one calendar day.
func TopScorers(players []catalog.Player, day string, n int) []Scorer {
	hash := fnv.New64a()
	_, _ = hash.Write([]byte(day))
	r := rand.New(rand.NewSource(int64(hash.Sum64())))
	out := make([]Scorer, 0, len(players))
	for _, p := range players {
		out = append(out, Scorer{Name: p.Name, Team: p.Team, Goals: 3 + r.Intn(20)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Goals > out[j].Goals })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func (h *Handler) cbScorers(ctx context.Context, req *router.Request, _ string) error {
	top := TopScorers(h.d.Catalog.Snapshot().Players, storage.Day(h.today()), 5)
	b := tgui.New().Title("⚽", "БОМБАРДИРЫ").Blank()
	medals := []string{"🥇", "🥈", "🥉"}
	for i, s := range top {
		mark := strconv.Itoa(i+1) + "."
		if i < len(medals) {
			mark = medals[i]
		}
		b.Line(fmt.Sprintf("%s %s (%s) - %d голов", mark, s.Name, s.Team, s.Goals))
	}
	if len(top) == 0 {
		b.Line("Нет данных.")
	}
	kb := tgui.NewInline().Row(tgui.Btn("🔙 К статистике", data("statistics", "")))
	return show(ctx, req, b.Inline(kb).Build())
}

func (h *Handler) cbFixtures(ctx context.Context, req *router.Request, _ string) error {
	day := h.today()
	matches, err := h.d.Store.MatchesOn(ctx, storage.Day(day))
	if err != nil {
		return err
	}
	b := tgui.New().Title("📅", "МАТЧИ НА СЕГОДНЯ ("+day.Format("02.01.2006")+")").Blank()
	if len(matches) == 0 {
		b.Line("😔 На сегодня матчей не запланировано")
	}
	for _, m := range matches {
		line := m.Kickoff + " " + m.HomeTeam + " - " + m.AwayTeam
		if m.HomeScore != nil && m.AwayScore != nil {
			line += fmt.Sprintf(" (%d:%d)", *m.HomeScore, *m.AwayScore)
		}
		b.Bullets(line)
	}
	return show(ctx, req, b.Inline(tgui.NewInline().Row(backHome)).Build())
}
