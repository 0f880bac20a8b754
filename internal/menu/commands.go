package menu

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/content"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/pipeline"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/storage"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/task/scheduler"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/transport/telegram/router"
	logx "github.com/Dmitry77701/saudi-football-bot-advanced/pkg/logx"
	"github.com/Dmitry77701/saudi-football-bot-advanced/pkg/tgui"

	"github.com/dustin/go-humanize"
)

// jobAliases maps /publish arguments to scheduled jobs.
var jobAliases = map[string]string{
	"quick":        pipeline.JobQuickNews,
	"full":         pipeline.JobFullNews,
	"fixtures":     pipeline.JobDailyFixtures,
	"table":        pipeline.JobWeeklyTable,
	"housekeeping": pipeline.JobHousekeeping,
}

func (h *Handler) cmdStart(ctx context.Context, req *router.Request) error {
	if err := h.d.Store.EnsureUser(ctx, req.FromID); err != nil {
		return err
	}
	name := strings.TrimSpace(req.FromName)
	if name == "" {
		name = "друг"
	}
	kb := tgui.NewInline().
		Row(tgui.Btn("📋 Главное меню", data("home", ""))).
		Row(tgui.Btn("🔔 Мои подписки", data("subs", "")), tgui.Btn("⚙️ Настройки", data("settings", "")))
	msg := tgui.New().
		Title("🇸🇦", "Добро пожаловать, "+name+"!").Blank().
		Line("Я бот о саудовском футболе: новости Saudi Pro League, расписание матчей, турнирная таблица и персональные уведомления по вашим подпискам.").
		Blank().
		Line("Используйте /menu для навигации или /help для списка команд.").
		Inline(kb).Build()
	_, err := msg.Send(ctx, req.Adapter, req.Chat)
	return err
}

func (h *Handler) cmdMenu(ctx context.Context, req *router.Request) error {
	_, err := mainMenu().Send(ctx, req.Adapter, req.Chat)
	return err
}

func (h *Handler) cmdHelp(ctx context.Context, req *router.Request) error {
	b := tgui.New().Title("❓", "ПОМОЩЬ").Blank().
		Line("/start - приветствие").
		Line("/menu - главное меню").
		Line("/stats - статистика бота").
		Line("/help - эта справка")
	if req.IsOwner {
		b.Blank().Section("Администрирование").
			Line("/publish <quick|full|fixtures|table|housekeeping|тип> - опубликовать сейчас").
			Line("/jobs - состояние расписания")
	}
	_, err := b.Build().Send(ctx, req.Adapter, req.Chat)
	return err
}

func (h *Handler) cmdStats(ctx context.Context, req *router.Request) error {
	now := h.d.Now()
	b := tgui.New().Title("📊", "СТАТИСТИКА БОТА").Blank()

	if h.d.Stats != nil {
		s := h.d.Stats.Snapshot(now)
		b.Section("Работа").
			KV("Запущен", relTime(s.StartedAt, now)).
			KV("Постов отправлено", humanize.Comma(s.PostsSent)).
			KV("Пользователей", humanize.Comma(s.UsersInteracted)).
			KV("Уведомлений подписчикам", humanize.Comma(s.SubscriberNotifications)).
			KV("Дубликатов отброшено", humanize.Comma(s.Duplicates)).
			KV("Запусков задач", humanize.Comma(s.JobRuns)).
			KV("Ошибок", humanize.Comma(s.ErrorsHandled)).
			Blank()
	}

	dbs, err := h.d.Store.DatabaseStats(ctx)
	if err != nil {
		return err
	}
	b.Section("База данных").
		KV("Опубликовано", humanize.Comma(dbs.Published)).
		KV("В очереди", humanize.Comma(dbs.Unpublished)).
		KV("Активных подписок", humanize.Comma(dbs.ActiveSubs))
	tables := make([]string, 0, len(dbs.Tables))
	for t := range dbs.Tables {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	for _, t := range tables {
		b.KV(t, humanize.Comma(dbs.Tables[t]))
	}

	day := storage.Day(h.today())
	today, err := h.d.Store.StatsForDay(ctx, day)
	if err != nil {
		return err
	}
	if len(today) > 0 {
		b.Blank().Section("Сегодня (" + day + ")")
		keys := make([]string, 0, len(today))
		for k := range today {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.KV(k, humanize.Comma(today[k]))
		}
	}
	_, err = b.Build().Send(ctx, req.Adapter, req.Chat)
	return err
}

func (h *Handler) reply(ctx context.Context, req *router.Request, text string) error {
	_, err := tgui.New().Line(text).Build().Send(ctx, req.Adapter, req.Chat)
	return err
}

func (h *Handler) cmdPublish(ctx context.Context, req *router.Request) error {
	if len(req.Args) == 0 {
		return h.reply(ctx, req, publishUsage())
	}
	arg := strings.ToLower(strings.TrimSpace(req.Args[0]))

	if job, ok := jobAliases[arg]; ok {
		if h.d.Jobs == nil {
			return h.reply(ctx, req, "Планировщик недоступен.")
		}
		err := h.d.Jobs.RunNow(ctx, job)
		switch {
		case errors.Is(err, scheduler.ErrOverlapSkip):
			return h.reply(ctx, req, "⏳ Задача "+job+" уже выполняется.")
		case err != nil:
			req.Logger.Warn("manual job failed", logx.String("job", job), logx.Err(err))
			return h.reply(ctx, req, "❌ Задача "+job+" завершилась с ошибкой: "+err.Error())
		}
		return h.reply(ctx, req, "✅ Задача "+job+" выполнена.")
	}

	kind, err := content.ParseKind(arg)
	if err != nil {
		return h.reply(ctx, req, publishUsage())
	}
	out, err := h.d.Publisher.PublishKind(ctx, kind)
	if err != nil {
		return err
	}
	if !out.Accepted {
		return h.reply(ctx, req, "♻️ Сгенерирован дубликат, публикация пропущена.")
	}
	return h.reply(ctx, req, fmt.Sprintf("✅ Опубликовано: %s (подписчиков уведомлено: %d)", out.Record.Title, out.Result.Notified))
}

func publishUsage() string {
	kinds := make([]string, 0, len(content.Kinds()))
	for _, k := range content.Kinds() {
		kinds = append(kinds, string(k))
	}
	aliases := make([]string, 0, len(jobAliases))
	for a := range jobAliases {
		aliases = append(aliases, a)
	}
	sort.Strings(aliases)
	return "Использование: /publish <задача|тип>\nЗадачи: " + strings.Join(aliases, ", ") +
		"\nТипы: " + strings.Join(kinds, ", ")
}

func (h *Handler) cmdJobs(ctx context.Context, req *router.Request) error {
	if h.d.Jobs == nil {
		return h.reply(ctx, req, "Планировщик недоступен.")
	}
	snap := h.d.Jobs.Snapshot()
	now := h.d.Now()
	b := tgui.New().Title("🗓", "ЗАДАЧИ ("+snap.Timezone+")").Blank()
	for _, j := range snap.Jobs {
		state := "ожидает"
		switch {
		case j.Running:
			state = "выполняется"
		case j.Retired:
			state = "завершена"
		}
		line := fmt.Sprintf("%s [%s] %s", j.Name, j.Spec, state)
		if !j.Next.IsZero() && !j.Retired {
			line += ", следующий запуск " + relTime(j.Next, now)
		}
		if !j.Last.IsZero() {
			line += ", последний " + relTime(j.Last, now)
		}
		line += fmt.Sprintf(", запусков %d, пропусков %d, ошибок %d", j.Fires, j.Skipped, j.Failures)
		b.Bullets(line)
		if j.LastError != "" {
			b.Line("   ⚠️ " + tgui.TruncRunes(j.LastError, 200))
		}
	}
	if len(snap.Jobs) == 0 {
		b.Line("Нет задач.")
	}
	_, err := b.Build().Send(ctx, req.Adapter, req.Chat)
	return err
}

func relTime(t, now time.Time) string {
	return strings.TrimSpace(humanize.RelTime(t, now, "ago", "from now"))
}
