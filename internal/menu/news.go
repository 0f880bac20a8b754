package menu

import (
	"context"
	"strconv"

	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/content"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/transport/telegram/router"
	"github.com/Dmitry77701/saudi-football-bot-advanced/pkg/tgui"
)

const newsLimit = 3

func (h *Handler) cbNews(ctx context.Context, req *router.Request, _ string) error {
	recs, err := h.d.Store.RecentContent(ctx, "", newsLimit)
	if err != nil {
		return err
	}
	b := tgui.New().Title("📰", "ПОСЛЕДНИЕ НОВОСТИ САУДОВСКОГО ФУТБОЛА").Blank()
	if len(recs) == 0 {
		b.Line("Новостей пока нет. Первые публикации появятся в канале в ближайшее время.")
	}
	for i, r := range recs {
		b.RawLine(tgui.B(strconv.Itoa(i+1) + ". " + r.Title))
		if r.Summary != "" {
			b.Line(r.Summary)
		}
		b.Line("🕐 " + r.CreatedAt.In(h.d.Location).Format("02.01 15:04"))
		tags := r.Tags
		if len(tags) > 2 {
			tags = tags[:2]
		}
		if s := content.Hashtags(tags); s != "" {
			b.Line("🏷️ " + s)
		}
		b.Blank()
	}
	b.RawLine(tgui.I("📢 Больше новостей в нашем канале!"))
	kb := tgui.NewInline().Row(tgui.Btn("🔄 Обновить", data("news", ""))).Row(backHome)
	return show(ctx, req, b.Inline(kb).Build())
}

func (h *Handler) cbAbout(ctx context.Context, req *router.Request, _ string) error {
	b := tgui.New().Title("ℹ️", "SAUDI FOOTBALL BOT").Blank().
		Section("🧠 Контент").
		Bullets(
			"Реальные данные TheSportsDB и RSS-ленты",
			"Новость с тем же заголовком не публикуется дважды",
			"Кэширование ответов API",
		).Blank().
		Section("🔔 Подписки").
		Bullets(
			"Персональные уведомления по командам и игрокам",
			"Отключаются в настройках",
		)
	if h.d.Jobs != nil {
		b.Blank().Section("🗓 Автоматические публикации")
		for _, j := range h.d.Jobs.Snapshot().Jobs {
			if j.Retired {
				continue
			}
			b.KV(j.Name, j.Spec)
		}
	}
	b.Blank().Line("/start - главное меню, /help - список команд")
	return show(ctx, req, b.Inline(tgui.NewInline().Row(backHome)).Build())
}
