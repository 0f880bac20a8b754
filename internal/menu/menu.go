// Package menu implements the interactive side of the bot: chat commands and
// the inline-button screens for teams, players, subscriptions and settings.
package menu

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/catalog"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/content"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/pipeline"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/stats"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/storage"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/task/scheduler"
	kit "github.com/Dmitry77701/saudi-football-bot-advanced/internal/transport"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/transport/telegram/router"
	logx "github.com/Dmitry77701/saudi-football-bot-advanced/pkg/logx"
	"github.com/Dmitry77701/saudi-football-bot-advanced/pkg/tgui"
)

// Prefix is the callback-data namespace of every menu button.
const Prefix = "menu"

// Store is the storage surface of the menu.
type Store interface {
	EnsureUser(ctx context.Context, userID int64) error
	UserSettings(ctx context.Context, userID int64) (storage.UserSettings, error)
	UpdateUserSettings(ctx context.Context, us storage.UserSettings) error
	LogUserRequest(ctx context.Context, userID int64, kind, data string) error
	Subscribe(ctx context.Context, subscriberID int64, name, kind string) (bool, error)
	Unsubscribe(ctx context.Context, subscriberID int64, name, kind string) (bool, error)
	SubscriptionsOf(ctx context.Context, subscriberID int64) ([]storage.Subscription, error)
	DatabaseStats(ctx context.Context) (storage.DatabaseStats, error)
	StatsForDay(ctx context.Context, day string) (map[string]int64, error)
	MatchesOn(ctx context.Context, day string) ([]storage.Match, error)
	RecentContent(ctx context.Context, typ string, limit int) ([]storage.ContentRecord, error)
}

type CatalogSource interface {
	Snapshot() catalog.Data
}

// Publisher is the pipeline side used by /publish and the table screens.
type Publisher interface {
	PublishKind(ctx context.Context, kind content.Kind) (pipeline.Outcome, error)
	LatestStandings(ctx context.Context) []content.Standing
}

// Jobs is the scheduler side used by /publish and /jobs.
type Jobs interface {
	RunNow(ctx context.Context, name string) error
	Snapshot() scheduler.Snapshot
}

type Deps struct {
	Store     Store
	Catalog   CatalogSource
	Publisher Publisher
	Jobs      Jobs
	Stats     *stats.RuntimeStats
	Location  *time.Location
	Now       func() time.Time
}

type Handler struct {
	d   Deps
	log logx.Logger
}

func New(d Deps, log logx.Logger) *Handler {
	if log.IsZero() {
		log = logx.Nop()
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Handler{d: d, log: log.With(logx.String("comp", "menu"))}
}

// Commands returns the chat commands.
func (h *Handler) Commands() []router.Command {
	return []router.Command{
		{Name: "start", Description: "Приветствие и главное меню", Handle: h.cmdStart},
		{Name: "menu", Description: "Главное меню", Handle: h.cmdMenu},
		{Name: "stats", Description: "Статистика бота", Handle: h.cmdStats},
		{Name: "help", Aliases: []string{"h"}, Description: "Помощь", Handle: h.cmdHelp},
		{Name: "publish", Description: "Опубликовать сейчас", Access: router.AccessOwnerOnly, Timeout: 5 * time.Minute, Handle: h.cmdPublish},
		{Name: "jobs", Description: "Расписание задач", Access: router.AccessOwnerOnly, Handle: h.cmdJobs},
	}
}

// Callbacks returns the inline-button routes under Prefix.
func (h *Handler) Callbacks() []router.CallbackRoute {
	routes := map[string]router.CallbackHandlerFunc{
		"home":       h.cbHome,
		"news":       h.cbNews,
		"about":      h.cbAbout,
		"teams":      h.cbTeams,
		"players":    h.cbPlayers,
		"team":       h.cbTeam,
		"player":     h.cbPlayer,
		"statistics": h.cbStatistics,
		"subs":       h.cbSubs,
		"settings":   h.cbSettings,
		"sub":        h.cbSub,
		"unsub":      h.cbUnsub,
		"table":      h.cbTable,
		"scorers":    h.cbScorers,
		"fixtures":   h.cbFixtures,
	}
	out := make([]router.CallbackRoute, 0, len(routes))
	for action, fn := range routes {
		out = append(out, router.CallbackRoute{Prefix: Prefix, Action: action, Handle: fn})
	}
	return out
}

// Track logs every interaction to user_requests and counts the user.
func (h *Handler) Track() router.Middleware {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx context.Context, req *router.Request) error {
			if h.d.Stats != nil {
				h.d.Stats.UserSeen(req.FromID)
			}
			data := req.Payload
			if !req.IsCallback() {
				data = strings.Join(req.Args, " ")
			}
			if err := h.d.Store.LogUserRequest(ctx, req.FromID, req.Command, data); err != nil {
				req.Logger.Warn("log user request failed", logx.Err(err))
			}
			err := next(ctx, req)
			if err != nil && h.d.Stats != nil {
				h.d.Stats.ErrorHandled()
			}
			return err
		}
	}
}

// show edits the pressed message for callbacks and sends a new one otherwise.
func show(ctx context.Context, req *router.Request, msg tgui.Message) error {
	if req.IsCallback() && req.MessageID != 0 {
		ref := kit.MessageRef{ChatID: req.Chat.ChatID, ThreadID: req.Chat.ThreadID, MessageID: req.MessageID}
		return msg.Edit(ctx, req.Adapter, ref)
	}
	_, err := msg.Send(ctx, req.Adapter, req.Chat)
	return err
}

func data(action, payload string) string { return tgui.Data(Prefix, action, payload) }

var errBadPayload = errors.New("menu: bad payload")

// entityRef is "team:<i>" or "player:<i>", an index into the catalog snapshot.
type entityRef struct {
	Kind  string
	Index int
	Name  string
}

func (r entityRef) payload() string { return r.Kind + ":" + strconv.Itoa(r.Index) }

func (h *Handler) parseEntity(payload string) (entityRef, error) {
	kind, idx, ok := strings.Cut(payload, ":")
	if !ok {
		return entityRef{}, fmt.Errorf("%w: %q", errBadPayload, payload)
	}
	return h.entity(kind, idx)
}

func (h *Handler) entity(kind, idx string) (entityRef, error) {
	i, err := strconv.Atoi(idx)
	if err != nil || i < 0 {
		return entityRef{}, fmt.Errorf("%w: index %q", errBadPayload, idx)
	}
	d := h.d.Catalog.Snapshot()
	switch kind {
	case catalog.KindTeam:
		if i < len(d.Teams) {
			return entityRef{Kind: kind, Index: i, Name: d.Teams[i].Name}, nil
		}
	case catalog.KindPlayer:
		if i < len(d.Players) {
			return entityRef{Kind: kind, Index: i, Name: d.Players[i].Name}, nil
		}
	default:
		return entityRef{}, fmt.Errorf("%w: kind %q", errBadPayload, kind)
	}
	return entityRef{}, fmt.Errorf("%w: %s %d out of range", errBadPayload, kind, i)
}

func (h *Handler) subscribed(ctx context.Context, userID int64, ref entityRef) (bool, error) {
	subs, err := h.d.Store.SubscriptionsOf(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, s := range subs {
		if s.EntityKind == ref.Kind && s.EntityName == ref.Name {
			return true, nil
		}
	}
	return false, nil
}

func (h *Handler) today() time.Time { return h.d.Now().In(h.d.Location) }
