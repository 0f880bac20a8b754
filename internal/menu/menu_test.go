package menu

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
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

	tele "gopkg.in/telebot.v4"
)

var testNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

type recAdapter struct {
	mu    sync.Mutex
	sent  []string
	edits []string
	opts  []*kit.SendOptions
}

func (a *recAdapter) Start(context.Context, chan<- kit.Update) error { return nil }
func (a *recAdapter) Stop(context.Context) error                     { return nil }

func (a *recAdapter) SendText(_ context.Context, _ kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sent = append(a.sent, text)
	a.opts = append(a.opts, opt)
	return kit.MessageRef{MessageID: len(a.sent)}, nil
}

func (a *recAdapter) SendPhoto(context.Context, kit.ChatTarget, kit.Photo, *kit.SendOptions) (kit.MessageRef, error) {
	return kit.MessageRef{}, nil
}

func (a *recAdapter) EditText(_ context.Context, _ kit.MessageRef, text string, opt *kit.SendOptions) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.edits = append(a.edits, text)
	a.opts = append(a.opts, opt)
	return nil
}

func (a *recAdapter) AnswerCallback(context.Context, string, string) error { return nil }

func (a *recAdapter) last() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.edits) > 0 {
		return a.edits[len(a.edits)-1]
	}
	if len(a.sent) > 0 {
		return a.sent[len(a.sent)-1]
	}
	return ""
}

// lastButtons returns the callback data of the last screen's keyboard.
func (a *recAdapter) lastButtons() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.opts) == 0 {
		return nil
	}
	rm, _ := a.opts[len(a.opts)-1].ReplyMarkupAdapter.(*tele.ReplyMarkup)
	if rm == nil {
		return nil
	}
	var out []string
	for _, row := range rm.InlineKeyboard {
		for _, b := range row {
			out = append(out, b.Data)
		}
	}
	return out
}

type staticCatalog struct{ d catalog.Data }

func (c staticCatalog) Snapshot() catalog.Data { return c.d }

type fakePublisher struct {
	kinds []content.Kind
	rows  []content.Standing
}

func (p *fakePublisher) PublishKind(_ context.Context, kind content.Kind) (pipeline.Outcome, error) {
	p.kinds = append(p.kinds, kind)
	return pipeline.Outcome{Accepted: true, Record: storage.ContentRecord{Title: "Новость"}}, nil
}

func (p *fakePublisher) LatestStandings(context.Context) []content.Standing { return p.rows }

type fakeJobs struct {
	ran []string
	err error
}

func (j *fakeJobs) RunNow(_ context.Context, name string) error {
	j.ran = append(j.ran, name)
	return j.err
}

func (j *fakeJobs) Snapshot() scheduler.Snapshot {
	return scheduler.Snapshot{Timezone: "UTC", Jobs: []scheduler.JobInfo{
		{Name: pipeline.JobQuickNews, Spec: "every 15m", Next: testNow.Add(5 * time.Minute), Fires: 3},
	}}
}

type env struct {
	h     *Handler
	store *storage.Store
	ad    *recAdapter
	pub   *fakePublisher
	jobs  *fakeJobs
	stats *stats.RuntimeStats
}

func newEnv(t *testing.T) *env {
	t.Helper()
	st, err := storage.Open(context.Background(),
		storage.Config{Path: filepath.Join(t.TempDir(), "bot.db")}, logx.Nop(),
		storage.WithClock(func() time.Time { return testNow }))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	e := &env{
		store: st,
		ad:    &recAdapter{},
		pub:   &fakePublisher{rows: []content.Standing{{Position: 1, Team: "Аль-Хиляль", Played: 10, Won: 8, Drawn: 1, Lost: 1, GoalsFor: 25, GoalsAgainst: 8, Points: 25}}},
		jobs:  &fakeJobs{},
		stats: stats.New(testNow),
	}
	cat := staticCatalog{d: catalog.Data{
		Teams: []catalog.Team{
			{Name: "Аль-Хиляль", City: "Эр-Рияд", Founded: 1957, Stadium: "Кингдом Арена"},
			{Name: "Аль-Наср", City: "Эр-Рияд", Founded: 1955},
		},
		Players: []catalog.Player{
			{Name: "Криштиану Роналду", Team: "Аль-Наср", Position: "Нападающий", Nationality: "Португалия"},
		},
	}}
	e.h = New(Deps{
		Store: st, Catalog: cat, Publisher: e.pub, Jobs: e.jobs, Stats: e.stats,
		Location: time.UTC, Now: func() time.Time { return testNow },
	}, logx.Nop())
	return e
}

const userID = 777

func (e *env) command(name string, args ...string) *router.Request {
	return &router.Request{
		Update:  kit.Update{Kind: kit.UpdateMessage},
		Chat:    kit.ChatTarget{ChatID: userID},
		FromID:  userID,
		Command: name,
		Args:    args,
		IsOwner: true,
		Adapter: e.ad,
		Logger:  logx.Nop(),
	}
}

func (e *env) callback(action, payload string) *router.Request {
	return &router.Request{
		Update:    kit.Update{Kind: kit.UpdateCallback},
		Chat:      kit.ChatTarget{ChatID: userID},
		FromID:    userID,
		MessageID: 42,
		Command:   "cb:" + Prefix + ":" + action,
		Payload:   payload,
		Adapter:   e.ad,
		Logger:    logx.Nop(),
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestSubscribeFlow(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	if err := e.h.cbTeam(ctx, e.callback("team", "0"), "0"); err != nil {
		t.Fatalf("team: %v", err)
	}
	if !strings.Contains(e.ad.last(), "Кингдом Арена") || !strings.Contains(e.ad.last(), "Очки") {
		t.Fatalf("team screen = %q", e.ad.last())
	}
	if !contains(e.ad.lastButtons(), "menu:sub:team:0") {
		t.Fatalf("buttons = %v, want subscribe", e.ad.lastButtons())
	}

	if err := e.h.cbSub(ctx, e.callback("sub", "team:0"), "team:0"); err != nil {
		t.Fatalf("sub: %v", err)
	}
	if !strings.Contains(e.ad.last(), "Вы подписались на Аль-Хиляль") {
		t.Fatalf("sub reply = %q", e.ad.last())
	}
	if err := e.h.cbSub(ctx, e.callback("sub", "team:0"), "team:0"); err != nil {
		t.Fatalf("sub again: %v", err)
	}
	if !strings.Contains(e.ad.last(), "уже подписаны") {
		t.Fatalf("repeat sub reply = %q", e.ad.last())
	}

	subs, err := e.store.SubscriptionsOf(ctx, userID)
	if err != nil || len(subs) != 1 || subs[0].EntityName != "Аль-Хиляль" || subs[0].EntityKind != storage.KindTeam {
		t.Fatalf("subs = %+v, %v", subs, err)
	}

	if err := e.h.cbTeam(ctx, e.callback("team", "0"), "0"); err != nil {
		t.Fatalf("team: %v", err)
	}
	if !contains(e.ad.lastButtons(), "menu:unsub:team:0") {
		t.Fatalf("buttons = %v, want unsubscribe", e.ad.lastButtons())
	}

	if err := e.h.cbUnsub(ctx, e.callback("unsub", "team:0"), "team:0"); err != nil {
		t.Fatalf("unsub: %v", err)
	}
	subs, _ = e.store.SubscriptionsOf(ctx, userID)
	if len(subs) != 0 {
		t.Fatalf("subs after unsub = %+v", subs)
	}
	if err := e.h.cbSubs(ctx, e.callback("subs", ""), ""); err != nil {
		t.Fatalf("subs: %v", err)
	}
	if !strings.Contains(e.ad.last(), "нет активных подписок") {
		t.Fatalf("subs screen = %q", e.ad.last())
	}
}

func TestBadPayload(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	for _, p := range []string{"team:9", "player:x", "coach:0", "team"} {
		if err := e.h.cbSub(ctx, e.callback("sub", p), p); !errors.Is(err, errBadPayload) {
			t.Fatalf("sub %q err = %v", p, err)
		}
	}
}

func TestSettingsToggle(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	if err := e.h.cbSettings(ctx, e.callback("settings", ""), ""); err != nil {
		t.Fatalf("settings: %v", err)
	}
	if !strings.Contains(e.ad.last(), "включены") || !strings.Contains(e.ad.last(), "Русский") {
		t.Fatalf("settings screen = %q", e.ad.last())
	}
	if err := e.h.cbSettings(ctx, e.callback("settings", "notify"), "notify"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	us, err := e.store.UserSettings(ctx, userID)
	if err != nil || us.Notifications {
		t.Fatalf("settings = %+v, %v", us, err)
	}
	if !strings.Contains(e.ad.last(), "выключены") {
		t.Fatalf("settings screen = %q", e.ad.last())
	}
}

func TestShowEditsOnCallback(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	if err := e.h.cmdMenu(ctx, e.command("menu")); err != nil {
		t.Fatal(err)
	}
	if err := e.h.cbHome(ctx, e.callback("home", ""), ""); err != nil {
		t.Fatal(err)
	}
	if len(e.ad.sent) != 1 || len(e.ad.edits) != 1 {
		t.Fatalf("sent=%d edits=%d", len(e.ad.sent), len(e.ad.edits))
	}
	for _, d := range e.ad.lastButtons() {
		if len(d) > 64 {
			t.Fatalf("callback data too long: %q", d)
		}
	}
}

func TestPublishCommand(t *testing.T) {
	t.Parallel()
	tests := []struct {
		args     []string
		jobErr   error
		wantJob  string
		wantKind content.Kind
		wantText string
	}{
		{args: []string{"quick"}, wantJob: pipeline.JobQuickNews, wantText: "выполнена"},
		{args: []string{"TABLE"}, wantJob: pipeline.JobWeeklyTable, wantText: "выполнена"},
		{args: []string{"full"}, jobErr: scheduler.ErrOverlapSkip, wantJob: pipeline.JobFullNews, wantText: "уже выполняется"},
		{args: []string{"housekeeping"}, jobErr: errors.New("db down"), wantJob: pipeline.JobHousekeeping, wantText: "db down"},
		{args: []string{"transfer"}, wantKind: content.Transfer, wantText: "Опубликовано: Новость"},
		{args: []string{"startup"}, wantText: "Использование"},
		{args: []string{"bogus"}, wantText: "Использование"},
		{args: nil, wantText: "Использование"},
	}
	for _, tt := range tests {
		e := newEnv(t)
		e.jobs.err = tt.jobErr
		if err := e.h.cmdPublish(context.Background(), e.command("publish", tt.args...)); err != nil {
			t.Fatalf("publish %v: %v", tt.args, err)
		}
		if tt.wantJob != "" && (len(e.jobs.ran) != 1 || e.jobs.ran[0] != tt.wantJob) {
			t.Fatalf("publish %v ran %v, want %s", tt.args, e.jobs.ran, tt.wantJob)
		}
		if tt.wantKind != "" && (len(e.pub.kinds) != 1 || e.pub.kinds[0] != tt.wantKind) {
			t.Fatalf("publish %v kinds %v", tt.args, e.pub.kinds)
		}
		if !strings.Contains(e.ad.last(), tt.wantText) {
			t.Fatalf("publish %v reply = %q, want %q", tt.args, e.ad.last(), tt.wantText)
		}
	}
}

func TestJobsCommand(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	if err := e.h.cmdJobs(context.Background(), e.command("jobs")); err != nil {
		t.Fatal(err)
	}
	got := e.ad.last()
	if !strings.Contains(got, "quick_news") || !strings.Contains(got, "5 minutes from now") {
		t.Fatalf("jobs = %q", got)
	}
}

func TestTrackAndStats(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	handler := e.h.Track()(e.h.cmdStats)

	if err := e.store.RecordStat(ctx, storage.StatQuickNewsSent, 1); err != nil {
		t.Fatal(err)
	}
	e.stats.PostSent()
	if err := handler(ctx, e.command("stats")); err != nil {
		t.Fatalf("stats: %v", err)
	}
	n, err := e.store.RequestCount(ctx, userID)
	if err != nil || n != 1 {
		t.Fatalf("request count = %d, %v", n, err)
	}
	if got := e.stats.Snapshot(testNow).UsersInteracted; got != 1 {
		t.Fatalf("users = %d", got)
	}
	text := e.ad.last()
	for _, want := range []string{"Постов отправлено</b>: 1", storage.StatQuickNewsSent, "Сегодня (2026-10-15)"} {
		if !strings.Contains(text, want) {
			t.Fatalf("stats text missing %q:\n%s", want, text)
		}
	}
}

func TestTrackCountsErrors(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	boom := errors.New("boom")
	handler := e.h.Track()(func(context.Context, *router.Request) error { return boom })
	if err := handler(context.Background(), e.callback("home", "")); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if got := e.stats.Snapshot(testNow).ErrorsHandled; got != 1 {
		t.Fatalf("errors = %d", got)
	}
}

func TestTopScorersStablePerDay(t *testing.T) {
	t.Parallel()
	players := []catalog.Player{{Name: "A"}, {Name: "B"}, {Name: "C"}, {Name: "D"}}
	a := TopScorers(players, "2026-10-15", 3)
	b := TopScorers(players, "2026-10-15", 3)
	if len(a) != 3 {
		t.Fatalf("len = %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("not stable: %v vs %v", a, b)
		}
		if i > 0 && a[i].Goals > a[i-1].Goals {
			t.Fatalf("not sorted: %v", a)
		}
	}
}

func TestFixturesScreen(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	if err := e.h.cbFixtures(ctx, e.callback("fixtures", ""), ""); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(e.ad.last(), "матчей не запланировано") {
		t.Fatalf("empty fixtures = %q", e.ad.last())
	}
	if _, err := e.store.SaveMatch(ctx, storage.Match{HomeTeam: "Аль-Хиляль", AwayTeam: "Аль-Наср", Day: "2026-10-15", Kickoff: "20:00"}); err != nil {
		t.Fatal(err)
	}
	if err := e.h.cbFixtures(ctx, e.callback("fixtures", ""), ""); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(e.ad.last(), "20:00 Аль-Хиляль - Аль-Наср") {
		t.Fatalf("fixtures = %q", e.ad.last())
	}
}

func TestNewsScreen(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	if err := e.h.cbNews(ctx, e.callback("news", ""), ""); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(e.ad.last(), "Новостей пока нет") {
		t.Fatalf("empty news = %q", e.ad.last())
	}

	for _, title := range []string{"Старая", "Вторая", "Третья", "Свежая"} {
		rec := storage.ContentRecord{
			Title: title, Type: "quick", Summary: "Кратко: " + title, Importance: 1,
			Tags: []string{"#Аль_Хиляль", "#SPL", "#Трансфер"},
		}
		if _, _, err := e.store.SubmitContent(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}
	if err := e.h.cbNews(ctx, e.callback("news", ""), ""); err != nil {
		t.Fatal(err)
	}
	got := e.ad.last()
	for _, want := range []string{"1. Свежая", "2. Третья", "3. Вторая", "Кратко: Свежая", "#Аль_Хиляль #SPL", "15.10 12:00"} {
		if !strings.Contains(got, want) {
			t.Fatalf("news missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Старая") || strings.Contains(got, "#Трансфер") {
		t.Fatalf("news shows too much:\n%s", got)
	}
}

func TestAboutScreen(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	if err := e.h.cbAbout(context.Background(), e.callback("about", ""), ""); err != nil {
		t.Fatal(err)
	}
	got := e.ad.last()
	if !strings.Contains(got, pipeline.JobQuickNews) || !strings.Contains(got, "every 15m") {
		t.Fatalf("about = %q", got)
	}
	if d := e.ad.lastButtons(); len(d) != 1 || d[0] != data("home", "") {
		t.Fatalf("buttons = %v", d)
	}
}

func TestMainMenuLinksNewsAndAbout(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	if err := e.h.cbHome(context.Background(), e.callback("home", ""), ""); err != nil {
		t.Fatal(err)
	}
	routes := map[string]bool{}
	for _, r := range e.h.Callbacks() {
		routes[tgui.Data(r.Prefix, r.Action, "")] = true
	}
	for _, d := range e.ad.lastButtons() {
		if !routes[d] {
			t.Fatalf("button %q has no route", d)
		}
	}
	for _, want := range []string{data("news", ""), data("about", "")} {
		if !routes[want] {
			t.Fatalf("no route for %q", want)
		}
	}
}
