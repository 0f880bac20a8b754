package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/catalog"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/config"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/content"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/dedup"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/health"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/notifier"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/stats"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/storage"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/task/scheduler"
	logx "github.com/Dmitry77701/saudi-football-bot-advanced/pkg/logx"
)

var testNow = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

type fakeDeliverer struct {
	mu  sync.Mutex
	got []notifier.Delivery
	err error
}

func (f *fakeDeliverer) Deliver(_ context.Context, d notifier.Delivery) (notifier.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, d)
	if f.err != nil {
		return notifier.Result{}, f.err
	}
	return notifier.Result{Notified: 2}, nil
}

func (f *fakeDeliverer) deliveries() []notifier.Delivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notifier.Delivery(nil), f.got...)
}

type staticCatalog struct{}

func (staticCatalog) Snapshot() catalog.Data { return catalog.Builtin() }

type env struct {
	store *storage.Store
	clock *time.Time
	out   *fakeDeliverer
	stats *stats.RuntimeStats
	hc    *health.Checker
	p     *Pipeline
}

func newEnv(t *testing.T, seed int64, opts ...Option) *env {
	t.Helper()
	now := testNow
	e := &env{clock: &now, out: &fakeDeliverer{}, stats: stats.New(testNow), hc: health.New(testNow)}
	st, err := storage.Open(context.Background(),
		storage.Config{Path: filepath.Join(t.TempDir(), "bot.db")}, logx.Nop(),
		storage.WithClock(func() time.Time { return *e.clock }))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	e.store = st
	e.p = e.pipeline(seed, opts...)
	return e
}

func (e *env) pipeline(seed int64, opts ...Option) *Pipeline {
	opts = append([]Option{WithClock(func() time.Time { return *e.clock })}, opts...)
	return New(Deps{
		Store:     e.store,
		Dedup:     dedup.New(e.store, logx.Nop()),
		Notifier:  e.out,
		Generator: content.NewSeeded(seed),
		Catalog:   staticCatalog{},
		Stats:     e.stats,
		Health:    e.hc,
		Location:  time.UTC,
	}, logx.Nop(), opts...)
}

func (e *env) stat(t *testing.T, typ string) int64 {
	t.Helper()
	m, err := e.store.StatsForDay(context.Background(), "")
	if err != nil {
		t.Fatalf("StatsForDay: %v", err)
	}
	return m[typ]
}

func (e *env) record(t *testing.T, c content.Candidate) storage.ContentRecord {
	t.Helper()
	list, err := e.store.RecentContent(context.Background(), string(c.Kind), 100)
	if err != nil {
		t.Fatalf("RecentContent: %v", err)
	}
	for _, rec := range list {
		if rec.Title == c.Title {
			return rec
		}
	}
	t.Fatalf("%q not stored", c.Title)
	return storage.ContentRecord{}
}

func TestPublishCandidateOnce(t *testing.T) {
	t.Parallel()
	e := newEnv(t, 1)
	ctx := context.Background()
	c := content.Candidate{
		Kind:       content.Full,
		Title:      "Team A beats Team B 2-1",
		Body:       "Аль-Хиляль одержал победу.",
		Importance: 2,
	}

	out, err := e.p.PublishCandidate(ctx, c)
	if err != nil || !out.Accepted {
		t.Fatalf("first publish = %+v, %v", out, err)
	}
	out, err = e.p.PublishCandidate(ctx, c)
	if err != nil || out.Accepted {
		t.Fatalf("second publish = %+v, %v", out, err)
	}
	if out.Record.PublishAttempts != 1 {
		t.Fatalf("attempts = %d, want 1", out.Record.PublishAttempts)
	}

	if n := len(e.out.deliveries()); n != 1 {
		t.Fatalf("deliveries = %d, want 1", n)
	}
	if rec := e.record(t, c); !rec.Published {
		t.Fatalf("record = %+v", rec)
	}
	if got := e.stat(t, StatFullNews); got != 1 {
		t.Fatalf("%s = %d", StatFullNews, got)
	}
	snap := e.stats.Snapshot(testNow)
	if snap.PostsSent != 1 || snap.Duplicates != 1 || snap.SubscriberNotifications != 2 {
		t.Fatalf("stats = %+v", snap)
	}
	if r := e.hc.Report(testNow); r.Messages.Status != health.Healthy {
		t.Fatalf("message health = %s", r.Messages.Status)
	}
}

func TestFailedDeliveryLeavesRecordUnpublished(t *testing.T) {
	t.Parallel()
	e := newEnv(t, 1)
	e.out.err = errors.New("network down")
	ctx := context.Background()
	c := content.Candidate{Kind: content.Quick, Title: "Срочно", Body: "текст", Importance: 1}

	if _, err := e.p.PublishCandidate(ctx, c); err == nil {
		t.Fatalf("expected delivery error")
	}
	if rec := e.record(t, c); rec.Published {
		t.Fatalf("record marked published after failed delivery")
	}
	if got := e.stat(t, StatQuickNews); got != 0 {
		t.Fatalf("stat recorded for failed delivery: %d", got)
	}
}

type brokenDedup struct{}

func (brokenDedup) Submit(context.Context, content.Candidate) (dedup.Result, error) {
	return dedup.Result{}, &storage.Error{Op: "submit content", Err: errors.New("disk I/O error")}
}

func (brokenDedup) MarkDelivered(context.Context, storage.ContentRecord) error { return nil }

func TestStorageFailureAbortsBeforeDelivery(t *testing.T) {
	t.Parallel()
	e := newEnv(t, 1)
	e.p.d.Dedup = brokenDedup{}

	_, err := e.p.PublishCandidate(context.Background(), content.Candidate{Kind: content.Quick, Title: "x", Importance: 1})
	if !errors.Is(err, storage.ErrStorage) {
		t.Fatalf("err = %v, want storage error", err)
	}
	if n := len(e.out.deliveries()); n != 0 {
		t.Fatalf("delivered %d times despite storage failure", n)
	}
}

func TestFullNewsDigestAndDedup(t *testing.T) {
	t.Parallel()
	e := newEnv(t, 42)
	ctx := context.Background()

	if err := e.p.FullNews(ctx); err != nil {
		t.Fatalf("FullNews: %v", err)
	}
	got := e.out.deliveries()
	if len(got) != 1 {
		t.Fatalf("deliveries = %d, want one digest", len(got))
	}
	if !strings.Contains(got[0].Text, "НОВОСТИ АРАБСКОГО ФУТБОЛА") || !strings.Contains(got[0].Text, "1. ") {
		t.Fatalf("digest text = %q", got[0].Text)
	}
	sent := e.stat(t, StatFullNews)
	if sent < 1 || sent > 5 {
		t.Fatalf("%s = %d, want 1..5", StatFullNews, sent)
	}

	// The same seed regenerates the same batch; nothing is new.
	again := e.pipeline(42)
	if err := again.FullNews(ctx); err != nil {
		t.Fatalf("FullNews again: %v", err)
	}
	if n := len(e.out.deliveries()); n != 1 {
		t.Fatalf("deliveries after repeat = %d, want 1", n)
	}
}

func TestWeeklyTable(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		render    func(string, []content.Standing) ([]byte, error)
		wantPhoto bool
	}{
		{name: "image", render: func(string, []content.Standing) ([]byte, error) { return []byte("png"), nil }, wantPhoto: true},
		{name: "render fails", render: func(string, []content.Standing) ([]byte, error) { return nil, errors.New("no font") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newEnv(t, 3, WithRenderer(tt.render))
			if err := e.p.WeeklyTable(context.Background()); err != nil {
				t.Fatalf("WeeklyTable: %v", err)
			}
			got := e.out.deliveries()
			if len(got) != 1 {
				t.Fatalf("deliveries = %d", len(got))
			}
			d := got[0]
			if (d.Photo != nil) != tt.wantPhoto {
				t.Fatalf("photo = %v, want %v", d.Photo != nil, tt.wantPhoto)
			}
			if !strings.Contains(d.Text, "<pre>") || !d.SkipFanout {
				t.Fatalf("delivery = %+v", d)
			}
			if got := e.stat(t, StatTable); got != 1 {
				t.Fatalf("%s = %d", StatTable, got)
			}
		})
	}
}

func TestDailyFixturesUsesStoredMatches(t *testing.T) {
	t.Parallel()
	e := newEnv(t, 5)
	ctx := context.Background()
	if _, err := e.store.SaveMatch(ctx, storage.Match{
		HomeTeam: "Аль-Хиляль", AwayTeam: "Аль-Наср", Day: storage.Day(testNow), Kickoff: "20:00",
	}); err != nil {
		t.Fatalf("SaveMatch: %v", err)
	}

	if err := e.p.DailyFixtures(ctx); err != nil {
		t.Fatalf("DailyFixtures: %v", err)
	}
	d := e.out.deliveries()[0]
	if !strings.Contains(d.Text, "20:00") || d.Plain != "Аль-Хиляль - Аль-Наср" {
		t.Fatalf("delivery = %+v", d)
	}
	if got := e.stat(t, StatMatches); got != 1 {
		t.Fatalf("%s = %d", StatMatches, got)
	}
}

func TestHousekeepingSweepsExpiredCache(t *testing.T) {
	t.Parallel()
	e := newEnv(t, 1)
	ctx := context.Background()
	if err := e.store.CachePut(ctx, "standings", "league=4480", []byte(`{}`), time.Minute); err != nil {
		t.Fatalf("CachePut: %v", err)
	}
	if err := e.store.CachePut(ctx, "feed", "url=x", []byte(`[]`), 3*time.Hour); err != nil {
		t.Fatalf("CachePut: %v", err)
	}
	*e.clock = testNow.Add(time.Hour)

	if err := e.p.Housekeeping(ctx); err != nil {
		t.Fatalf("Housekeeping: %v", err)
	}
	if _, ok, _ := e.store.CacheGet(ctx, "feed", "url=x"); !ok {
		t.Fatalf("live entry removed")
	}
	stats, err := e.store.DatabaseStats(ctx)
	if err != nil {
		t.Fatalf("DatabaseStats: %v", err)
	}
	if n := stats.Tables["api_cache"]; n != 1 {
		t.Fatalf("api_cache rows = %d, want 1", n)
	}
	m, _ := e.store.StatsForDay(ctx, "")
	if _, ok := m[StatHealthCheck]; !ok {
		t.Fatalf("no %s stat recorded", StatHealthCheck)
	}
	if r := e.hc.Report(*e.clock); r.DB.Status != health.Healthy {
		t.Fatalf("db health = %s", r.DB.Status)
	}
}

func TestJobTable(t *testing.T) {
	t.Parallel()
	e := newEnv(t, 1)
	specs, err := e.p.JobTable(config.ScheduleConfig{QuickOffset: "2m", WeeklyDay: "mon"})
	if err != nil {
		t.Fatalf("JobTable: %v", err)
	}
	want := map[string]scheduler.Kind{
		JobQuickNews:     scheduler.KindInterval,
		JobFullNews:      scheduler.KindInterval,
		JobDailyFixtures: scheduler.KindDaily,
		JobWeeklyTable:   scheduler.KindWeekly,
		JobStartup:       scheduler.KindOnce,
		JobHousekeeping:  scheduler.KindInterval,
	}
	if len(specs) != len(want) {
		t.Fatalf("specs = %d", len(specs))
	}
	for _, s := range specs {
		if want[s.Name] != s.Kind || s.Run == nil {
			t.Fatalf("spec %s = %+v", s.Name, s)
		}
		switch s.Name {
		case JobQuickNews:
			if s.Offset != 2*time.Minute || s.Period != 15*time.Minute {
				t.Fatalf("quick = %+v", s)
			}
		case JobWeeklyTable:
			if s.Weekday != time.Monday || s.At != "10:00" {
				t.Fatalf("weekly = %+v", s)
			}
		case JobStartup:
			if s.Offset != 10*time.Second {
				t.Fatalf("startup = %+v", s)
			}
		}
	}

	if err := e.p.Startup(context.Background()); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	text := e.out.deliveries()[0].Text
	if !strings.Contains(text, "ежедневно в 09:00") || !strings.Contains(text, "понедельник в 10:00") {
		t.Fatalf("startup text = %q", text)
	}
}

func TestLatestStandingsIsStable(t *testing.T) {
	t.Parallel()
	e := newEnv(t, 5)
	ctx := context.Background()
	a := e.p.LatestStandings(ctx)
	b := e.p.LatestStandings(ctx)
	if len(a) == 0 || len(a) != len(b) {
		t.Fatalf("rows = %d, %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("row %d changed: %+v vs %+v", i, a[i], b[i])
		}
	}
}
