package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	logx "github.com/Dmitry77701/saudi-football-bot-advanced/pkg/logx"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func findContent(t *testing.T, st *Store, title, typ string) ContentRecord {
	t.Helper()
	list, err := st.RecentContent(context.Background(), typ, 100)
	if err != nil {
		t.Fatalf("RecentContent: %v", err)
	}
	for _, rec := range list {
		if rec.Title == title {
			return rec
		}
	}
	t.Fatalf("content %q/%s not stored", title, typ)
	return ContentRecord{}
}

func openTestStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()
	clk := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	st, err := Open(context.Background(), Config{Path: filepath.Join(t.TempDir(), "db", "bot.db")}, logx.Nop(), WithClock(clk.Now))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st, clk
}

func TestSubmitContentDedup(t *testing.T) {
	t.Parallel()
	st, _ := openTestStore(t)
	ctx := context.Background()
	rec := ContentRecord{Title: "Аль-Хиляль побеждает", Type: "quick", Body: "b", Importance: 2, Tags: []string{"#a"}}

	ok, first, err := st.SubmitContent(ctx, rec)
	if err != nil || !ok {
		t.Fatalf("first submit: ok=%v err=%v", ok, err)
	}
	if first.ID == 0 || first.PublishAttempts != 0 {
		t.Fatalf("unexpected first record: %+v", first)
	}

	ok, second, err := st.SubmitContent(ctx, rec)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if ok {
		t.Fatal("duplicate was accepted")
	}
	if second.ID != first.ID || second.PublishAttempts != 1 {
		t.Fatalf("duplicate record = %+v, want id %d attempts 1", second, first.ID)
	}

	// Same title under another type is a different item.
	rec.Type = "full"
	if ok, _, err := st.SubmitContent(ctx, rec); err != nil || !ok {
		t.Fatalf("other type: ok=%v err=%v", ok, err)
	}

	got := findContent(t, st, "Аль-Хиляль побеждает", "quick")
	if len(got.Tags) != 1 || got.Tags[0] != "#a" {
		t.Fatalf("tags = %v", got.Tags)
	}
}

func TestSubmitContentConcurrentSingleWinner(t *testing.T) {
	t.Parallel()
	st, _ := openTestStore(t)
	ctx := context.Background()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _, err := st.SubmitContent(ctx, ContentRecord{Title: "same", Type: "quick", Importance: 1})
			if err != nil {
				t.Errorf("submit: %v", err)
				return
			}
			if ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	if wins.Load() != 1 {
		t.Fatalf("accepted %d times, want 1", wins.Load())
	}
	if got := findContent(t, st, "same", "quick"); got.PublishAttempts != 7 {
		t.Fatalf("attempts = %d, want 7", got.PublishAttempts)
	}
}

func TestSubmitContentValidation(t *testing.T) {
	t.Parallel()
	st, _ := openTestStore(t)
	tests := []struct {
		name string
		rec  ContentRecord
	}{
		{name: "empty title", rec: ContentRecord{Title: "  ", Type: "quick", Importance: 1}},
		{name: "empty type", rec: ContentRecord{Title: "x", Importance: 1}},
		{name: "importance low", rec: ContentRecord{Title: "x", Type: "quick", Importance: 0}},
		{name: "importance high", rec: ContentRecord{Title: "x", Type: "quick", Importance: 4}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := st.SubmitContent(context.Background(), tt.rec)
			if !errors.Is(err, ErrStorage) {
				t.Fatalf("err = %v, want ErrStorage", err)
			}
		})
	}
}

func TestMarkPublishedAndListing(t *testing.T) {
	t.Parallel()
	st, clk := openTestStore(t)
	ctx := context.Background()

	_, a, _ := st.SubmitContent(ctx, ContentRecord{Title: "a", Type: "full", Importance: 1})
	clk.Advance(time.Minute)
	_, b, _ := st.SubmitContent(ctx, ContentRecord{Title: "b", Type: "full", Importance: 3})

	list, err := st.RecentContent(ctx, "", 10)
	if err != nil {
		t.Fatalf("RecentContent: %v", err)
	}
	if len(list) != 2 || list[0].ID != b.ID || list[0].Published || list[1].Published {
		t.Fatalf("recent order wrong: %+v", list)
	}

	if err := st.MarkPublished(ctx, a.ID, time.Time{}); err != nil {
		t.Fatalf("MarkPublished: %v", err)
	}
	if got := findContent(t, st, "a", "full"); !got.Published || got.PublishedAt.IsZero() {
		t.Fatalf("after publish: %+v", got)
	}
	if got := findContent(t, st, "b", "full"); got.Published {
		t.Fatalf("b published: %+v", got)
	}
	if err := st.MarkPublished(ctx, 9999, time.Time{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing id err = %v", err)
	}

	recent, err := st.RecentContent(ctx, "full", 1)
	if err != nil || len(recent) != 1 || recent[0].Title != "b" {
		t.Fatalf("RecentContent = %+v, %v", recent, err)
	}
}

func TestSubscriptionsLifecycle(t *testing.T) {
	t.Parallel()
	st, _ := openTestStore(t)
	ctx := context.Background()

	created, err := st.Subscribe(ctx, 42, "Аль-Наср", KindTeam)
	if err != nil || !created {
		t.Fatalf("Subscribe: created=%v err=%v", created, err)
	}
	created, err = st.Subscribe(ctx, 42, "Аль-Наср", KindTeam)
	if err != nil || created {
		t.Fatalf("second Subscribe: created=%v err=%v", created, err)
	}
	if _, err := st.Subscribe(ctx, 7, "Аль-Наср", KindTeam); err != nil {
		t.Fatalf("Subscribe other: %v", err)
	}

	ids, err := st.SubscribersFor(ctx, "Аль-Наср", KindTeam)
	if err != nil || len(ids) != 2 || ids[0] != 7 || ids[1] != 42 {
		t.Fatalf("SubscribersFor = %v, %v", ids, err)
	}

	removed, err := st.Unsubscribe(ctx, 42, "Аль-Наср", KindTeam)
	if err != nil || !removed {
		t.Fatalf("Unsubscribe: %v %v", removed, err)
	}
	removed, _ = st.Unsubscribe(ctx, 42, "Аль-Наср", KindTeam)
	if removed {
		t.Fatal("second Unsubscribe reported removal")
	}
	ids, _ = st.SubscribersFor(ctx, "Аль-Наср", KindTeam)
	if len(ids) != 1 || ids[0] != 7 {
		t.Fatalf("after unsubscribe: %v", ids)
	}

	// Resubscribing after deactivation creates a fresh active row.
	created, err = st.Subscribe(ctx, 42, "Аль-Наср", KindTeam)
	if err != nil || !created {
		t.Fatalf("resubscribe: %v %v", created, err)
	}
	subs, err := st.SubscriptionsOf(ctx, 42)
	if err != nil || len(subs) != 1 || !subs[0].Active {
		t.Fatalf("SubscriptionsOf = %+v, %v", subs, err)
	}

	if _, err := st.Subscribe(ctx, 1, "x", "coach"); !errors.Is(err, ErrStorage) {
		t.Fatalf("bad kind err = %v", err)
	}
}

func TestCacheExpiryAndSweep(t *testing.T) {
	t.Parallel()
	st, clk := openTestStore(t)
	ctx := context.Background()
	params := CanonicalParams(map[string]string{"s": "2024", "l": "4480"})
	if params != "l=4480&s=2024" {
		t.Fatalf("CanonicalParams = %q", params)
	}

	if err := st.CachePut(ctx, "standings", params, []byte(`{"ok":1}`), 0); err != nil {
		t.Fatalf("CachePut: %v", err)
	}
	got, ok, err := st.CacheGet(ctx, "standings", params)
	if err != nil || !ok || string(got) != `{"ok":1}` {
		t.Fatalf("CacheGet fresh = %q %v %v", got, ok, err)
	}

	clk.Advance(61 * time.Minute)
	if _, ok, _ := st.CacheGet(ctx, "standings", params); ok {
		t.Fatal("expired entry served")
	}
	n, err := st.CacheSweep(ctx)
	if err != nil || n != 1 {
		t.Fatalf("CacheSweep = %d, %v", n, err)
	}
}

func TestStatsAndUsers(t *testing.T) {
	t.Parallel()
	st, _ := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := st.RecordStat(ctx, StatQuickNewsSent, 1); err != nil {
			t.Fatalf("RecordStat: %v", err)
		}
	}
	all, err := st.StatsForDay(ctx, "")
	if err != nil || all[StatQuickNewsSent] != 3 {
		t.Fatalf("StatsForDay = %v, %v", all, err)
	}

	if _, err := st.UserSettings(ctx, 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing user err = %v", err)
	}
	if err := st.EnsureUser(ctx, 5); err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}
	us, err := st.UserSettings(ctx, 5)
	if err != nil || us.Language != "ru" || us.NotificationTime != "09:00" || !us.Notifications {
		t.Fatalf("defaults = %+v, %v", us, err)
	}
	if err := st.UpdateUserSettings(ctx, UserSettings{UserID: 5, Language: "en"}); err != nil {
		t.Fatalf("UpdateUserSettings: %v", err)
	}
	us, _ = st.UserSettings(ctx, 5)
	if us.Language != "en" || us.Timezone != "UTC+3" || us.Notifications {
		t.Fatalf("updated = %+v", us)
	}

	_ = st.LogUserRequest(ctx, 5, "command", "/start")
	if n, err := st.RequestCount(ctx, 5); err != nil || n != 1 {
		t.Fatalf("RequestCount = %d, %v", n, err)
	}
}

func TestSportsData(t *testing.T) {
	t.Parallel()
	st, _ := openTestStore(t)
	ctx := context.Background()

	if err := st.UpsertTeams(ctx, []Team{{Name: "Аль-Иттихад", City: "Джидда"}, {Name: ""}}); err != nil {
		t.Fatalf("UpsertTeams: %v", err)
	}
	teams, _ := st.Teams(ctx)
	if len(teams) != 1 || teams[0].City != "Джидда" {
		t.Fatalf("Teams = %+v", teams)
	}

	rows := []StandingRow{
		{Team: "B", League: "SPL", Season: "2024", Position: 2, Points: 10},
		{Team: "A", League: "SPL", Season: "2024", Position: 1, Points: 12},
	}
	if err := st.UpsertStandings(ctx, rows); err != nil {
		t.Fatalf("UpsertStandings: %v", err)
	}
	table, _ := st.Standings(ctx, "SPL", "2024")
	if len(table) != 2 || table[0].Team != "A" {
		t.Fatalf("Standings = %+v", table)
	}

	two := 2
	id1, err := st.SaveMatch(ctx, Match{HomeTeam: "A", AwayTeam: "B", Day: "2024-03-01", Kickoff: "20:00"})
	if err != nil {
		t.Fatalf("SaveMatch: %v", err)
	}
	id2, _ := st.SaveMatch(ctx, Match{HomeTeam: "A", AwayTeam: "B", Day: "2024-03-01", Kickoff: "20:00", Status: "finished", HomeScore: &two, AwayScore: &two})
	if id1 != id2 {
		t.Fatalf("match ids differ: %d vs %d", id1, id2)
	}
	matches, _ := st.MatchesOn(ctx, "2024-03-01")
	if len(matches) != 1 || matches[0].HomeScore == nil || *matches[0].HomeScore != 2 {
		t.Fatalf("MatchesOn = %+v", matches)
	}

	dbs, err := st.DatabaseStats(ctx)
	if err != nil || dbs.Tables["matches"] != 1 || dbs.Tables["teams"] != 1 {
		t.Fatalf("DatabaseStats = %+v, %v", dbs, err)
	}
}
