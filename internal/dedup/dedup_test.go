package dedup

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/content"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/storage"
	logx "github.com/Dmitry77701/saudi-football-bot-advanced/pkg/logx"
)

func TestSubmitScenario(t *testing.T) {
	t.Parallel()
	st, err := storage.Open(context.Background(), storage.Config{Path: filepath.Join(t.TempDir(), "bot.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	d := New(st, logx.Nop())
	ctx := context.Background()
	c := content.Candidate{Kind: content.Full, Title: "Team A beats Team B 2-1", Body: "...", Importance: 2}

	res, err := d.Submit(ctx, c)
	if err != nil || !res.Accepted || res.Record.PublishAttempts != 0 {
		t.Fatalf("first submit = %+v, %v", res, err)
	}
	res2, err := d.Submit(ctx, c)
	if err != nil || res2.Accepted || res2.Record.PublishAttempts != 1 {
		t.Fatalf("second submit = %+v, %v", res2, err)
	}

	if err := d.MarkDelivered(ctx, res.Record); err != nil {
		t.Fatalf("MarkDelivered: %v", err)
	}
	got, err := st.RecentContent(ctx, "full", 1)
	if err != nil || len(got) != 1 || got[0].Title != c.Title || !got[0].Published {
		t.Fatal("record not marked published")
	}
}

type failingStore struct{}

func (failingStore) SubmitContent(context.Context, storage.ContentRecord) (bool, storage.ContentRecord, error) {
	return true, storage.ContentRecord{}, &storage.Error{Op: "submit content", Err: errors.New("disk I/O error")}
}

func (failingStore) MarkPublished(context.Context, int64, time.Time) error { return nil }

func TestSubmitFailsClosed(t *testing.T) {
	t.Parallel()
	d := New(failingStore{}, logx.Nop())
	res, err := d.Submit(context.Background(), content.Candidate{Kind: content.Quick, Title: "x", Importance: 1})
	if err == nil || res.Accepted {
		t.Fatalf("res=%+v err=%v, want rejection with error", res, err)
	}
	if !errors.Is(err, storage.ErrStorage) {
		t.Fatalf("err %v does not match ErrStorage", err)
	}
}
