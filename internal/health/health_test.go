package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/eventbus"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestReportStatuses(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)
	c := New(start)
	if got := c.Report(start).Overall; got != Starting {
		t.Fatalf("fresh overall = %s", got)
	}

	c.MessageSent(start.Add(10 * time.Minute))
	c.APISucceeded(start.Add(10 * time.Minute))
	c.DBSucceeded(start.Add(10 * time.Minute))

	tests := []struct {
		name string
		at   time.Duration
		want Status
		api  Status
	}{
		{"all fresh", 30 * time.Minute, Healthy, Healthy},
		{"messages stale", 80 * time.Minute, Warning, Healthy},
		{"api stale too", 3 * time.Hour, Warning, Warning},
	}
	for _, tt := range tests {
		r := c.Report(start.Add(tt.at))
		if r.Overall != tt.want || r.API.Status != tt.api {
			t.Fatalf("%s: overall=%s api=%s", tt.name, r.Overall, r.API.Status)
		}
	}
}

func TestCheckDB(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)
	c := New(now)
	if err := c.CheckDB(context.Background(), pingFunc(func(context.Context) error { return errors.New("locked") }), now); err == nil {
		t.Fatal("expected ping error")
	}
	if c.Report(now).DB.Status != Unknown {
		t.Fatal("failed ping recorded as success")
	}
	if err := c.CheckDB(context.Background(), pingFunc(func(context.Context) error { return nil }), now); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if c.Report(now).DB.Status != Healthy {
		t.Fatal("db not healthy after ping")
	}
}

func TestFollowMarksDeliveries(t *testing.T) {
	t.Parallel()

	bus := eventbus.New()
	c := New(time.Now())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = c.Follow(ctx, bus)
		close(done)
	}()

	at := time.Now().Add(time.Minute)
	deadline := time.After(2 * time.Second)
	for c.Report(at).Messages.Status == Unknown {
		bus.Publish(eventbus.Event{Type: eventbus.DeliverySent, Time: at})
		select {
		case <-deadline:
			t.Fatal("delivery event not observed")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-done
}
