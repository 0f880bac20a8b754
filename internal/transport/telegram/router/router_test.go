package router

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	kit "github.com/Dmitry77701/saudi-football-bot-advanced/internal/transport"
	logx "github.com/Dmitry77701/saudi-football-bot-advanced/pkg/logx"
)

type fakeAdapter struct {
	mu       sync.Mutex
	texts    []string
	answers  []string
	menu     []kit.BotCommand
	textSeen chan string
	ansSeen  chan string
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{textSeen: make(chan string, 16), ansSeen: make(chan string, 16)}
}

func (f *fakeAdapter) Start(context.Context, chan<- kit.Update) error { return nil }
func (f *fakeAdapter) Stop(context.Context) error                     { return nil }

func (f *fakeAdapter) SendText(_ context.Context, _ kit.ChatTarget, text string, _ *kit.SendOptions) (kit.MessageRef, error) {
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	f.textSeen <- text
	return kit.MessageRef{MessageID: 1}, nil
}

func (f *fakeAdapter) SendPhoto(context.Context, kit.ChatTarget, kit.Photo, *kit.SendOptions) (kit.MessageRef, error) {
	return kit.MessageRef{}, nil
}

func (f *fakeAdapter) EditText(context.Context, kit.MessageRef, string, *kit.SendOptions) error {
	return nil
}

func (f *fakeAdapter) AnswerCallback(_ context.Context, _ string, text string) error {
	f.ansSeen <- text
	return nil
}

func (f *fakeAdapter) UpdateMenuCommands(_ context.Context, cmds []kit.BotCommand) error {
	f.mu.Lock()
	f.menu = cmds
	f.mu.Unlock()
	return nil
}

func waitText(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reply")
		return ""
	}
}

func startManager(t *testing.T, m *CommandManager) chan kit.Update {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	updates := make(chan kit.Update, 8)
	done := make(chan struct{})
	go func() {
		_ = m.DispatchLoop(ctx, updates)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return updates
}

func message(from int64, text string) kit.Update {
	return kit.Update{Kind: kit.UpdateMessage, Message: &kit.Message{
		ID: 1, ChatID: from, FromID: from, FromName: "Fan", Text: text, IsPrivate: true,
	}}
}

func callback(from int64, data string) kit.Update {
	return kit.Update{Kind: kit.UpdateCallback, Callback: &kit.Callback{
		ID: "cb1", ChatID: from, FromID: from, MessageID: 7, Data: data,
	}}
}

func TestCommandRoutingAndAccess(t *testing.T) {
	t.Parallel()

	ad := newFakeAdapter()
	m := NewCommandManager(logx.Nop(), ad, []int64{42}, WithWorkers(1))
	var gotArgs []string
	m.SetRegistry([]Command{
		{
			Name: "stats", Aliases: []string{"s"}, Description: "stats",
			Handle: func(ctx context.Context, req *Request) error {
				gotArgs = req.Args
				_, err := req.Adapter.SendText(ctx, req.Chat, "ok:"+req.Command, nil)
				return err
			},
		},
		{
			Name: "jobs", Access: AccessOwnerOnly, Description: "jobs",
			Handle: func(ctx context.Context, req *Request) error {
				_, err := req.Adapter.SendText(ctx, req.Chat, "jobs", nil)
				return err
			},
		},
	}, nil)
	updates := startManager(t, m)

	updates <- message(1, `/s@SaudiBot today "al hilal"`)
	if got := waitText(t, ad.textSeen); got != "ok:stats" {
		t.Fatalf("reply = %q", got)
	}
	if want := []string{"today", "al hilal"}; !reflect.DeepEqual(gotArgs, want) {
		t.Fatalf("args = %v, want %v", gotArgs, want)
	}

	updates <- message(1, "/jobs")
	if got := waitText(t, ad.textSeen); got != forbiddenText {
		t.Fatalf("non-owner reply = %q", got)
	}

	updates <- message(42, "/jobs")
	if got := waitText(t, ad.textSeen); got != "jobs" {
		t.Fatalf("owner reply = %q", got)
	}

	updates <- message(1, "/nope")
	if got := waitText(t, ad.textSeen); got != unknownCommandText {
		t.Fatalf("unknown reply = %q", got)
	}
}

func TestHandlerFailureRepliesGenericError(t *testing.T) {
	t.Parallel()

	ad := newFakeAdapter()
	m := NewCommandManager(logx.Nop(), ad, nil, WithWorkers(1))
	m.SetRegistry([]Command{
		{Name: "fail", Handle: func(context.Context, *Request) error { return errors.New("db down") }},
		{Name: "boom", Handle: func(context.Context, *Request) error { panic("boom") }},
	}, nil)
	updates := startManager(t, m)

	updates <- message(1, "/fail")
	if got := waitText(t, ad.textSeen); got != GenericErrorText {
		t.Fatalf("reply = %q", got)
	}
	updates <- message(1, "/boom")
	if got := waitText(t, ad.textSeen); got != GenericErrorText {
		t.Fatalf("panic reply = %q", got)
	}
}

func TestCallbackRouting(t *testing.T) {
	t.Parallel()

	ad := newFakeAdapter()
	m := NewCommandManager(logx.Nop(), ad, nil, WithWorkers(1))
	payloads := make(chan string, 1)
	m.SetRegistry(nil, []CallbackRoute{{
		Prefix: "menu", Action: "sub",
		Handle: func(_ context.Context, req *Request, payload string) error {
			if req.MessageID != 7 || !req.IsCallback() {
				t.Errorf("request = %+v", req)
			}
			payloads <- payload
			return nil
		},
	}})
	updates := startManager(t, m)

	updates <- callback(5, "menu:sub:team:Al Hilal")
	select {
	case p := <-payloads:
		if p != "team:Al Hilal" {
			t.Fatalf("payload = %q", p)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("callback not handled")
	}
	if got := waitText(t, ad.ansSeen); got != "" {
		t.Fatalf("answer = %q", got)
	}

	updates <- callback(5, "menu:missing")
	if got := waitText(t, ad.ansSeen); got != "" {
		t.Fatalf("unknown answer = %q", got)
	}
}

func TestSplitCallbackData(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in                       string
		prefix, action, payload string
		ok                       bool
	}{
		{"menu:main", "menu", "main", "", true},
		{"menu:sub:team:A", "menu", "sub", "team:A", true},
		{"menu", "", "", "", false},
		{":x", "", "", "", false},
	}
	for _, tt := range tests {
		p, a, pl, ok := splitCallbackData(tt.in)
		if p != tt.prefix || a != tt.action || pl != tt.payload || ok != tt.ok {
			t.Fatalf("split(%q) = %q %q %q %v", tt.in, p, a, pl, ok)
		}
	}
}

func TestMenuCommandsOrderAndSync(t *testing.T) {
	t.Parallel()

	ad := newFakeAdapter()
	m := NewCommandManager(logx.Nop(), ad, nil)
	noop := func(context.Context, *Request) error { return nil }
	m.SetRegistry([]Command{
		{Name: "publish", Access: AccessOwnerOnly, Description: "publish now", Handle: noop},
		{Name: "start", Description: "start", Handle: noop},
		{Name: "menu", Description: "menu", Handle: noop},
		{Name: "debug", Hidden: true, Handle: noop},
	}, nil)

	if err := m.SyncMenu(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}
	want := []kit.BotCommand{
		{Command: "menu", Description: "menu"},
		{Command: "start", Description: "start"},
		{Command: "publish", Description: "🔒 publish now"},
	}
	ad.mu.Lock()
	defer ad.mu.Unlock()
	if !reflect.DeepEqual(ad.menu, want) {
		t.Fatalf("menu = %+v", ad.menu)
	}
}

func TestSanitizeTelegramCommand(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Stats":     "stats",
		"db-sweep":  "db_sweep",
		"1st":       "cmd_1st",
		"новости":   "",
		" a  b ":    "a_b",
	}
	for in, want := range tests {
		if got := sanitizeTelegramCommand(in); got != want {
			t.Fatalf("sanitize(%q) = %q, want %q", in, got, want)
		}
	}
}
