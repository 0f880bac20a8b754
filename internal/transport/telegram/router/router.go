package router

import (
	"context"
	"runtime"
	"runtime/debug"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	rtsup "github.com/Dmitry77701/saudi-football-bot-advanced/internal/runtime/supervisor"
	kit "github.com/Dmitry77701/saudi-football-bot-advanced/internal/transport"
	logx "github.com/Dmitry77701/saudi-football-bot-advanced/pkg/logx"
)

const (
	unknownCommandText = "Неизвестная команда. Попробуйте /help"
	forbiddenText      = "⛔ Команда доступна только владельцу."
	busyText           = "⏳ Бот занят, попробуйте ещё раз."

	defaultQueueSize = 256
)

type CommandManager struct {
	mu      sync.RWMutex
	cmds    map[string]Command // name and aliases -> command
	menu    []kit.BotCommand
	menuSum string

	cbMu      sync.RWMutex
	callbacks map[string]map[string]CallbackRoute // prefix -> action -> route

	owners []int64
	extra  []Middleware

	log     logx.Logger
	adapter kit.Adapter
	workers int

	runMu   sync.Mutex
	running bool
	sup     *rtsup.Supervisor

	jobs chan func()
}

type Option func(*CommandManager)

// WithWorkers overrides the handler pool size (default max(2, NumCPU)).
func WithWorkers(n int) Option {
	return func(m *CommandManager) {
		if n > 0 {
			m.workers = n
		}
	}
}

// WithQueueSize bounds the number of requests waiting for a worker.
func WithQueueSize(n int) Option {
	return func(m *CommandManager) {
		if n > 0 {
			m.jobs = make(chan func(), n)
		}
	}
}

func NewCommandManager(log logx.Logger, adapter kit.Adapter, owners []int64, opts ...Option) *CommandManager {
	if log.IsZero() {
		log = logx.Nop()
	}
	m := &CommandManager{
		cmds:      map[string]Command{},
		callbacks: map[string]map[string]CallbackRoute{},
		log:       log,
		adapter:   adapter,
		owners:    append([]int64(nil), owners...),
		jobs:      make(chan func(), defaultQueueSize),
	}
	for _, o := range opts {
		o(m)
	}
	if m.workers <= 0 {
		m.workers = max(2, runtime.NumCPU())
	}
	return m
}

// Use appends middlewares that run inside the built-in ones for every
// command and callback.
func (m *CommandManager) Use(mw ...Middleware) {
	m.mu.Lock()
	m.extra = append(m.extra, mw...)
	m.mu.Unlock()
}

// Supervisor returns the dispatcher's supervisor (nil if not running).
func (m *CommandManager) Supervisor() *rtsup.Supervisor {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if !m.running {
		return nil
	}
	return m.sup
}

func (m *CommandManager) setSupervisor(sup *rtsup.Supervisor, running bool) {
	m.runMu.Lock()
	m.sup = sup
	m.running = running
	m.runMu.Unlock()
}

// tryEnqueue is a panic-safe enqueue helper (handles the jobs channel being closed).
func (m *CommandManager) tryEnqueue(fn func()) (ok bool) {
	if fn == nil {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	select {
	case m.jobs <- fn:
		return true
	default:
		return false
	}
}

func (m *CommandManager) SetOwners(owners []int64) {
	ownCopy := append([]int64(nil), owners...)
	m.mu.Lock()
	m.owners = ownCopy
	m.mu.Unlock()
}

func (m *CommandManager) ownersSnapshot() []int64 {
	m.mu.RLock()
	cp := append([]int64(nil), m.owners...)
	m.mu.RUnlock()
	return cp
}

// SetRegistry replaces the routing tables. Commands without a handler or with
// an empty name are skipped; later duplicates win.
func (m *CommandManager) SetRegistry(cmds []Command, cbs []CallbackRoute) {
	table := map[string]Command{}
	for _, c := range cmds {
		name := commandWord(c.Name)
		if name == "" || c.Handle == nil {
			continue
		}
		c.Name = name
		table[name] = c
		if sn := sanitizeTelegramCommand(name); sn != "" && sn != name {
			table[sn] = c
		}
		for _, a := range c.Aliases {
			a = commandWord(strings.TrimSpace(a))
			if a == "" || strings.Contains(a, " ") {
				continue
			}
			if _, exists := table[a]; !exists {
				table[a] = c
			}
		}
	}

	cb := map[string]map[string]CallbackRoute{}
	for _, r := range cbs {
		p := strings.TrimSpace(r.Prefix)
		a := strings.TrimSpace(r.Action)
		if p == "" || a == "" || r.Handle == nil {
			continue
		}
		if cb[p] == nil {
			cb[p] = map[string]CallbackRoute{}
		}
		cb[p][a] = r
	}

	menu := buildMenuCommands(cmds)

	m.mu.Lock()
	m.cmds = table
	m.menu = menu
	m.mu.Unlock()

	m.cbMu.Lock()
	m.callbacks = cb
	m.cbMu.Unlock()
}

// MenuCommands returns the command menu derived from the registry.
func (m *CommandManager) MenuCommands() []kit.BotCommand {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.menu)
}

// SyncMenu pushes the command menu to the platform when the adapter supports it.
func (m *CommandManager) SyncMenu(ctx context.Context) error {
	up, ok := m.adapter.(kit.CommandMenuUpdater)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return up.UpdateMenuCommands(ctx, m.MenuCommands())
}

func (m *CommandManager) DispatchLoop(ctx context.Context, updates <-chan kit.Update) error {
	sup := rtsup.New(ctx,
		rtsup.WithLogger(m.log.With(logx.String("comp", "telegram.router"))),
		rtsup.WithCancelOnError(false),
	)
	m.setSupervisor(sup, true)
	m.log.Info("command dispatcher started", logx.Int("workers", m.workers), logx.Int("job_queue_cap", cap(m.jobs)))

	var closeOnce sync.Once
	closeJobs := func() {
		closeOnce.Do(func() {
			m.setSupervisor(sup, false)
			close(m.jobs)
		})
	}

	for i := 0; i < m.workers; i++ {
		idx := i
		sup.GoRestart("command.worker."+strconv.Itoa(idx), func(c context.Context) error {
			for {
				select {
				case <-c.Done():
					return nil
				case job, ok := <-m.jobs:
					if !ok {
						return nil
					}
					if job == nil {
						continue
					}
					func() {
						defer func() {
							if r := recover(); r != nil {
								m.log.Error("panic in command job", logx.Int("worker", idx), logx.Any("panic", r), logx.String("stack", string(debug.Stack())))
							}
						}()
						job()
					}()
				}
			}
		},
			rtsup.WithRestartBackoff(200*time.Millisecond, 5*time.Second),
			rtsup.WithStopOnCleanExit(true),
		)
	}

	defer func() {
		closeJobs()
		wctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		_ = sup.Wait(wctx)
		cancel()
		m.setSupervisor(nil, false)
		m.log.Info("command dispatcher stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			m.routeUpdate(ctx, up)
		}
	}
}

func (m *CommandManager) routeUpdate(root context.Context, up kit.Update) {
	switch up.Kind {
	case kit.UpdateMessage:
		m.routeMessage(root, up)
	case kit.UpdateCallback:
		m.routeCallback(root, up)
	}
}

func (m *CommandManager) routeMessage(root context.Context, up kit.Update) {
	if up.Message == nil {
		return
	}
	msg := up.Message
	text := strings.TrimSpace(msg.Text)
	if !strings.HasPrefix(text, "/") {
		return
	}
	parts := tokenizeCommandLine(text)
	if len(parts) == 0 {
		return
	}
	word := commandWord(parts[0])
	args := []string{}
	if len(parts) > 1 {
		args = parts[1:]
	}
	chat := kit.ChatTarget{ChatID: msg.ChatID, ThreadID: msg.ThreadID}

	m.mu.RLock()
	cmd, ok := m.cmds[word]
	extra := m.extra
	m.mu.RUnlock()
	if !ok {
		// Groups may host other bots; only answer unknown commands in private chats.
		if msg.IsPrivate {
			_, _ = m.adapter.SendText(root, chat, unknownCommandText, nil)
		}
		return
	}

	owners := m.ownersSnapshot()
	owner := isOwner(msg.FromID, owners)
	if cmd.Access == AccessOwnerOnly && !owner {
		_, _ = m.adapter.SendText(root, chat, forbiddenText, nil)
		return
	}

	rid := newReqID()
	req := &Request{
		Update:   up,
		Chat:     chat,
		FromID:   msg.FromID,
		FromName: msg.FromName,
		Command:  cmd.Name,
		Args:     args,
		ReqID:    rid,
		IsOwner:  owner,
		Adapter:  m.adapter,
		Logger: m.log.With(
			logx.String("rid", rid),
			logx.Int64("chat_id", msg.ChatID),
			logx.Int64("from_id", msg.FromID),
			logx.String("cmd", cmd.Name),
		),
	}

	final := Chain(cmd.Handle, m.chain(extra, cmd.Timeout)...)
	if !m.tryEnqueue(func() { _ = final(root, req) }) {
		_, _ = m.adapter.SendText(root, chat, busyText, nil)
	}
}

func (m *CommandManager) routeCallback(root context.Context, up kit.Update) {
	if up.Callback == nil {
		return
	}
	cb := up.Callback
	prefix, action, payload, ok := splitCallbackData(cb.Data)
	if !ok {
		_ = m.adapter.AnswerCallback(root, cb.ID, "")
		return
	}

	m.cbMu.RLock()
	route, ok := m.callbacks[prefix][action]
	m.cbMu.RUnlock()
	if !ok {
		_ = m.adapter.AnswerCallback(root, cb.ID, "")
		return
	}

	owners := m.ownersSnapshot()
	owner := isOwner(cb.FromID, owners)
	if route.Access == AccessOwnerOnly && !owner {
		_ = m.adapter.AnswerCallback(root, cb.ID, forbiddenText)
		return
	}

	m.mu.RLock()
	extra := m.extra
	m.mu.RUnlock()

	key := "cb:" + prefix + ":" + action
	rid := newReqID()
	req := &Request{
		Update:    up,
		Chat:      kit.ChatTarget{ChatID: cb.ChatID, ThreadID: cb.ThreadID},
		FromID:    cb.FromID,
		FromName:  cb.FromName,
		MessageID: cb.MessageID,
		Command:   key,
		Payload:   payload,
		ReqID:     rid,
		IsOwner:   owner,
		Adapter:   m.adapter,
		Logger: m.log.With(
			logx.String("rid", rid),
			logx.Int64("chat_id", cb.ChatID),
			logx.Int64("from_id", cb.FromID),
			logx.String("cmd", key),
		),
	}

	h := func(ctx context.Context, r *Request) error { return route.Handle(ctx, r, payload) }
	final := Chain(h, m.chain(extra, route.Timeout)...)

	if !m.tryEnqueue(func() {
		if err := final(root, req); err == nil {
			// stop the client's loading indicator
			_ = m.adapter.AnswerCallback(root, cb.ID, "")
		}
	}) {
		_ = m.adapter.AnswerCallback(root, cb.ID, busyText)
	}
}

func (m *CommandManager) chain(extra []Middleware, timeout time.Duration) []Middleware {
	mws := []Middleware{
		MWRequestLog(m.log),
		MWErrorReply(),
		MWPanicRecover(m.log),
	}
	mws = append(mws, extra...)
	return append(mws, MWTimeout(timeout))
}

func isOwner(id int64, owners []int64) bool {
	return slices.Contains(owners, id)
}
