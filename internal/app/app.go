package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/catalog"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/config"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/content"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/dedup"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/eventbus"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/feeds"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/health"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/menu"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/notifier"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/pipeline"
	rtsup "github.com/Dmitry77701/saudi-football-bot-advanced/internal/runtime/supervisor"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/sportsapi"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/stats"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/storage"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/task/scheduler"
	kit "github.com/Dmitry77701/saudi-football-bot-advanced/internal/transport"
	telegram "github.com/Dmitry77701/saudi-football-bot-advanced/internal/transport/telegram/adapter"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/transport/telegram/router"
	logx "github.com/Dmitry77701/saudi-football-bot-advanced/pkg/logx"
	"github.com/Dmitry77701/saudi-football-bot-advanced/pkg/systemd"
)

const historySize = 200

type App struct {
	cfg *config.Config

	log  logx.Logger
	logs *logx.Service
	bus  eventbus.Bus

	store   *storage.Store
	catalog *catalog.Catalog
	health  *health.Checker
	stats   *stats.RuntimeStats

	adapter *telegram.Adapter
	notif   *notifier.Service
	pipe    *pipeline.Pipeline
	sched   *scheduler.Service
	cmdm    *router.CommandManager

	sup     *rtsup.Supervisor
	updates chan kit.Update
}

// New wires every component from cfg. cfg must already be normalized and
// validated (config.Load does both).
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return nil, errors.New("telegram.token is required (or set " + config.EnvToken + ")")
	}
	target, err := channelTarget(cfg)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Schedule.Location()
	if err != nil {
		return nil, err
	}

	pollTimeout, err := config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
	if err != nil {
		return nil, err
	}
	ad, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
	}, logx.NewConsole(cfg.Logging.Level).With(logx.String("comp", "telegram")))
	if err != nil {
		return nil, err
	}

	logSvc, root := logx.New(mapLogConfig(cfg), ad)
	log := root.With(logx.String("comp", "app"))

	sc, err := mapStorageConfig(cfg)
	if err != nil {
		return nil, err
	}
	st, err := storage.Open(ctx, sc, root.With(logx.String("comp", "storage")))
	if err != nil {
		return nil, err
	}
	closeOnErr := func(err error) (*App, error) {
		_ = st.Close()
		_ = logSvc.Close()
		return nil, err
	}

	cat, err := catalog.New(cfg.Content.CatalogPath, root.With(logx.String("comp", "catalog")))
	if err != nil {
		return closeOnErr(err)
	}

	now := time.Now()
	bus := eventbus.New()
	rs := stats.New(now)
	hc := health.New(now)

	ncfg, err := mapNotifierConfig(cfg)
	if err != nil {
		return closeOnErr(err)
	}
	notif := notifier.New(ncfg, ad, target, root.With(logx.String("comp", "notifier")),
		notifier.WithBus(bus),
		notifier.WithSubscribers(st, cat),
	)

	spc, err := mapSportsConfig(cfg)
	if err != nil {
		return closeOnErr(err)
	}
	sports := sportsapi.New(spc, st, root.With(logx.String("comp", "sportsapi")))

	deps := pipeline.Deps{
		Store:     st,
		Dedup:     dedup.New(st, root.With(logx.String("comp", "dedup"))),
		Notifier:  notif,
		Generator: content.NewSeeded(cfg.Content.Seed),
		Catalog:   cat,
		Sports:    sports,
		Stats:     rs,
		Health:    hc,
		Bus:       bus,
		Location:  loc,
	}
	if cfg.Feeds.Enabled && len(cfg.Feeds.URLs) > 0 {
		fc, err := mapFeedsConfig(cfg)
		if err != nil {
			return closeOnErr(err)
		}
		deps.Feeds = feeds.NewFetcher(fc, st, root.With(logx.String("comp", "feeds")))
	}
	pipe := pipeline.New(deps, root.With(logx.String("comp", "pipeline")))

	jobTimeout, err := config.ParseDurationOrDefault("schedule.job_timeout", cfg.Schedule.JobTimeout, 5*time.Minute)
	if err != nil {
		return closeOnErr(err)
	}
	sched := scheduler.New(scheduler.Config{
		Location:       loc,
		DefaultTimeout: jobTimeout,
		HistorySize:    historySize,
	}, root.With(logx.String("comp", "scheduler")),
		scheduler.WithBus(bus),
		scheduler.WithObserver(func(r scheduler.Run) {
			rs.JobRun()
			if r.Err != nil && !errors.Is(r.Err, scheduler.ErrOverlapSkip) {
				rs.ErrorHandled()
			}
		}),
	)
	specs, err := pipe.JobTable(cfg.Schedule)
	if err != nil {
		return closeOnErr(err)
	}
	for _, spec := range specs {
		if err := sched.Add(spec); err != nil {
			return closeOnErr(fmt.Errorf("schedule %s: %w", spec.Name, err))
		}
	}

	mh := menu.New(menu.Deps{
		Store:     st,
		Catalog:   cat,
		Publisher: pipe,
		Jobs:      sched,
		Stats:     rs,
		Location:  loc,
	}, root)
	cmdm := router.NewCommandManager(root.With(logx.String("comp", "commands")), ad, cfg.Telegram.OwnerUserIDs)
	cmdm.Use(mh.Track())
	cmdm.SetRegistry(mh.Commands(), mh.Callbacks())

	return &App{
		cfg:     cfg,
		log:     log,
		logs:    logSvc,
		bus:     bus,
		store:   st,
		catalog: cat,
		health:  hc,
		stats:   rs,
		adapter: ad,
		notif:   notif,
		pipe:    pipe,
		sched:   sched,
		cmdm:    cmdm,
		updates: make(chan kit.Update, 256),
	}, nil
}

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = rtsup.New(ctx, rtsup.WithLogger(a.log), rtsup.WithCancelOnError(true))
	c := a.sup.Context()

	if err := a.adapter.Start(c, a.updates); err != nil {
		return err
	}
	if err := a.cmdm.SyncMenu(c); err != nil {
		a.log.Warn("command menu sync failed", logx.Err(err))
	}

	a.sup.Go("commands.dispatch", func(c context.Context) error {
		return a.cmdm.DispatchLoop(c, a.updates)
	})
	a.sup.Go("catalog.watch", a.catalog.Watch)
	a.sup.Go("health.follow", func(c context.Context) error {
		return a.health.Follow(c, a.bus)
	})
	a.sup.Go("systemd.watchdog", systemd.Watchdog)

	// Debug-level event log; components subscribe on their own for real work.
	events, unsub := a.bus.Subscribe(128)
	a.sup.Go0("eventbus.log", func(c context.Context) {
		defer unsub()
		for {
			select {
			case <-c.Done():
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				a.log.Debug("event", logx.String("type", e.Type), logx.Time("time", e.Time))
			}
		}
	})

	if err := a.sched.Start(c); err != nil {
		return err
	}

	if _, err := systemd.Ready(); err != nil {
		a.log.Warn("sd_notify ready failed", logx.Err(err))
	}
	_, _ = systemd.Status("running")
	a.log.Info("app started",
		logx.String("channel", a.cfg.Telegram.ChannelID),
		logx.Bool("sportsapi", a.cfg.SportsAPI.Enabled),
		logx.Bool("feeds", a.cfg.Feeds.Enabled),
	)
	return nil
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	if _, err := systemd.Stopping(); err != nil {
		a.log.Warn("sd_notify stopping failed", logx.Err(err))
	}

	// Cancel first so background loops start unwinding immediately.
	a.sup.Cancel()

	// Each step is bounded so one component can't stall the whole stop.
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		start := time.Now()
		stepCtx := ctx
		if max > 0 {
			if dl, ok := ctx.Deadline(); ok && time.Until(dl) < max {
				max = time.Until(dl)
			}
			var cancel context.CancelFunc
			stepCtx, cancel = context.WithTimeout(ctx, max)
			defer cancel()
		}

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
			a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)",
				logx.String("name", name), logx.Duration("elapsed", time.Since(start)))
		}
	}

	step("scheduler", 5*time.Second, a.sched.Stop)
	step("adapter", 2*time.Second, a.adapter.Stop)
	step("supervisor", 2*time.Second, a.sup.Wait)
	step("storage", time.Second, func(context.Context) error { return a.store.Close() })

	s := a.stats.Snapshot(time.Now())
	a.log.Info("stopped",
		logx.Duration("uptime", s.Uptime.Truncate(time.Second)),
		logx.Int64("posts", s.PostsSent),
		logx.Int64("errors", s.ErrorsHandled),
	)
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return nil
}
