// Package health tracks when the bot last succeeded at sending, calling the
// sports API and touching the database, and derives an overall status.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/eventbus"
	logx "github.com/Dmitry77701/saudi-football-bot-advanced/pkg/logx"
)

type Status string

const (
	Healthy  Status = "healthy"
	Warning  Status = "warning"
	Unknown  Status = "unknown"
	Starting Status = "starting"
)

// Age limits after which a subsystem turns from healthy to warning.
const (
	MessageMaxAge = time.Hour
	APIMaxAge     = 2 * time.Hour
	DBMaxAge      = time.Hour
)

type Checker struct {
	mu        sync.Mutex
	startedAt time.Time
	message   time.Time
	api       time.Time
	db        time.Time
}

type Component struct {
	Status Status
	Last   time.Time
	Age    time.Duration
}

type Report struct {
	StartedAt time.Time
	Uptime    time.Duration
	Messages  Component
	API       Component
	DB        Component
	Overall   Status
}

func New(now time.Time) *Checker { return &Checker{startedAt: now} }

func (c *Checker) MessageSent(at time.Time) { c.set(&c.message, at) }
func (c *Checker) APISucceeded(at time.Time) { c.set(&c.api, at) }
func (c *Checker) DBSucceeded(at time.Time) { c.set(&c.db, at) }

func (c *Checker) set(field *time.Time, at time.Time) {
	c.mu.Lock()
	if at.After(*field) {
		*field = at
	}
	c.mu.Unlock()
}

func (c *Checker) Report(now time.Time) Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := Report{
		StartedAt: c.startedAt,
		Uptime:    now.Sub(c.startedAt),
		Messages:  component(now, c.message, MessageMaxAge),
		API:       component(now, c.api, APIMaxAge),
		DB:        component(now, c.db, DBMaxAge),
	}
	r.Overall = Healthy
	for _, s := range []Status{r.Messages.Status, r.API.Status, r.DB.Status} {
		if s == Unknown {
			r.Overall = Starting
			break
		}
		if s == Warning {
			r.Overall = Warning
		}
	}
	return r
}

func component(now, last time.Time, maxAge time.Duration) Component {
	if last.IsZero() {
		return Component{Status: Unknown}
	}
	age := now.Sub(last)
	st := Healthy
	if age >= maxAge {
		st = Warning
	}
	return Component{Status: st, Last: last, Age: age}
}

// Pinger is satisfied by the storage handle.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CheckDB pings the database and records success.
func (c *Checker) CheckDB(ctx context.Context, p Pinger, now time.Time) error {
	if err := p.Ping(ctx); err != nil {
		return err
	}
	c.DBSucceeded(now)
	return nil
}

// Follow marks message success on every channel delivery published on bus
// until ctx is done.
func (c *Checker) Follow(ctx context.Context, bus eventbus.Bus) error {
	ch, unsub := bus.Subscribe(64)
	defer unsub()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if ev.Type == eventbus.DeliverySent {
				c.MessageSent(ev.Time)
			}
		}
	}
}

// Log writes the report at info level, or warn when anything is degraded.
func (r Report) Log(log logx.Logger) {
	fields := []logx.Field{
		logx.Duration("uptime", r.Uptime.Truncate(time.Second)),
		logx.String("messages", string(r.Messages.Status)),
		logx.String("api", string(r.API.Status)),
		logx.String("db", string(r.DB.Status)),
		logx.String("overall", string(r.Overall)),
	}
	if r.Overall == Warning {
		log.Warn("health report", fields...)
		return
	}
	log.Info("health report", fields...)
}
