// Package pipeline turns scheduler ticks into channel posts.
//
// Every generated post goes through the same path: the deduplicator records
// it, the notifier delivers it, the record is marked published and a stat row
// is written. Storage failures abort before anything is sent; a failed
// delivery leaves the record unpublished.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/catalog"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/content"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/dedup"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/eventbus"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/health"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/notifier"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/render"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/sportsapi"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/stats"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/storage"
	logx "github.com/Dmitry77701/saudi-football-bot-advanced/pkg/logx"
)

// Stat types written to bot_stats.
const (
	StatQuickNews   = "quick_news_sent"
	StatFullNews    = "full_news_sent"
	StatMatches     = "matches_sent"
	StatTable       = "table_sent"
	StatHealthCheck = "health_check"
	StatStartup     = "startup"
)

// Store is the storage surface the jobs use.
type Store interface {
	RecordStat(ctx context.Context, statType string, value int64) error
	CacheSweep(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
	MatchesOn(ctx context.Context, day string) ([]storage.Match, error)
	Standings(ctx context.Context, league, season string) ([]storage.StandingRow, error)
	SaveMatch(ctx context.Context, m storage.Match) (int64, error)
	UpsertStandings(ctx context.Context, rows []storage.StandingRow) error
	UpsertTeams(ctx context.Context, teams []storage.Team) error
}

type Deduper interface {
	Submit(ctx context.Context, c content.Candidate) (dedup.Result, error)
	MarkDelivered(ctx context.Context, rec storage.ContentRecord) error
}

type Deliverer interface {
	Deliver(ctx context.Context, d notifier.Delivery) (notifier.Result, error)
}

// SportsData is the optional real-data source.
type SportsData interface {
	Enabled() bool
	LeagueID() string
	Season() string
	SyncFixtures(ctx context.Context, st sportsapi.MatchSaver, day time.Time) ([]content.Fixture, error)
	SyncStandings(ctx context.Context, st sportsapi.StandingsStore) ([]content.Standing, error)
}

type HeadlineSource interface {
	Headlines(ctx context.Context) ([]content.Headline, error)
}

type CatalogSource interface {
	Snapshot() catalog.Data
}

// Deps wires the pipeline. Sports and Feeds are optional.
type Deps struct {
	Store     Store
	Dedup     Deduper
	Notifier  Deliverer
	Generator *content.Generator
	Catalog   CatalogSource
	Sports    SportsData
	Feeds     HeadlineSource
	Stats     *stats.RuntimeStats
	Health    *health.Checker
	Bus       eventbus.Bus
	Location  *time.Location
}

type Pipeline struct {
	d   Deps
	log logx.Logger
	now func() time.Time
	png func(title string, rows []content.Standing) ([]byte, error)

	// schedule is the job table quoted in the startup post.
	schedule []string

	mu        sync.Mutex
	lastTable []content.Standing
}

type Option func(*Pipeline)

func WithClock(now func() time.Time) Option { return func(p *Pipeline) { p.now = now } }

// WithRenderer replaces the standings image renderer.
func WithRenderer(fn func(title string, rows []content.Standing) ([]byte, error)) Option {
	return func(p *Pipeline) { p.png = fn }
}

func New(d Deps, log logx.Logger, opts ...Option) *Pipeline {
	if log.IsZero() {
		log = logx.Nop()
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Generator == nil {
		d.Generator = content.New(nil)
	}
	p := &Pipeline{
		d:   d,
		log: log.With(logx.String("comp", "pipeline")),
		now: time.Now,
		png: render.PNG,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Outcome reports what PublishCandidate did.
type Outcome struct {
	Accepted bool
	Record   storage.ContentRecord
	Result   notifier.Result
}

// PublishCandidate records c and, when it is new, delivers it to the channel.
func (p *Pipeline) PublishCandidate(ctx context.Context, c content.Candidate) (Outcome, error) {
	res, err := p.d.Dedup.Submit(ctx, c)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Accepted: res.Accepted, Record: res.Record}
	if !res.Accepted {
		p.duplicate(res.Record)
		return out, nil
	}
	p.publish(eventbus.ContentAccepted, res.Record)

	out.Result, err = p.d.Notifier.Deliver(ctx, notifier.Delivery{
		Kind:  string(c.Kind),
		Text:  content.FormatPost(c),
		Plain: content.PlainText(c),
	})
	if err != nil {
		return out, err
	}
	p.delivered(ctx, []storage.ContentRecord{res.Record}, statFor(c.Kind), 1, out.Result)
	return out, nil
}

// delivered runs the bookkeeping after a successful channel send. Failures
// here are logged only: the post is already out.
func (p *Pipeline) delivered(ctx context.Context, recs []storage.ContentRecord, stat string, value int64, res notifier.Result) {
	for _, rec := range recs {
		if err := p.d.Dedup.MarkDelivered(ctx, rec); err != nil {
			p.log.Error("mark published failed", logx.Int64("id", rec.ID), logx.Err(err))
		}
	}
	p.recordStat(ctx, stat, value)
	if p.d.Stats != nil {
		p.d.Stats.PostSent()
		p.d.Stats.SubscribersNotified(res.Notified)
	}
	if p.d.Health != nil {
		p.d.Health.MessageSent(p.now())
	}
}

func (p *Pipeline) recordStat(ctx context.Context, stat string, value int64) {
	if err := p.d.Store.RecordStat(ctx, stat, value); err != nil {
		p.log.Warn("record stat failed", logx.String("stat", stat), logx.Err(err))
	}
}

func (p *Pipeline) duplicate(rec storage.ContentRecord) {
	if p.d.Stats != nil {
		p.d.Stats.Duplicate()
	}
	p.publish(eventbus.ContentDuplicate, rec)
	p.log.Info("duplicate skipped",
		logx.String("type", rec.Type),
		logx.String("title", rec.Title),
		logx.Int("attempts", rec.PublishAttempts),
	)
}

// ContentEvent is the bus payload of content.* events.
type ContentEvent struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Type     string `json:"type"`
	Attempts int    `json:"attempts"`
}

func (p *Pipeline) publish(typ string, rec storage.ContentRecord) {
	if p.d.Bus == nil {
		return
	}
	p.d.Bus.Publish(eventbus.Event{Type: typ, Data: ContentEvent{
		ID: rec.ID, Title: rec.Title, Type: rec.Type, Attempts: rec.PublishAttempts,
	}})
}

func statFor(k content.Kind) string {
	if k == content.Quick {
		return StatQuickNews
	}
	return StatFullNews
}

func (p *Pipeline) today() time.Time { return p.now().In(p.d.Location) }

// seed builds the generator context. With real set it also pulls today's
// stored fixtures, stored standings and feed headlines; every source is
// best effort.
func (p *Pipeline) seed(ctx context.Context, real bool) content.Seed {
	var s content.Seed
	if p.d.Catalog != nil {
		s = content.SeedFromCatalog(p.d.Catalog.Snapshot())
	}
	if !real {
		return s
	}
	if matches, err := p.d.Store.MatchesOn(ctx, storage.Day(p.today())); err != nil {
		p.log.Warn("load fixtures failed", logx.Err(err))
	} else {
		s.Fixtures = fixturesFromStore(matches)
	}
	s.Standings = p.storedStandings(ctx)
	if p.d.Feeds != nil {
		hs, err := p.d.Feeds.Headlines(ctx)
		if err != nil {
			p.log.Warn("headlines unavailable", logx.Err(err))
		}
		s.Headlines = hs
	}
	return s
}

func (p *Pipeline) storedStandings(ctx context.Context) []content.Standing {
	if !p.sportsOn() {
		return nil
	}
	season := p.d.Sports.Season()
	if season == "" {
		season = "current"
	}
	rows, err := p.d.Store.Standings(ctx, p.d.Sports.LeagueID(), season)
	if err != nil {
		p.log.Warn("load standings failed", logx.Err(err))
		return nil
	}
	return sportsapi.StandingsFromStore(rows)
}

func (p *Pipeline) sportsOn() bool { return p.d.Sports != nil && p.d.Sports.Enabled() }

func fixturesFromStore(ms []storage.Match) []content.Fixture {
	out := make([]content.Fixture, 0, len(ms))
	for _, m := range ms {
		out = append(out, content.Fixture{
			Home:       m.HomeTeam,
			Away:       m.AwayTeam,
			Kickoff:    m.Kickoff,
			Tournament: m.Tournament,
			Channel:    m.TVChannel,
		})
	}
	return out
}

func wrapJob(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}
