package pipeline

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/content"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/eventbus"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/health"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/notifier"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/render"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/storage"
	kit "github.com/Dmitry77701/saudi-football-bot-advanced/internal/transport"
	logx "github.com/Dmitry77701/saudi-football-bot-advanced/pkg/logx"
)

// QuickNews publishes one quick post, seeded with real data when there is any.
func (p *Pipeline) QuickNews(ctx context.Context) error {
	c := p.d.Generator.Generate(content.Quick, p.seed(ctx, true))
	_, err := p.PublishCandidate(ctx, c)
	return wrapJob(JobQuickNews, err)
}

// PublishKind generates and publishes one post of any content kind.
func (p *Pipeline) PublishKind(ctx context.Context, kind content.Kind) (Outcome, error) {
	c := p.d.Generator.Generate(kind, p.seed(ctx, kind == content.Quick))
	return p.PublishCandidate(ctx, c)
}

// FullNews generates a batch of full posts, records each one and sends the
// accepted ones as a single digest.
func (p *Pipeline) FullNews(ctx context.Context) error {
	batch := p.d.Generator.Batch(content.Full, p.seed(ctx, true), 0)

	var (
		accepted []content.Candidate
		recs     []storage.ContentRecord
		errs     []error
	)
	for _, c := range batch {
		res, err := p.d.Dedup.Submit(ctx, c)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !res.Accepted {
			p.duplicate(res.Record)
			continue
		}
		p.publish(eventbus.ContentAccepted, res.Record)
		accepted = append(accepted, c)
		recs = append(recs, res.Record)
	}
	if len(accepted) == 0 {
		if len(errs) > 0 {
			return wrapJob(JobFullNews, errors.Join(errs...))
		}
		p.log.Info("no new full posts", logx.Int("generated", len(batch)))
		return nil
	}

	res, err := p.d.Notifier.Deliver(ctx, notifier.Delivery{
		Kind:  string(content.Full),
		Text:  p.digest(accepted),
		Plain: digestPlain(accepted),
	})
	if err != nil {
		return wrapJob(JobFullNews, errors.Join(append(errs, err)...))
	}
	p.delivered(ctx, recs, StatFullNews, int64(len(recs)), res)
	return wrapJob(JobFullNews, errors.Join(errs...))
}

func (p *Pipeline) digest(posts []content.Candidate) string {
	var b strings.Builder
	b.WriteString("<b>📰 НОВОСТИ АРАБСКОГО ФУТБОЛА</b>\n\n")
	for i, c := range posts {
		fmt.Fprintf(&b, "<b>%d. %s</b>\n", i+1, html.EscapeString(c.Title))
		if c.Summary != "" {
			b.WriteString(html.EscapeString(c.Summary))
			b.WriteByte('\n')
		}
		if tags := content.Hashtags(firstN(c.Tags, 2)); tags != "" {
			b.WriteString("🏷️ " + tags + "\n")
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "📅 %s\n", p.today().Format("02.01.2006 15:04"))
	b.WriteString("🔔 Подпишитесь на уведомления!")
	return b.String()
}

func digestPlain(posts []content.Candidate) string {
	parts := make([]string, 0, len(posts))
	for _, c := range posts {
		parts = append(parts, content.PlainText(c))
	}
	return strings.Join(parts, "\n\n")
}

func firstN(v []string, n int) []string {
	if len(v) > n {
		return v[:n]
	}
	return v
}

// DailyFixtures posts today's matches: live data first, then stored matches,
// then generated ones.
func (p *Pipeline) DailyFixtures(ctx context.Context) error {
	day := p.today()

	var fixtures []content.Fixture
	if p.sportsOn() {
		fx, err := p.d.Sports.SyncFixtures(ctx, p.d.Store, day)
		if err != nil {
			p.log.Warn("fixtures api failed, using fallback", logx.Err(err))
		} else {
			p.apiOK()
			fixtures = fx
		}
	}
	if len(fixtures) == 0 {
		stored, err := p.d.Store.MatchesOn(ctx, storage.Day(day))
		if err != nil {
			p.log.Warn("load fixtures failed", logx.Err(err))
		}
		fixtures = fixturesFromStore(stored)
	}
	if len(fixtures) == 0 {
		fixtures = p.d.Generator.Fixtures(p.seed(ctx, false))
	}

	res, err := p.d.Notifier.Deliver(ctx, notifier.Delivery{
		Kind:  "fixtures",
		Text:  p.d.Generator.FormatFixtures(day, fixtures),
		Plain: content.FixturesPlain(fixtures),
	})
	if err != nil {
		return wrapJob(JobDailyFixtures, err)
	}
	p.delivered(ctx, nil, StatMatches, int64(len(fixtures)), res)
	return nil
}

// Standings returns the best available table: live, stored, then generated.
func (p *Pipeline) Standings(ctx context.Context) []content.Standing {
	if p.sportsOn() {
		rows, err := p.d.Sports.SyncStandings(ctx, p.d.Store)
		switch {
		case err != nil:
			p.log.Warn("standings api failed, using fallback", logx.Err(err))
		case len(rows) > 0:
			p.apiOK()
			return rows
		}
		if rows := p.storedStandings(ctx); len(rows) > 0 {
			return rows
		}
	}
	return p.d.Generator.Table(p.seed(ctx, false))
}

// LatestStandings is the table shown by the menu: stored live data when
// present, else the last posted table, else a generated one that is then
// kept so repeated views agree.
func (p *Pipeline) LatestStandings(ctx context.Context) []content.Standing {
	if rows := p.storedStandings(ctx); len(rows) > 0 {
		return rows
	}
	p.mu.Lock()
	rows := p.lastTable
	p.mu.Unlock()
	if len(rows) > 0 {
		return rows
	}
	rows = p.d.Generator.Table(p.seed(ctx, false))
	p.remember(rows)
	return rows
}

func (p *Pipeline) remember(rows []content.Standing) {
	if len(rows) == 0 {
		return
	}
	p.mu.Lock()
	p.lastTable = rows
	p.mu.Unlock()
}

// WeeklyTable posts the standings as an image, or as text when the image
// cannot be rendered or sent.
func (p *Pipeline) WeeklyTable(ctx context.Context) error {
	rows := p.Standings(ctx)
	p.remember(rows)
	title := render.DefaultTitle

	d := notifier.Delivery{
		Kind:       "table",
		Text:       render.Text(title, rows),
		SkipFanout: true,
	}
	img, err := p.png(title, rows)
	if err != nil {
		p.log.Warn("table image failed, sending text", logx.Err(err))
	} else {
		d.Photo = &kit.Photo{
			Data:    img,
			Caption: fmt.Sprintf("🏆 <b>%s</b>\n📅 %s", html.EscapeString(title), p.today().Format("02.01.2006")),
		}
	}

	res, err := p.d.Notifier.Deliver(ctx, d)
	if err != nil {
		return wrapJob(JobWeeklyTable, err)
	}
	p.delivered(ctx, nil, StatTable, 1, res)
	return nil
}

// Startup announces the bot in the channel once per process.
func (p *Pipeline) Startup(ctx context.Context) error {
	var b strings.Builder
	b.WriteString("<b>🚀 БОТ ЗАПУЩЕН!</b>\n\n")
	b.WriteString("✅ Новости саудовского футбола снова в эфире.\n")
	if len(p.schedule) > 0 {
		b.WriteString("\n<b>📅 Расписание:</b>\n")
		for _, line := range p.schedule {
			b.WriteString("• " + html.EscapeString(line) + "\n")
		}
	}
	b.WriteString("\n🤖 Используйте /start для интерактивного меню")

	res, err := p.d.Notifier.Deliver(ctx, notifier.Delivery{Kind: "startup", Text: b.String(), SkipFanout: true})
	if err != nil {
		return wrapJob(JobStartup, err)
	}
	p.delivered(ctx, nil, StatStartup, 1, res)
	return nil
}

// Housekeeping sweeps expired cache rows, checks the database and logs a
// health report.
func (p *Pipeline) Housekeeping(ctx context.Context) error {
	var errs []error
	removed, err := p.d.Store.CacheSweep(ctx)
	if err != nil {
		errs = append(errs, err)
	} else {
		p.log.Info("cache swept", logx.Int64("removed", removed))
	}

	if p.d.Health != nil {
		now := p.now()
		if err := p.d.Health.CheckDB(ctx, p.d.Store, now); err != nil {
			errs = append(errs, err)
		}
		report := p.d.Health.Report(now)
		report.Log(p.log)
		var v int64
		if report.Overall == health.Healthy {
			v = 1
		}
		p.recordStat(ctx, StatHealthCheck, v)
	}
	return wrapJob(JobHousekeeping, errors.Join(errs...))
}

func (p *Pipeline) apiOK() {
	if p.d.Health != nil {
		p.d.Health.APISucceeded(p.now())
	}
}
