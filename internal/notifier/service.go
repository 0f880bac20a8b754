package notifier

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/catalog"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/eventbus"
	kit "github.com/Dmitry77701/saudi-football-bot-advanced/internal/transport"
	logx "github.com/Dmitry77701/saudi-football-bot-advanced/pkg/logx"
)

var ErrEmptyDelivery = errors.New("notifier: empty delivery")

// SubscriberSource resolves active subscribers of an entity.
type SubscriberSource interface {
	SubscribersFor(ctx context.Context, name, kind string) ([]int64, error)
}

// EntitySource lists the names that subscribers can follow.
type EntitySource interface {
	Entities() []catalog.Entity
}

// Service is safe for concurrent use.
type Service struct {
	log      logx.Logger
	sender   kit.Sender
	target   kit.ChatTarget
	subs     SubscriberSource
	entities EntitySource
	bus      eventbus.Bus

	cfg     Config
	limiter *rate.Limiter

	rmu sync.Mutex
	rnd *rand.Rand

	// sleep is swapped in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

type Option func(*Service)

func WithBus(bus eventbus.Bus) Option { return func(s *Service) { s.bus = bus } }

func WithSubscribers(subs SubscriberSource, entities EntitySource) Option {
	return func(s *Service) {
		s.subs = subs
		s.entities = entities
	}
}

func New(cfg Config, sender kit.Sender, target kit.ChatTarget, log logx.Logger, opts ...Option) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	cfg = cfg.withDefaults()
	s := &Service{
		log:    log,
		sender: sender,
		target: target,
		cfg:    cfg,
		// Token bucket: burst = rate per sec, so short spikes don't block too hard.
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:   sleepCtx,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Target returns the channel this service posts to.
func (s *Service) Target() kit.ChatTarget { return s.target }

// Deliver posts d to the channel and then fans out to subscribers. The error
// reports only the channel send.
func (s *Service) Deliver(ctx context.Context, d Delivery) (Result, error) {
	var res Result
	if strings.TrimSpace(d.Text) == "" && d.Photo == nil {
		return res, ErrEmptyDelivery
	}
	if d.Plain == "" {
		d.Plain = d.Text
	}
	opts := &kit.SendOptions{ParseMode: kit.ParseModeHTML, DisablePreview: true}

	sent := false
	if d.Photo != nil {
		var ref kit.MessageRef
		attempts, err := s.withRetry(ctx, func(cctx context.Context) error {
			var err error
			ref, err = s.sender.SendPhoto(cctx, s.target, *d.Photo, opts)
			return err
		})
		switch {
		case err == nil:
			res.ChannelRef, res.AsPhoto, sent = ref, true, true
		case ctx.Err() != nil:
			return res, ctx.Err()
		default:
			s.log.Warn("photo send failed, falling back to text",
				logx.String("kind", d.Kind), logx.Int("attempts", attempts), logx.Err(err))
		}
	}

	if !sent {
		if strings.TrimSpace(d.Text) == "" {
			return res, ErrEmptyDelivery
		}
		var ref kit.MessageRef
		attempts, err := s.withRetry(ctx, func(cctx context.Context) error {
			var err error
			ref, err = s.sender.SendText(cctx, s.target, d.Text, opts)
			return err
		})
		if err != nil {
			s.publish(eventbus.DeliveryFailed, DeliveryEvent{Kind: d.Kind, ChatID: s.target.ChatID, Attempts: attempts, Error: err.Error()})
			s.log.Error("channel delivery failed",
				logx.String("kind", d.Kind), logx.Int("attempts", attempts), logx.Err(err))
			return res, fmt.Errorf("deliver %s: %w", d.Kind, err)
		}
		res.ChannelRef = ref
	}
	s.publish(eventbus.DeliverySent, DeliveryEvent{Kind: d.Kind, ChatID: s.target.ChatID, Attempts: 1})

	if !d.SkipFanout {
		res.Subscribers, res.Notified, res.Failed = s.fanout(ctx, d)
	}
	s.log.Info("delivered",
		logx.String("kind", d.Kind),
		logx.Bool("photo", res.AsPhoto),
		logx.Int("subscribers", res.Subscribers),
		logx.Int("notified", res.Notified),
		logx.Int("failed", res.Failed),
	)
	return res, nil
}

type match struct {
	entity catalog.Entity
	subs   []int64
}

// fanout sends one copy per distinct subscriber. A subscriber following
// several matched entities is told about the first one in catalog order.
func (s *Service) fanout(ctx context.Context, d Delivery) (subscribers, notified, failed int) {
	if s.subs == nil || s.entities == nil {
		return 0, 0, 0
	}
	matched := MatchEntities(d.Plain, s.entities.Entities())
	if len(matched) == 0 {
		return 0, 0, 0
	}

	owner := map[int64]catalog.Entity{}
	var order []int64
	for _, e := range matched {
		ids, err := s.subs.SubscribersFor(ctx, e.Name, e.Kind)
		if err != nil {
			s.log.Warn("subscriber lookup failed", logx.String("entity", e.Name), logx.Err(err))
			continue
		}
		for _, id := range ids {
			if _, ok := owner[id]; ok {
				continue
			}
			owner[id] = e
			order = append(order, id)
		}
	}
	if len(order) == 0 {
		return 0, 0, 0
	}

	var okN, failN atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.FanoutWorkers)
	for _, id := range order {
		e := owner[id]
		text := SubscriberText(e.Name, d.Plain, s.cfg.PreviewRunes)
		g.Go(func() error {
			_, err := s.withRetry(gctx, func(cctx context.Context) error {
				_, err := s.sender.SendText(cctx, kit.ChatTarget{ChatID: id}, text, &kit.SendOptions{DisablePreview: true})
				return err
			})
			if err != nil {
				failN.Add(1)
				s.log.Debug("subscriber send failed", logx.Int64("subscriber", id), logx.String("entity", e.Name), logx.Err(err))
				return nil
			}
			okN.Add(1)
			s.publish(eventbus.SubscriberSent, DeliveryEvent{Kind: d.Kind, ChatID: id, Entity: e.Name, Attempts: 1})
			return nil
		})
	}
	_ = g.Wait()
	return len(order), int(okN.Load()), int(failN.Load())
}

// MatchEntities returns the entities whose name occurs in text, in the given order.
func MatchEntities(text string, entities []catalog.Entity) []catalog.Entity {
	var out []catalog.Entity
	for _, e := range entities {
		if e.Name != "" && strings.Contains(text, e.Name) {
			out = append(out, e)
		}
	}
	return out
}

// SubscriberText builds the copy sent to a subscriber of entity.
func SubscriberText(entity, text string, limit int) string {
	text = strings.TrimSpace(text)
	if limit > 0 && utf8.RuneCountInString(text) > limit {
		text = string([]rune(text)[:limit])
	}
	return "🔔 Новость о " + entity + ":\n\n" + text + "..."
}

// withRetry runs op until it succeeds, fails permanently, or exhausts
// RetryMax retries. It returns the number of attempts made.
func (s *Service) withRetry(ctx context.Context, op func(ctx context.Context) error) (int, error) {
	var lastErr error
	for attempt := 1; ; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			if lastErr != nil {
				return attempt - 1, lastErr
			}
			return attempt - 1, err
		}
		cctx, cancel := context.WithTimeout(ctx, s.cfg.SendTimeout)
		err := op(cctx)
		cancel()
		if err == nil {
			return attempt, nil
		}
		err = kit.Classify(err)
		lastErr = err
		if kit.IsPermanent(err) || attempt > s.cfg.RetryMax {
			return attempt, err
		}

		delay := s.retryDelay(attempt)
		if ra := kit.RetryAfter(err); ra > delay {
			delay = ra
		}
		s.log.Debug("send failed, retrying",
			logx.Int("attempt", attempt),
			logx.Int("max", s.cfg.RetryMax+1),
			logx.Duration("delay", delay),
			logx.Err(err),
		)
		if err := s.sleep(ctx, delay); err != nil {
			return attempt, lastErr
		}
	}
}

// retryDelay is base * 2^(attempt-1), capped, with 0.7..1.3 jitter.
func (s *Service) retryDelay(attempt int) time.Duration {
	d := s.cfg.RetryBase
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= s.cfg.RetryMaxDelay {
			d = s.cfg.RetryMaxDelay
			break
		}
	}
	s.rmu.Lock()
	j := 0.7 + s.rnd.Float64()*0.6
	s.rmu.Unlock()
	d = time.Duration(float64(d) * j)
	if d < 0 {
		return 0
	}
	return min(d, s.cfg.RetryMaxDelay)
}

func (s *Service) publish(typ string, ev DeliveryEvent) {
	if s.bus == nil {
		return
	}
	now := time.Now()
	ev.At = now
	s.bus.Publish(eventbus.Event{Type: typ, Time: now, Data: ev})
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
