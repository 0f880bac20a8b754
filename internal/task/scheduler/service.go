package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/eventbus"
	rtsup "github.com/Dmitry77701/saudi-football-bot-advanced/internal/runtime/supervisor"
	logx "github.com/Dmitry77701/saudi-football-bot-advanced/pkg/logx"
)

type job struct {
	spec  JobSpec
	sched cron.Schedule
	desc  string

	next      time.Time
	last      time.Time
	fires     int
	skipped   int
	failures  int
	running   bool
	retired   bool
	lastError string
}

type Service struct {
	cfg      Config
	clock    Clock
	log      logx.Logger
	bus      eventbus.Bus
	observer func(Run)

	mu      sync.Mutex
	jobs    []*job
	byName  map[string]*job
	started time.Time
	sup     *rtsup.Supervisor
	history []HistoryItem

	wake chan struct{}
}

type Option func(*Service)

func WithClock(c Clock) Option { return func(s *Service) { s.clock = c } }

func WithBus(bus eventbus.Bus) Option { return func(s *Service) { s.bus = bus } }

// WithObserver registers a callback invoked after every run, scheduled or manual.
func WithObserver(fn func(Run)) Option { return func(s *Service) { s.observer = fn } }

func New(cfg Config, log logx.Logger, opts ...Option) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 50
	}
	s := &Service{
		cfg:    cfg,
		clock:  RealClock{},
		log:    log,
		byName: map[string]*job{},
		wake:   make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Add registers a job. Jobs added after Start are armed immediately.
func (s *Service) Add(spec JobSpec) error {
	spec.Name = strings.TrimSpace(spec.Name)
	if spec.Name == "" {
		return errors.New("scheduler: job name required")
	}
	if spec.Run == nil {
		return fmt.Errorf("scheduler: job %s has no Run", spec.Name)
	}
	if spec.Offset < 0 {
		return fmt.Errorf("scheduler: job %s has negative offset", spec.Name)
	}
	j := &job{spec: spec, desc: describe(spec)}
	switch spec.Kind {
	case KindInterval:
		if spec.Period <= 0 {
			return fmt.Errorf("scheduler: job %s needs a positive period", spec.Name)
		}
	case KindDaily, KindWeekly:
		expr, err := cronSpec(spec)
		if err != nil {
			return fmt.Errorf("scheduler: job %s: %w", spec.Name, err)
		}
		sched, err := stdParser.Parse(expr)
		if err != nil {
			return fmt.Errorf("scheduler: job %s: %w", spec.Name, err)
		}
		j.sched = sched
	case KindOnce:
	default:
		return fmt.Errorf("scheduler: job %s has unknown kind %q", spec.Name, spec.Kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byName[spec.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, spec.Name)
	}
	s.jobs = append(s.jobs, j)
	s.byName[spec.Name] = j
	if s.sup != nil {
		s.armLocked(j, s.clock.Now(), true)
		s.poke()
	}
	return nil
}

// Start arms every job relative to now and starts the timer loop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.sup != nil {
		s.mu.Unlock()
		return errors.New("scheduler: already started")
	}
	now := s.clock.Now()
	s.started = now
	for _, j := range s.jobs {
		s.armLocked(j, now, true)
	}
	s.sup = rtsup.New(ctx,
		rtsup.WithLogger(s.log.With(logx.String("comp", "scheduler.sup"))),
		rtsup.WithCancelOnError(false),
	)
	sup := s.sup
	n := len(s.jobs)
	s.mu.Unlock()

	sup.Go("scheduler.loop", s.loop)
	s.log.Info("scheduler started", logx.String("tz", s.cfg.Location.String()), logx.Int("jobs", n))
	return nil
}

// Stop cancels the loop and running jobs, then waits for them until ctx is done.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	sup := s.sup
	s.mu.Unlock()
	if sup == nil {
		return nil
	}
	start := time.Now()
	err := sup.Stop(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	s.log.Info("scheduler stopped", logx.Duration("took", time.Since(start)))
	return err
}

func (s *Service) poke() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// armLocked computes the next fire time. initial marks arming at Start or Add;
// otherwise now is the fire time that just passed.
func (s *Service) armLocked(j *job, now time.Time, initial bool) {
	switch j.spec.Kind {
	case KindInterval:
		ref := now
		if initial {
			ref = now.Add(-time.Nanosecond)
		}
		j.next = nextInterval(s.started, j.spec.Offset, j.spec.Period, ref)
	case KindDaily, KindWeekly:
		j.next = j.sched.Next(now.In(s.cfg.Location))
	case KindOnce:
		if initial {
			j.next = now.Add(j.spec.Offset)
			return
		}
		j.retired = true
		j.next = time.Time{}
	}
}

func (s *Service) loop(ctx context.Context) error {
	for {
		s.mu.Lock()
		var next time.Time
		for _, j := range s.jobs {
			if j.retired || j.next.IsZero() {
				continue
			}
			if next.IsZero() || j.next.Before(next) {
				next = j.next
			}
		}
		s.mu.Unlock()

		var (
			timer Timer
			fire  <-chan time.Time
		)
		if !next.IsZero() {
			timer = s.clock.NewTimer(max(next.Sub(s.clock.Now()), 0))
			fire = timer.C()
		}
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case <-s.wake:
			if timer != nil {
				timer.Stop()
			}
			continue
		case <-fire:
		}
		s.fireDue(s.clock.Now())
	}
}

func (s *Service) fireDue(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		if j.retired || j.next.IsZero() || j.next.After(now) {
			continue
		}
		due := j.next
		s.armLocked(j, now, false)
		if j.running {
			j.skipped++
			s.log.Warn("job skipped, previous run still active",
				logx.String("job", j.spec.Name), logx.Time("due", due), logx.Time("next", j.next))
			continue
		}
		j.running = true
		j.fires++
		id := uuid.NewString()
		jj := j
		s.sup.Go("job."+j.spec.Name, func(ctx context.Context) error {
			s.execute(ctx, jj, id)
			return nil
		})
	}
}

// RunNow runs a job synchronously outside its schedule. It returns
// ErrOverlapSkip when the job is already running and ErrRetired for a once
// job that has fired. Running a once job by hand retires it.
func (s *Service) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	j, ok := s.byName[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	if j.retired {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrRetired, name)
	}
	if j.spec.Kind == KindOnce {
		s.armLocked(j, s.clock.Now(), false)
	}
	if j.running {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrOverlapSkip, name)
	}
	j.running = true
	j.fires++
	s.mu.Unlock()
	return s.execute(ctx, j, uuid.NewString())
}

func (s *Service) execute(ctx context.Context, j *job, id string) (err error) {
	timeout := j.spec.Timeout
	if timeout <= 0 {
		timeout = s.cfg.DefaultTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	started := s.clock.Now()
	log := s.log.With(logx.String("job", j.spec.Name), logx.String("run_id", id[:8]))
	log.Debug("job started")

	panicked := false
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicked = true
				err = fmt.Errorf("panic: %v", r)
				log.Error("job panicked", logx.Any("panic", r), logx.String("stack", string(debug.Stack())))
			}
		}()
		err = j.spec.Run(ctx)
	}()
	dur := s.clock.Now().Sub(started)

	item := HistoryItem{ID: id, Name: j.spec.Name, Started: started, Duration: dur}
	s.mu.Lock()
	j.running = false
	j.last = started
	if err != nil {
		j.failures++
		j.lastError = err.Error()
		item.Error = err.Error()
	} else {
		j.lastError = ""
	}
	s.history = append(s.history, item)
	if over := len(s.history) - s.cfg.HistorySize; over > 0 {
		s.history = s.history[over:]
	}
	s.mu.Unlock()

	if err != nil {
		if !panicked {
			log.Error("job failed", logx.Time("fired_at", started), logx.Duration("dur", dur), logx.Err(err))
		}
		if s.bus != nil {
			s.bus.Publish(eventbus.Event{Type: eventbus.JobFailed, Data: JobEvent{
				ID: id, Name: j.spec.Name, Started: started, Duration: dur, Error: err.Error(),
			}})
		}
	} else {
		log.Debug("job finished", logx.Duration("dur", dur))
	}
	if s.observer != nil {
		s.observer(Run{ID: id, Name: j.spec.Name, Started: started, Duration: dur, Err: err, Panicked: panicked})
	}
	return err
}

// Snapshot returns the job table ordered by next fire time.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := Snapshot{
		Timezone: s.cfg.Location.String(),
		Started:  s.started,
		Jobs:     make([]JobInfo, 0, len(s.jobs)),
		History:  append([]HistoryItem(nil), s.history...),
	}
	for _, j := range s.jobs {
		out.Jobs = append(out.Jobs, JobInfo{
			Name:      j.spec.Name,
			Kind:      j.spec.Kind,
			Spec:      j.desc,
			Next:      j.next,
			Last:      j.last,
			Fires:     j.fires,
			Skipped:   j.skipped,
			Failures:  j.failures,
			Running:   j.running,
			Retired:   j.retired,
			LastError: j.lastError,
		})
	}
	sort.SliceStable(out.Jobs, func(a, b int) bool {
		ja, jb := out.Jobs[a], out.Jobs[b]
		if ja.Next.IsZero() != jb.Next.IsZero() {
			return !ja.Next.IsZero()
		}
		return ja.Next.Before(jb.Next)
	})
	return out
}
