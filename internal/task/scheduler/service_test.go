package scheduler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/eventbus"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/task/scheduler"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/task/scheduler/schedtest"
)

// Sunday.
var t0 = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

func newService(t *testing.T, clock *schedtest.FakeClock, opts ...scheduler.Option) (*scheduler.Service, chan scheduler.Run) {
	t.Helper()
	runs := make(chan scheduler.Run, 16)
	opts = append(opts,
		scheduler.WithClock(clock),
		scheduler.WithObserver(func(r scheduler.Run) { runs <- r }),
	)
	s := scheduler.New(scheduler.Config{Location: time.UTC}, logNop(), opts...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	})
	return s, runs
}

func waitRun(t *testing.T, runs <-chan scheduler.Run) scheduler.Run {
	t.Helper()
	select {
	case r := <-runs:
		return r
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for a run")
	}
	return scheduler.Run{}
}

func noRun(t *testing.T, runs <-chan scheduler.Run) {
	t.Helper()
	select {
	case r := <-runs:
		t.Fatalf("unexpected run of %s", r.Name)
	case <-time.After(50 * time.Millisecond):
	}
}

func jobInfo(t *testing.T, s *scheduler.Service, name string) scheduler.JobInfo {
	t.Helper()
	for _, j := range s.Snapshot().Jobs {
		if j.Name == name {
			return j
		}
	}
	t.Fatalf("job %s not in snapshot", name)
	return scheduler.JobInfo{}
}

func nopRun(context.Context) error { return nil }

func TestOnceFiresExactlyOnce(t *testing.T) {
	t.Parallel()
	clock := schedtest.NewFakeClock(t0)
	s, runs := newService(t, clock)
	if err := s.Add(scheduler.JobSpec{Name: "startup", Kind: scheduler.KindOnce, Offset: 10 * time.Second, Run: nopRun}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	clock.BlockUntil(1)
	clock.Advance(10 * time.Second)
	if r := waitRun(t, runs); r.Name != "startup" || r.Err != nil {
		t.Fatalf("run = %+v", r)
	}
	clock.Advance(time.Hour)
	noRun(t, runs)

	info := jobInfo(t, s, "startup")
	if info.Fires != 1 || !info.Retired || !info.Next.IsZero() {
		t.Fatalf("info = %+v", info)
	}
}

func TestOnceNotRerunByHand(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		manualLast bool
	}{
		{name: "scheduled then manual"},
		{name: "manual then scheduled", manualLast: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			clock := schedtest.NewFakeClock(t0)
			s, runs := newService(t, clock)
			if err := s.Add(scheduler.JobSpec{Name: "startup", Kind: scheduler.KindOnce, Offset: 10 * time.Second, Run: nopRun}); err != nil {
				t.Fatalf("Add: %v", err)
			}
			if err := s.Start(context.Background()); err != nil {
				t.Fatalf("Start: %v", err)
			}
			clock.BlockUntil(1)

			if tt.manualLast {
				if err := s.RunNow(context.Background(), "startup"); err != nil {
					t.Fatalf("first RunNow: %v", err)
				}
				waitRun(t, runs)
				clock.Advance(time.Minute)
				noRun(t, runs)
			} else {
				clock.Advance(10 * time.Second)
				waitRun(t, runs)
			}

			if err := s.RunNow(context.Background(), "startup"); !errors.Is(err, scheduler.ErrRetired) {
				t.Fatalf("RunNow after fire err = %v", err)
			}
			noRun(t, runs)
			if info := jobInfo(t, s, "startup"); info.Fires != 1 || !info.Retired {
				t.Fatalf("info = %+v", info)
			}
		})
	}
}

func TestIntervalAnchoredToStart(t *testing.T) {
	t.Parallel()
	clock := schedtest.NewFakeClock(t0)
	s, runs := newService(t, clock)
	if err := s.Add(scheduler.JobSpec{Name: "quick", Kind: scheduler.KindInterval, Period: 15 * time.Minute, Offset: 5 * time.Minute, Run: nopRun}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := jobInfo(t, s, "quick").Next; !got.Equal(t0.Add(5 * time.Minute)) {
		t.Fatalf("first next = %v", got)
	}

	clock.BlockUntil(1)
	clock.Advance(5 * time.Minute)
	r := waitRun(t, runs)
	if !r.Started.Equal(t0.Add(5 * time.Minute)) {
		t.Fatalf("started = %v", r.Started)
	}
	if got := jobInfo(t, s, "quick").Next; !got.Equal(t0.Add(20 * time.Minute)) {
		t.Fatalf("second next = %v", got)
	}

	// A late wakeup collapses missed ticks into one fire.
	clock.BlockUntil(1)
	clock.Advance(40 * time.Minute)
	waitRun(t, runs)
	noRun(t, runs)
	if got := jobInfo(t, s, "quick").Next; !got.Equal(t0.Add(50 * time.Minute)) {
		t.Fatalf("next after catch-up = %v", got)
	}
}

func TestOverlappingFireIsSkipped(t *testing.T) {
	t.Parallel()
	clock := schedtest.NewFakeClock(t0)
	s, runs := newService(t, clock)

	started := make(chan struct{}, 1)
	release := make(chan struct{})
	err := s.Add(scheduler.JobSpec{Name: "full", Kind: scheduler.KindInterval, Period: time.Minute, Run: func(ctx context.Context) error {
		started <- struct{}{}
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatalf("job did not start")
	}

	if err := s.RunNow(context.Background(), "full"); !errors.Is(err, scheduler.ErrOverlapSkip) {
		t.Fatalf("RunNow while running = %v", err)
	}

	clock.BlockUntil(1)
	clock.Advance(time.Minute)
	clock.BlockUntil(1)

	info := jobInfo(t, s, "full")
	if info.Skipped != 1 || info.Fires != 1 || !info.Running {
		t.Fatalf("info = %+v", info)
	}

	close(release)
	waitRun(t, runs)
	if info := jobInfo(t, s, "full"); info.Running {
		t.Fatalf("still running after release")
	}
}

func TestPanicIsRecoveredAndJobRearmed(t *testing.T) {
	t.Parallel()
	clock := schedtest.NewFakeClock(t0)
	bus := eventbus.New()
	events, unsub := bus.Subscribe(4)
	defer unsub()
	s, runs := newService(t, clock, scheduler.WithBus(bus))

	calls := 0
	err := s.Add(scheduler.JobSpec{Name: "flaky", Kind: scheduler.KindInterval, Period: time.Minute, Run: func(context.Context) error {
		calls++
		if calls == 1 {
			panic("boom")
		}
		return nil
	}})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	r := waitRun(t, runs)
	if !r.Panicked || r.Err == nil {
		t.Fatalf("first run = %+v", r)
	}
	select {
	case ev := <-events:
		if ev.Type != eventbus.JobFailed {
			t.Fatalf("event type = %s", ev.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no job failure event")
	}

	clock.BlockUntil(1)
	clock.Advance(time.Minute)
	if r := waitRun(t, runs); r.Err != nil {
		t.Fatalf("second run = %+v", r)
	}
	info := jobInfo(t, s, "flaky")
	if info.Fires != 2 || info.Failures != 1 || info.LastError != "" {
		t.Fatalf("info = %+v", info)
	}
}

func TestCalendarJobsUseLocation(t *testing.T) {
	t.Parallel()
	riyadh := time.FixedZone("AST", 3*3600)
	clock := schedtest.NewFakeClock(t0)
	s := scheduler.New(scheduler.Config{Location: riyadh}, logNop(), scheduler.WithClock(clock))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	specs := []scheduler.JobSpec{
		{Name: "table", Kind: scheduler.KindWeekly, Weekday: time.Monday, At: "10:00", Run: nopRun},
		{Name: "fixtures", Kind: scheduler.KindDaily, At: "09:00", Run: nopRun},
		{Name: "evening", Kind: scheduler.KindDaily, At: "18:30", Run: nopRun},
	}
	for _, spec := range specs {
		if err := s.Add(spec); err != nil {
			t.Fatalf("Add %s: %v", spec.Name, err)
		}
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// t0 is Sunday 12:00 in Riyadh.
	want := map[string]time.Time{
		"table":    time.Date(2026, 10, 19, 10, 0, 0, 0, riyadh),
		"fixtures": time.Date(2026, 10, 19, 9, 0, 0, 0, riyadh),
		"evening":  time.Date(2026, 10, 18, 18, 30, 0, 0, riyadh),
	}
	snap := s.Snapshot()
	if len(snap.Jobs) != 3 || snap.Jobs[0].Name != "evening" {
		t.Fatalf("snapshot order = %+v", snap.Jobs)
	}
	for _, j := range snap.Jobs {
		if !j.Next.Equal(want[j.Name]) {
			t.Fatalf("%s next = %v, want %v", j.Name, j.Next, want[j.Name])
		}
	}
}

func TestAddValidation(t *testing.T) {
	t.Parallel()
	s := scheduler.New(scheduler.Config{}, logNop())
	if err := s.Add(scheduler.JobSpec{Name: "a", Kind: scheduler.KindOnce, Run: nopRun}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	tests := []struct {
		name string
		spec scheduler.JobSpec
		dup  bool
	}{
		{name: "duplicate", spec: scheduler.JobSpec{Name: "a", Kind: scheduler.KindOnce, Run: nopRun}, dup: true},
		{name: "no name", spec: scheduler.JobSpec{Kind: scheduler.KindOnce, Run: nopRun}},
		{name: "no run", spec: scheduler.JobSpec{Name: "b", Kind: scheduler.KindOnce}},
		{name: "zero period", spec: scheduler.JobSpec{Name: "c", Kind: scheduler.KindInterval, Run: nopRun}},
		{name: "bad clock", spec: scheduler.JobSpec{Name: "d", Kind: scheduler.KindDaily, At: "25:00", Run: nopRun}},
		{name: "unknown kind", spec: scheduler.JobSpec{Name: "e", Kind: "hourly", Run: nopRun}},
		{name: "negative offset", spec: scheduler.JobSpec{Name: "f", Kind: scheduler.KindOnce, Offset: -time.Second, Run: nopRun}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Add(tt.spec)
			if err == nil {
				t.Fatalf("expected error")
			}
			if got := errors.Is(err, scheduler.ErrDuplicateJob); got != tt.dup {
				t.Fatalf("duplicate = %v, err = %v", got, err)
			}
		})
	}
}

func TestRunNow(t *testing.T) {
	t.Parallel()
	s := scheduler.New(scheduler.Config{}, logNop())
	boom := errors.New("boom")
	if err := s.Add(scheduler.JobSpec{Name: "publish", Kind: scheduler.KindOnce, Offset: time.Hour, Run: func(context.Context) error { return boom }}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.RunNow(context.Background(), "missing"); !errors.Is(err, scheduler.ErrUnknownJob) {
		t.Fatalf("unknown job err = %v", err)
	}
	if err := s.RunNow(context.Background(), "publish"); !errors.Is(err, boom) {
		t.Fatalf("RunNow err = %v", err)
	}
	snap := s.Snapshot()
	if len(snap.History) != 1 || snap.History[0].Error != "boom" {
		t.Fatalf("history = %+v", snap.History)
	}
}
