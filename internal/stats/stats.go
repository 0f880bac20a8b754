// Package stats holds in-process counters shown by the /stats command.
package stats

import (
	"sync"
	"sync/atomic"
	"time"
)

// RuntimeStats is shared by pointer; the zero value is not usable, call New.
type RuntimeStats struct {
	startedAt time.Time

	postsSent     atomic.Int64
	errors        atomic.Int64
	duplicates    atomic.Int64
	subscriberMsg atomic.Int64
	jobRuns       atomic.Int64

	mu    sync.Mutex
	users map[int64]struct{}
}

type Snapshot struct {
	StartedAt               time.Time
	Uptime                  time.Duration
	PostsSent               int64
	UsersInteracted         int64
	ErrorsHandled           int64
	Duplicates              int64
	SubscriberNotifications int64
	JobRuns                 int64
}

func New(now time.Time) *RuntimeStats {
	return &RuntimeStats{startedAt: now, users: map[int64]struct{}{}}
}

func (s *RuntimeStats) PostSent() { s.postsSent.Add(1) }
func (s *RuntimeStats) ErrorHandled() { s.errors.Add(1) }
func (s *RuntimeStats) Duplicate() { s.duplicates.Add(1) }
func (s *RuntimeStats) SubscribersNotified(n int) { s.subscriberMsg.Add(int64(n)) }
func (s *RuntimeStats) JobRun() { s.jobRuns.Add(1) }

// UserSeen records an interaction; each user is counted once.
func (s *RuntimeStats) UserSeen(id int64) {
	s.mu.Lock()
	s.users[id] = struct{}{}
	s.mu.Unlock()
}

func (s *RuntimeStats) Snapshot(now time.Time) Snapshot {
	s.mu.Lock()
	users := int64(len(s.users))
	s.mu.Unlock()
	return Snapshot{
		StartedAt:               s.startedAt,
		Uptime:                  now.Sub(s.startedAt),
		PostsSent:               s.postsSent.Load(),
		UsersInteracted:         users,
		ErrorsHandled:           s.errors.Load(),
		Duplicates:              s.duplicates.Load(),
		SubscriberNotifications: s.subscriberMsg.Load(),
		JobRuns:                 s.jobRuns.Load(),
	}
}
