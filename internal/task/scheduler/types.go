package scheduler

import (
	"context"
	"errors"
	"time"
)

type Kind string

const (
	KindInterval Kind = "interval"
	KindDaily    Kind = "daily"
	KindWeekly   Kind = "weekly"
	KindOnce     Kind = "once"
)

var (
	ErrDuplicateJob = errors.New("scheduler: duplicate job name")
	ErrUnknownJob   = errors.New("scheduler: unknown job")
	ErrOverlapSkip  = errors.New("scheduler: job still running")
	ErrRetired      = errors.New("scheduler: once job already fired")
)

// JobSpec describes one entry of the job table.
//
// Interval jobs use Period and Offset (first fire at start+Offset). Daily and
// weekly jobs use At ("HH:MM") and, for weekly, Weekday. Once jobs fire at
// start+Offset and are then retired.
type JobSpec struct {
	Name    string
	Kind    Kind
	Period  time.Duration
	Offset  time.Duration
	At      string
	Weekday time.Weekday
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

type Config struct {
	// Location for daily and weekly jobs; nil means time.Local.
	Location *time.Location
	// DefaultTimeout applies to jobs without their own Timeout (0 = none).
	DefaultTimeout time.Duration
	HistorySize    int
}

// JobInfo is the observable state of a job.
type JobInfo struct {
	Name      string
	Kind      Kind
	Spec      string
	Next      time.Time
	Last      time.Time
	Fires     int
	Skipped   int
	Failures  int
	Running   bool
	Retired   bool
	LastError string
}

// Run describes one finished execution.
type Run struct {
	ID       string
	Name     string
	Started  time.Time
	Duration time.Duration
	Err      error
	Panicked bool
}

type HistoryItem struct {
	ID       string
	Name     string
	Started  time.Time
	Duration time.Duration
	Error    string
}

type Snapshot struct {
	Timezone string
	Started  time.Time
	Jobs     []JobInfo
	History  []HistoryItem
}

// JobEvent is emitted on the event bus when a job fails.
type JobEvent struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error"`
}
