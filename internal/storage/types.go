package storage

import (
	"errors"
	"time"
)

// ErrStorage matches every error returned by the store (errors.Is).
var ErrStorage = errors.New("storage error")

// ErrNotFound is returned (wrapped) by single-row lookups that match nothing.
var ErrNotFound = errors.New("not found")

// Error wraps a failed store operation.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return "storage: " + e.Op + ": " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrStorage }

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// Config configures the SQLite store.
type Config struct {
	Path        string
	BusyTimeout time.Duration // 0 means 5s
}

// DefaultCacheTTL is the API cache lifetime when callers pass ttl <= 0.
const DefaultCacheTTL = 60 * time.Minute

// ContentRecord is one generated post. (Title, Type) is unique.
type ContentRecord struct {
	ID              int64
	Title           string
	Type            string
	Body            string
	Summary         string
	Tags            []string
	Importance      int
	Source          string
	CreatedAt       time.Time
	Published       bool
	PublishedAt     time.Time
	PublishAttempts int
}

// Entity kinds for subscriptions.
const (
	KindTeam   = "team"
	KindPlayer = "player"
)

type Subscription struct {
	ID           int64
	SubscriberID int64
	EntityName   string
	EntityKind   string
	Active       bool
	CreatedAt    time.Time
}

// Stat types recorded in bot_stats.
const (
	StatQuickNewsSent = "quick_news_sent"
	StatFullNewsSent  = "full_news_sent"
	StatMatchesSent   = "matches_sent"
	StatTableSent     = "table_sent"
	StatHealthCheck   = "health_check"
	StatStartup       = "startup"
	StatSubscriberMsg = "subscriber_notified"
)

type Team struct {
	Name    string
	City    string
	Founded int
	Stadium string
}

type Player struct {
	Name        string
	Team        string
	Position    string
	Nationality string
}

type Match struct {
	ID         int64
	HomeTeam   string
	AwayTeam   string
	Day        string // YYYY-MM-DD
	Kickoff    string // HH:MM
	Tournament string
	TVChannel  string
	Status     string
	HomeScore  *int
	AwayScore  *int
}

type StandingRow struct {
	Team           string
	League         string
	Season         string
	Position       int
	Played         int
	Won            int
	Drawn          int
	Lost           int
	GoalsFor       int
	GoalsAgainst   int
	GoalDifference int
	Points         int
}

type UserSettings struct {
	UserID           int64
	Language         string
	NotificationTime string
	Timezone         string
	Notifications    bool
}

// DatabaseStats holds per-table row counts.
type DatabaseStats struct {
	Tables      map[string]int64
	Published   int64
	Unpublished int64
	ActiveSubs  int64
}
