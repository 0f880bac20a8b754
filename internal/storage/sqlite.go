package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	logx "github.com/Dmitry77701/saudi-football-bot-advanced/pkg/logx"

	_ "modernc.org/sqlite"
)

//go:embed migrations.sql
var migrationsSQL string

// Store is the SQLite-backed persistent store. It is safe for concurrent use;
// a single connection serializes writers.
type Store struct {
	db  *sql.DB
	log logx.Logger
	now func() time.Time
}

type Option func(*Store)

// WithClock overrides the store clock (cache expiry, created_at stamps).
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func (s *Store) dbNow() time.Time { return s.now().UTC() }

func ms(t time.Time) int64 { return t.UnixMilli() }

func fromMS(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.UnixMilli(v)
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Open opens (creating if needed) the database at cfg.Path and applies migrations.
func Open(ctx context.Context, cfg Config, log logx.Logger, opts ...Option) (*Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, wrap("open", errors.New("sqlite path is required"))
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, wrap("open", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrap("open", err)
	}
	// One connection: SQLite allows a single writer, and :memory: databases
	// are per-connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &Store{db: db, log: log, now: time.Now}
	for _, o := range opts {
		o(st)
	}

	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", busy.Milliseconds()),
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			log.Warn("sqlite pragma failed", logx.String("pragma", p), logx.Err(err))
		}
	}

	if _, err := db.ExecContext(ctx, migrationsSQL); err != nil {
		_ = db.Close()
		return nil, wrap("migrate", err)
	}
	log.Debug("sqlite store opened", logx.String("path", path))
	return st, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks the database is reachable (health checks).
func (s *Store) Ping(ctx context.Context) error {
	return wrap("ping", s.db.PingContext(ctx))
}

// DatabaseStats counts rows per table plus published/unpublished content.
func (s *Store) DatabaseStats(ctx context.Context) (DatabaseStats, error) {
	out := DatabaseStats{Tables: map[string]int64{}}
	tables := []string{
		"content", "subscriptions", "api_cache", "bot_stats", "teams",
		"players", "matches", "league_table", "user_settings", "user_requests",
	}
	for _, t := range tables {
		var n int64
		// Table names come from the fixed list above.
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t).Scan(&n); err != nil {
			return out, wrap("stats "+t, err)
		}
		out.Tables[t] = n
	}
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(published = 1), 0), COALESCE(SUM(published = 0), 0) FROM content`,
	).Scan(&out.Published, &out.Unpublished)
	if err != nil {
		return out, wrap("stats content", err)
	}
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM subscriptions WHERE active = 1`).Scan(&out.ActiveSubs)
	return out, wrap("stats subscriptions", err)
}
