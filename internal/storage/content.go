package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const contentColumns = `id, title, type, body, summary, tags, importance, source, created_at, published, COALESCE(published_at, 0), publish_attempts`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContent(row rowScanner) (ContentRecord, error) {
	var (
		rec       ContentRecord
		tags      string
		created   int64
		published int
		pubAt     int64
	)
	err := row.Scan(&rec.ID, &rec.Title, &rec.Type, &rec.Body, &rec.Summary, &tags,
		&rec.Importance, &rec.Source, &created, &published, &pubAt, &rec.PublishAttempts)
	if err != nil {
		return rec, err
	}
	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &rec.Tags); err != nil {
			return rec, fmt.Errorf("decode tags: %w", err)
		}
	}
	rec.CreatedAt = fromMS(created)
	rec.Published = published == 1
	rec.PublishedAt = fromMS(pubAt)
	return rec, nil
}

// SubmitContent records a candidate keyed by (title, type).
//
// A new pair is inserted with publish_attempts=0 and accepted=true. An existing
// pair has publish_attempts incremented and accepted=false. Both outcomes are
// decided by one UPSERT statement, so racing submitters of the same pair see
// exactly one accepted=true.
func (s *Store) SubmitContent(ctx context.Context, rec ContentRecord) (bool, ContentRecord, error) {
	rec.Title = strings.TrimSpace(rec.Title)
	if rec.Title == "" || rec.Type == "" {
		return false, rec, wrap("submit content", errors.New("title and type are required"))
	}
	if rec.Importance < 1 || rec.Importance > 3 {
		return false, rec, wrap("submit content", fmt.Errorf("importance %d outside 1..3", rec.Importance))
	}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	tags, err := json.Marshal(rec.Tags)
	if err != nil {
		return false, rec, wrap("submit content", err)
	}
	if rec.Source == "" {
		rec.Source = "generated"
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.dbNow()
	}

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO content(title, type, body, summary, tags, importance, source, created_at)
		 VALUES(?,?,?,?,?,?,?,?)
		 ON CONFLICT(title, type) DO UPDATE SET publish_attempts = publish_attempts + 1
		 RETURNING `+contentColumns,
		rec.Title, rec.Type, rec.Body, rec.Summary, string(tags), rec.Importance, rec.Source, ms(rec.CreatedAt),
	)
	stored, err := scanContent(row)
	if err != nil {
		return false, rec, wrap("submit content", err)
	}
	return stored.PublishAttempts == 0, stored, nil
}

// MarkPublished flags the record as delivered.
func (s *Store) MarkPublished(ctx context.Context, id int64, at time.Time) error {
	if at.IsZero() {
		at = s.dbNow()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE content SET published = 1, published_at = ? WHERE id = ?`, ms(at), id)
	if err != nil {
		return wrap("mark published", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return wrap("mark published", ErrNotFound)
	}
	return nil
}

// RecentContent returns the latest records of a type (all types when typ is empty).
func (s *Store) RecentContent(ctx context.Context, typ string, limit int) ([]ContentRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	if typ == "" {
		return s.queryContent(ctx, "recent content",
			`SELECT `+contentColumns+` FROM content ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	}
	return s.queryContent(ctx, "recent content",
		`SELECT `+contentColumns+` FROM content WHERE type = ? ORDER BY created_at DESC, id DESC LIMIT ?`, typ, limit)
}

func (s *Store) queryContent(ctx context.Context, op, q string, args ...any) ([]ContentRecord, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	var out []ContentRecord
	for rows.Next() {
		rec, err := scanContent(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		out = append(out, rec)
	}
	return out, wrap(op, rows.Err())
}
