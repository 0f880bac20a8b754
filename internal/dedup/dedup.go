// Package dedup decides whether a candidate post is new. The decision is made
// by the storage uniqueness constraint on (title, type); this package only
// adapts candidates to records and fails closed.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/content"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/storage"
	logx "github.com/Dmitry77701/saudi-football-bot-advanced/pkg/logx"
)

// Store is the subset of storage the deduplicator needs.
type Store interface {
	SubmitContent(ctx context.Context, rec storage.ContentRecord) (bool, storage.ContentRecord, error)
	MarkPublished(ctx context.Context, id int64, at time.Time) error
}

type Result struct {
	Accepted bool
	Record   storage.ContentRecord
}

type Deduplicator struct {
	store Store
	log   logx.Logger
}

func New(store Store, log logx.Logger) *Deduplicator {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Deduplicator{store: store, log: log.With(logx.String("comp", "dedup"))}
}

// Submit records the candidate. Accepted is true only for a (title, kind)
// pair never seen before. Any storage error yields Accepted=false.
func (d *Deduplicator) Submit(ctx context.Context, c content.Candidate) (Result, error) {
	if d == nil || d.store == nil {
		return Result{}, errors.New("dedup: no store")
	}
	accepted, rec, err := d.store.SubmitContent(ctx, toRecord(c))
	if err != nil {
		return Result{}, fmt.Errorf("dedup submit: %w", err)
	}
	if !accepted {
		d.log.Debug("duplicate candidate",
			logx.String("type", rec.Type),
			logx.String("title", rec.Title),
			logx.Int("attempts", rec.PublishAttempts),
		)
	}
	return Result{Accepted: accepted, Record: rec}, nil
}

// MarkDelivered flags the record as published after a successful channel send.
func (d *Deduplicator) MarkDelivered(ctx context.Context, rec storage.ContentRecord) error {
	if err := d.store.MarkPublished(ctx, rec.ID, time.Time{}); err != nil {
		return fmt.Errorf("dedup mark delivered: %w", err)
	}
	return nil
}

func toRecord(c content.Candidate) storage.ContentRecord {
	return storage.ContentRecord{
		Title:      c.Title,
		Type:       string(c.Kind),
		Body:       c.Body,
		Summary:    c.Summary,
		Tags:       c.Tags,
		Importance: c.Importance,
		Source:     c.Source,
	}
}
