package storage

import (
	"context"
	"errors"
	"strings"
)

func checkKind(kind string) error {
	if kind != KindTeam && kind != KindPlayer {
		return errors.New("entity kind must be team or player")
	}
	return nil
}

// Subscribe creates an active subscription. It returns false without error when
// an active one already exists for (subscriber, name, kind). A previously
// deactivated subscription is never revived; a fresh row is inserted instead.
func (s *Store) Subscribe(ctx context.Context, subscriberID int64, name, kind string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, wrap("subscribe", errors.New("entity name is required"))
	}
	if err := checkKind(kind); err != nil {
		return false, wrap("subscribe", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO subscriptions(subscriber_id, entity_name, entity_kind, active, created_at)
		 VALUES(?,?,?,1,?)
		 ON CONFLICT DO NOTHING`,
		subscriberID, name, kind, ms(s.dbNow()),
	)
	if err != nil {
		return false, wrap("subscribe", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrap("subscribe", err)
	}
	return n == 1, nil
}

// Unsubscribe deactivates the active subscription. It returns false when none was active.
func (s *Store) Unsubscribe(ctx context.Context, subscriberID int64, name, kind string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE subscriptions SET active = 0
		 WHERE subscriber_id = ? AND entity_name = ? AND entity_kind = ? AND active = 1`,
		subscriberID, strings.TrimSpace(name), kind,
	)
	if err != nil {
		return false, wrap("unsubscribe", err)
	}
	n, err := res.RowsAffected()
	return n > 0, wrap("unsubscribe", err)
}

// SubscriptionsOf lists a subscriber's active subscriptions.
func (s *Store) SubscriptionsOf(ctx context.Context, subscriberID int64) ([]Subscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, subscriber_id, entity_name, entity_kind, active, created_at
		 FROM subscriptions WHERE subscriber_id = ? AND active = 1
		 ORDER BY entity_kind, entity_name`, subscriberID)
	if err != nil {
		return nil, wrap("subscriptions of", err)
	}
	defer rows.Close()

	var out []Subscription
	for rows.Next() {
		var (
			sub     Subscription
			active  int
			created int64
		)
		if err := rows.Scan(&sub.ID, &sub.SubscriberID, &sub.EntityName, &sub.EntityKind, &active, &created); err != nil {
			return nil, wrap("subscriptions of", err)
		}
		sub.Active = active == 1
		sub.CreatedAt = fromMS(created)
		out = append(out, sub)
	}
	return out, wrap("subscriptions of", rows.Err())
}

// SubscribersFor returns the distinct active subscribers of an entity.
func (s *Store) SubscribersFor(ctx context.Context, name, kind string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT subscriber_id FROM subscriptions
		 WHERE entity_name = ? AND entity_kind = ? AND active = 1
		 ORDER BY subscriber_id`, name, kind)
	if err != nil {
		return nil, wrap("subscribers for", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, wrap("subscribers for", err)
		}
		out = append(out, id)
	}
	return out, wrap("subscribers for", rows.Err())
}
