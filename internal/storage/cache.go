package storage

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"sort"
	"strings"
	"time"
)

// CanonicalParams serializes params as "k=v&k=v" with keys sorted, so the same
// parameters always map to the same cache row.
func CanonicalParams(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(params[k]))
	}
	return strings.Join(parts, "&")
}

// CachePut stores payload for (endpoint, params) until now+ttl, replacing any previous entry.
func (s *Store) CachePut(ctx context.Context, endpoint, params string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	now := s.dbNow()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO api_cache(endpoint, params, payload, created_at, expires_at) VALUES(?,?,?,?,?)
		 ON CONFLICT(endpoint, params) DO UPDATE SET
		   payload = excluded.payload, created_at = excluded.created_at, expires_at = excluded.expires_at`,
		endpoint, params, payload, ms(now), ms(now.Add(ttl)),
	)
	return wrap("cache put", err)
}

// CacheGet returns the payload when a live entry exists. Expired rows read as a
// miss even before the sweep removes them.
func (s *Store) CacheGet(ctx context.Context, endpoint, params string) ([]byte, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM api_cache WHERE endpoint = ? AND params = ? AND expires_at > ?`,
		endpoint, params, ms(s.dbNow()),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrap("cache get", err)
	}
	return payload, true, nil
}

// CacheSweep deletes every entry whose expiry is not in the future.
func (s *Store) CacheSweep(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM api_cache WHERE expires_at <= ?`, ms(s.dbNow()))
	if err != nil {
		return 0, wrap("cache sweep", err)
	}
	n, err := res.RowsAffected()
	return n, wrap("cache sweep", err)
}
