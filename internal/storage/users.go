package storage

import (
	"context"
	"database/sql"
	"errors"
)

// EnsureUser creates default settings for a user on first contact.
func (s *Store) EnsureUser(ctx context.Context, userID int64) error {
	now := ms(s.dbNow())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_settings(user_id, created_at, updated_at) VALUES(?,?,?)
		 ON CONFLICT(user_id) DO NOTHING`, userID, now, now)
	return wrap("ensure user", err)
}

func (s *Store) UserSettings(ctx context.Context, userID int64) (UserSettings, error) {
	us := UserSettings{UserID: userID}
	var notify int
	err := s.db.QueryRowContext(ctx,
		`SELECT language, notification_time, timezone, notifications FROM user_settings WHERE user_id = ?`,
		userID).Scan(&us.Language, &us.NotificationTime, &us.Timezone, &notify)
	if errors.Is(err, sql.ErrNoRows) {
		return us, wrap("user settings", ErrNotFound)
	}
	if err != nil {
		return us, wrap("user settings", err)
	}
	us.Notifications = notify == 1
	return us, nil
}

// UpdateUserSettings writes all fields; empty strings keep the stored value.
func (s *Store) UpdateUserSettings(ctx context.Context, us UserSettings) error {
	if err := s.EnsureUser(ctx, us.UserID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE user_settings SET
		   language = COALESCE(?, language),
		   notification_time = COALESCE(?, notification_time),
		   timezone = COALESCE(?, timezone),
		   notifications = ?,
		   updated_at = ?
		 WHERE user_id = ?`,
		nullStr(us.Language), nullStr(us.NotificationTime), nullStr(us.Timezone),
		boolInt(us.Notifications), ms(s.dbNow()), us.UserID)
	return wrap("update user settings", err)
}

// LogUserRequest appends an interaction row.
func (s *Store) LogUserRequest(ctx context.Context, userID int64, kind, data string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_requests(user_id, request_type, request_data, created_at) VALUES(?,?,?,?)`,
		userID, kind, data, ms(s.dbNow()))
	return wrap("log user request", err)
}

// RequestCount returns the number of logged interactions of a user.
func (s *Store) RequestCount(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_requests WHERE user_id = ?`, userID).Scan(&n)
	return n, wrap("request count", err)
}
