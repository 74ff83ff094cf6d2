package store

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/taskplanner/internal/model"
)

type preferenceRow struct {
	Username        string `db:"username"`
	Enabled         int    `db:"enabled"`
	ReminderMinutes int    `db:"reminder_minutes"`
}

// GetPreferences returns every stored preference keyed by username.
func (s *SQLiteStore) GetPreferences(ctx context.Context) (model.Preferences, error) {
	var rows []preferenceRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT username, enabled, reminder_minutes FROM notification_preferences ORDER BY username")
	if err != nil {
		return nil, fmt.Errorf("querying preferences: %w", err)
	}

	prefs := make(model.Preferences, len(rows))
	for _, r := range rows {
		prefs[r.Username] = model.NotificationPreference{
			Enabled:         r.Enabled != 0,
			ReminderMinutes: r.ReminderMinutes,
		}
	}
	return prefs, nil
}

// PutPreference creates or replaces one user's preference without touching
// the others.
func (s *SQLiteStore) PutPreference(ctx context.Context, user string, pref model.NotificationPreference) error {
	if err := pref.Validate(); err != nil {
		return writeErr("put preference", "", err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notification_preferences (username, enabled, reminder_minutes, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			enabled = excluded.enabled,
			reminder_minutes = excluded.reminder_minutes,
			updated_at = excluded.updated_at`,
		user, boolToInt(pref.Enabled), pref.ReminderMinutes, time.Now().UTC(),
	)
	if err != nil {
		return writeErr("put preference", "", fmt.Errorf("user %s: %w", user, err))
	}

	s.refreshPreferences(ctx)
	return nil
}

// SubscribePreferences returns a latest-value feed of all preferences,
// starting with the current map.
func (s *SQLiteStore) SubscribePreferences(ctx context.Context) (<-chan model.Preferences, error) {
	ch, cancel := s.prefFeed.subscribe(ctx)

	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	prefs, err := s.GetPreferences(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribing to preferences: %w", err)
	}
	s.prefFeed.publish(prefs)

	return ch, nil
}

func (s *SQLiteStore) refreshPreferences(ctx context.Context) {
	if !s.prefFeed.active() {
		return
	}
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	prefs, err := s.GetPreferences(context.WithoutCancel(ctx))
	if err != nil {
		s.logger.Warn("refreshing preference feed", "error", err)
		return
	}
	s.prefFeed.publish(prefs)
}
