package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/taskplanner/internal/model"
)

type notificationRow struct {
	ID        string    `db:"id"`
	TaskID    string    `db:"task_id"`
	Username  string    `db:"username"`
	Title     string    `db:"title"`
	Body      string    `db:"body"`
	Read      int       `db:"read"`
	CreatedAt time.Time `db:"created_at"`
}

// CreateNotification inserts a new notification record.
func (s *SQLiteStore) CreateNotification(ctx context.Context, n model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, task_id, username, title, body, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.TaskID, n.Username, n.Title, n.Body,
		boolToInt(n.Read), n.CreatedAt.UTC(),
	)
	if err != nil {
		return writeErr("create notification", n.TaskID, err)
	}

	return nil
}

// GetNotifications retrieves a user's notifications, newest first.
func (s *SQLiteStore) GetNotifications(
	ctx context.Context,
	user string,
	unreadOnly bool,
) ([]model.Notification, error) {
	query := "SELECT id, task_id, username, title, body, read, created_at FROM notifications WHERE username = ?"
	if unreadOnly {
		query += " AND read = 0"
	}
	query += " ORDER BY created_at DESC"

	var rows []notificationRow
	if err := s.db.SelectContext(ctx, &rows, query, user); err != nil {
		return nil, fmt.Errorf("querying notifications for %s: %w", user, err)
	}

	out := make([]model.Notification, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.Notification{
			ID:        r.ID,
			TaskID:    r.TaskID,
			Username:  r.Username,
			Title:     r.Title,
			Body:      r.Body,
			Read:      r.Read != 0,
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}

// MarkNotificationRead marks a single notification as read.
func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET read = 1 WHERE id = ?", id,
	)
	if err != nil {
		return writeErr("mark notification read", "", fmt.Errorf("notification %s: %w", id, err))
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return writeErr("mark notification read", "", fmt.Errorf("notification %s: %w", id, ErrNotFound))
	}
	return nil
}
