package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/taskplanner/internal/model"
)

// AppendEvent records one entry in a task's audit trail.
func (s *SQLiteStore) AppendEvent(ctx context.Context, e model.TaskEvent) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO task_events (id, task_id, kind, actor, at) VALUES (?, ?, ?, ?, ?)",
		e.ID, e.TaskID, string(e.Kind), e.Actor, e.At.UTC(),
	)
	if err != nil {
		return writeErr("append event", e.TaskID, err)
	}
	return nil
}

// GetEvents returns a task's audit trail, oldest first.
func (s *SQLiteStore) GetEvents(ctx context.Context, taskID string) ([]model.TaskEvent, error) {
	var events []model.TaskEvent
	err := s.db.SelectContext(ctx, &events,
		"SELECT id, task_id, kind, actor, at FROM task_events WHERE task_id = ? ORDER BY at ASC, rowid ASC",
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying events for task %s: %w", taskID, err)
	}
	return events, nil
}
