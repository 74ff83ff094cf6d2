package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/taskplanner/internal/model"
)

const taskColumns = `id, date, start_time, end_time, code, channel, type, action,
	participants, status, audit_request, audit_requested_by, audit_approved_by,
	audit_approved_at, version, created_at, updated_at`

type taskRow struct {
	ID               string         `db:"id"`
	Date             string         `db:"date"`
	StartTime        string         `db:"start_time"`
	EndTime          string         `db:"end_time"`
	Code             string         `db:"code"`
	Channel          string         `db:"channel"`
	Type             string         `db:"type"`
	Action           string         `db:"action"`
	Participants     string         `db:"participants"`
	Status           string         `db:"status"`
	AuditRequest     int            `db:"audit_request"`
	AuditRequestedBy sql.NullString `db:"audit_requested_by"`
	AuditApprovedBy  sql.NullString `db:"audit_approved_by"`
	AuditApprovedAt  sql.NullTime   `db:"audit_approved_at"`
	Version          int64          `db:"version"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func (r taskRow) toModel() (model.Task, error) {
	t := model.Task{
		ID:               r.ID,
		Date:             r.Date,
		StartTime:        r.StartTime,
		EndTime:          r.EndTime,
		Code:             r.Code,
		Channel:          r.Channel,
		Type:             r.Type,
		Action:           r.Action,
		Status:           model.Status(r.Status),
		AuditRequest:     r.AuditRequest != 0,
		AuditRequestedBy: r.AuditRequestedBy.String,
		AuditApprovedBy:  r.AuditApprovedBy.String,
		Version:          r.Version,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if r.AuditApprovedAt.Valid {
		at := r.AuditApprovedAt.Time
		t.AuditApprovedAt = &at
	}
	if r.Participants != "" {
		if err := json.Unmarshal([]byte(r.Participants), &t.Participants); err != nil {
			return model.Task{}, fmt.Errorf("unmarshaling participants of task %s: %w", r.ID, err)
		}
	}
	return t, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// CreateTask inserts a task and returns its ID. An empty ID is replaced by
// a new UUID and an empty status defaults to pending.
func (s *SQLiteStore) CreateTask(ctx context.Context, task model.Task) (string, error) {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if task.Status == "" {
		task.Status = model.StatusPending
	}
	now := time.Now().UTC()

	participants, err := json.Marshal(nonNil(task.Participants))
	if err != nil {
		return "", writeErr("create", task.ID, fmt.Errorf("marshaling participants: %w", err))
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.Date, task.StartTime, task.EndTime,
		task.Code, task.Channel, task.Type, task.Action,
		string(participants), string(task.Status), boolToInt(task.AuditRequest),
		nullString(task.AuditRequestedBy), nullString(task.AuditApprovedBy),
		task.AuditApprovedAt, 1, now, now,
	)
	if err != nil {
		return "", writeErr("create", task.ID, err)
	}

	s.refreshTasks(ctx)
	return task.ID, nil
}

// PatchTask writes only the fields named by patch and bumps the version.
// A missing task yields ErrNotFound; a version mismatch yields ErrStaleWrite.
// Both are wrapped in a StoreWriteError.
func (s *SQLiteStore) PatchTask(ctx context.Context, id string, patch model.TaskPatch) error {
	sets := []string{"version = version + 1", "updated_at = ?"}
	args := []any{time.Now().UTC()}

	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if patch.Date != nil {
		add("date", *patch.Date)
	}
	if patch.StartTime != nil {
		add("start_time", *patch.StartTime)
	}
	if patch.EndTime != nil {
		add("end_time", *patch.EndTime)
	}
	if patch.Code != nil {
		add("code", *patch.Code)
	}
	if patch.Channel != nil {
		add("channel", *patch.Channel)
	}
	if patch.Type != nil {
		add("type", *patch.Type)
	}
	if patch.Action != nil {
		add("action", *patch.Action)
	}
	if patch.Participants != nil {
		b, err := json.Marshal(patch.Participants)
		if err != nil {
			return writeErr("patch", id, fmt.Errorf("marshaling participants: %w", err))
		}
		add("participants", string(b))
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.AuditRequest != nil {
		add("audit_request", boolToInt(*patch.AuditRequest))
	}
	if patch.AuditRequestedBy.IsSet() {
		v, _ := patch.AuditRequestedBy.Value()
		add("audit_requested_by", nullString(v))
	}
	if patch.AuditApprovedBy.IsSet() {
		v, _ := patch.AuditApprovedBy.Value()
		add("audit_approved_by", nullString(v))
	}
	if patch.AuditApprovedAt.IsSet() {
		if v, ok := patch.AuditApprovedAt.Value(); ok {
			add("audit_approved_at", v.UTC())
		} else {
			add("audit_approved_at", nil)
		}
	}

	query := "UPDATE tasks SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	args = append(args, id)
	if patch.ExpectedVersion != nil {
		query += " AND version = ?"
		args = append(args, *patch.ExpectedVersion)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return writeErr("patch", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		var count int
		if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM tasks WHERE id = ?", id); err != nil {
			return writeErr("patch", id, err)
		}
		if count == 0 {
			return writeErr("patch", id, ErrNotFound)
		}
		return writeErr("patch", id, ErrStaleWrite)
	}

	s.refreshTasks(ctx)
	return nil
}

// DeleteTask removes a task by ID.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return writeErr("delete", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return writeErr("delete", id, ErrNotFound)
	}

	s.refreshTasks(ctx)
	return nil
}

// GetTasks retrieves tasks matching the filter in store order (date, then
// insertion order).
func (s *SQLiteStore) GetTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	var conditions []string
	var args []any

	if filter.DateFrom != nil {
		conditions = append(conditions, "date >= ?")
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, "date <= ?")
		args = append(args, *filter.DateTo)
	}
	if filter.Participant != nil {
		conditions = append(conditions,
			"EXISTS (SELECT 1 FROM json_each(tasks.participants) WHERE lower(json_each.value) = lower(?))")
		args = append(args, *filter.Participant)
	}
	if filter.Code != nil {
		conditions = append(conditions, "code = ?")
		args = append(args, *filter.Code)
	}
	if filter.Channel != nil {
		conditions = append(conditions, "channel = ?")
		args = append(args, *filter.Channel)
	}
	if filter.Type != nil {
		conditions = append(conditions, "type = ?")
		args = append(args, *filter.Type)
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, string(*filter.Status))
	}

	query := "SELECT " + taskColumns + " FROM tasks"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date ASC, rowid ASC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	var rows []taskRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}

	tasks := make([]model.Task, 0, len(rows))
	for _, r := range rows {
		t, err := r.toModel()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// GetTaskByID retrieves a single task. A missing task yields ErrNotFound.
func (s *SQLiteStore) GetTaskByID(ctx context.Context, id string) (*model.Task, error) {
	var r taskRow
	err := s.db.GetContext(ctx, &r, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}

	t, err := r.toModel()
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// SubscribeTasks returns a feed of the full task list. The current list is
// delivered first; afterwards every committed write delivers a fresh list.
// A slow reader only ever sees the latest list. The channel closes when ctx
// ends or the store is closed.
func (s *SQLiteStore) SubscribeTasks(ctx context.Context) (<-chan []model.Task, error) {
	ch, cancel := s.taskFeed.subscribe(ctx)

	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	tasks, err := s.GetTasks(ctx, TaskFilter{})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribing to tasks: %w", err)
	}
	s.taskFeed.publish(tasks)

	return ch, nil
}

func (s *SQLiteStore) refreshTasks(ctx context.Context) {
	if !s.taskFeed.active() {
		return
	}
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	// The write has committed; a cancelled caller context must not drop
	// the update for other subscribers.
	tasks, err := s.GetTasks(context.WithoutCancel(ctx), TaskFilter{})
	if err != nil {
		s.logger.Warn("refreshing task feed", "error", err)
		return
	}
	s.taskFeed.publish(tasks)
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
