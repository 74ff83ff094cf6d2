package store

import (
	"context"

	"github.com/nhle/taskplanner/internal/model"
)

// TaskFilter narrows task queries. Nil fields match everything.
type TaskFilter struct {
	DateFrom    *string // inclusive, YYYY-MM-DD
	DateTo      *string // inclusive, YYYY-MM-DD
	Participant *string // case-insensitive username match
	Code        *string
	Channel     *string
	Type        *string
	Status      *model.Status
	Limit       int
	Offset      int
}

// TaskStore persists tasks and exposes a live feed of the full task list.
type TaskStore interface {
	CreateTask(ctx context.Context, task model.Task) (string, error)
	PatchTask(ctx context.Context, id string, patch model.TaskPatch) error
	DeleteTask(ctx context.Context, id string) error
	GetTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error)
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)
	SubscribeTasks(ctx context.Context) (<-chan []model.Task, error)
}

// SettingsStore persists the allowed classification lists.
type SettingsStore interface {
	GetSettings(ctx context.Context) (model.Settings, error)
	PutSettings(ctx context.Context, s model.Settings) error
	SubscribeSettings(ctx context.Context) (<-chan model.Settings, error)
}

// PreferenceStore persists per-user notification preferences.
type PreferenceStore interface {
	GetPreferences(ctx context.Context) (model.Preferences, error)
	PutPreference(ctx context.Context, user string, pref model.NotificationPreference) error
	SubscribePreferences(ctx context.Context) (<-chan model.Preferences, error)
}

// NotificationStore persists fired reminders.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n model.Notification) error
	GetNotifications(ctx context.Context, user string, unreadOnly bool) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
}

// EventStore persists the task audit trail.
type EventStore interface {
	AppendEvent(ctx context.Context, e model.TaskEvent) error
	GetEvents(ctx context.Context, taskID string) ([]model.TaskEvent, error)
}

// Store is the full persistence surface of the application.
type Store interface {
	TaskStore
	SettingsStore
	PreferenceStore
	NotificationStore
	EventStore
	Close() error
}
