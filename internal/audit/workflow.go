// Package audit implements the review lifecycle of a task: a participant
// requests an audit, an admin approves it, and an approval can be cancelled
// or the task reopened.
//
// Every transition reads the task, checks its precondition and writes a
// partial update guarded by the version that was read. A missing task or an
// unmet precondition is a no-op. Authorization is left to the caller.
package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nhle/taskplanner/internal/model"
	"github.com/nhle/taskplanner/internal/store"
)

// TaskPatcher is the slice of the task store the workflow writes through.
type TaskPatcher interface {
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)
	PatchTask(ctx context.Context, id string, patch model.TaskPatch) error
}

// EventRecorder receives an entry for every applied transition.
type EventRecorder interface {
	AppendEvent(ctx context.Context, e model.TaskEvent) error
}

// Workflow applies audit transitions.
type Workflow struct {
	tasks  TaskPatcher
	events EventRecorder
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithEvents records applied transitions in r.
func WithEvents(r EventRecorder) Option {
	return func(w *Workflow) { w.events = r }
}

// WithLogger sets the workflow logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Workflow) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithClock overrides the time source used for approval timestamps.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

// NewWorkflow returns a workflow writing through tasks.
func NewWorkflow(tasks TaskPatcher, opts ...Option) *Workflow {
	w := &Workflow{
		tasks:  tasks,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// RequestAudit marks the task as awaiting audit on behalf of user. It is a
// no-op for completed tasks.
func (w *Workflow) RequestAudit(ctx context.Context, id, user string) (bool, error) {
	return w.transition(ctx, model.EventAuditRequested, id, user, func(t model.Task) (model.TaskPatch, bool) {
		if t.Status == model.StatusCompleted {
			return model.TaskPatch{}, false
		}
		return model.TaskPatch{
			AuditRequest:     ptr(true),
			AuditRequestedBy: model.Set(user),
			Status:           ptr(model.StatusAwaitingAudit),
		}, true
	})
}

// ApproveAudit records user as approver and completes the task. A prior
// audit request is not required.
func (w *Workflow) ApproveAudit(ctx context.Context, id, user string) (bool, error) {
	return w.transition(ctx, model.EventAuditApproved, id, user, func(model.Task) (model.TaskPatch, bool) {
		return model.TaskPatch{
			AuditApprovedBy: model.Set(user),
			AuditApprovedAt: model.Set(w.now()),
			Status:          ptr(model.StatusCompleted),
		}, true
	})
}

// CancelApproval clears the approval of a completed task and moves it back
// in progress. The audit request flag is left as is.
func (w *Workflow) CancelApproval(ctx context.Context, id, actor string) (bool, error) {
	return w.transition(ctx, model.EventApprovalCanceled, id, actor, func(t model.Task) (model.TaskPatch, bool) {
		if t.Status != model.StatusCompleted || !t.IsApproved() {
			return model.TaskPatch{}, false
		}
		return model.TaskPatch{
			AuditApprovedBy: model.Clear[string](),
			AuditApprovedAt: model.Clear[time.Time](),
			Status:          ptr(model.StatusInProgress),
		}, true
	})
}

// ReopenTask clears every audit field and moves the task back in progress,
// whatever its current state.
func (w *Workflow) ReopenTask(ctx context.Context, id, actor string) (bool, error) {
	return w.transition(ctx, model.EventTaskReopened, id, actor, func(model.Task) (model.TaskPatch, bool) {
		return model.TaskPatch{
			AuditRequest:     ptr(false),
			AuditRequestedBy: model.Clear[string](),
			AuditApprovedBy:  model.Clear[string](),
			AuditApprovedAt:  model.Clear[time.Time](),
			Status:           ptr(model.StatusInProgress),
		}, true
	})
}

func (w *Workflow) transition(
	ctx context.Context,
	kind model.EventKind,
	id, actor string,
	build func(model.Task) (model.TaskPatch, bool),
) (bool, error) {
	t, err := w.tasks.GetTaskByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && t == nil) {
		w.logger.Debug("audit transition skipped: task not found", "kind", kind, "task_id", id)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s task %s: %w", kind, id, err)
	}

	patch, ok := build(*t)
	if !ok {
		w.logger.Debug("audit transition skipped: precondition not met",
			"kind", kind, "task_id", id, "status", t.Status)
		return false, nil
	}
	version := t.Version
	patch.ExpectedVersion = &version

	if err := w.tasks.PatchTask(ctx, id, patch); err != nil {
		return false, fmt.Errorf("%s task %s: %w", kind, id, err)
	}
	w.logger.Info("audit transition applied", "kind", kind, "task_id", id, "actor", actor)

	if w.events != nil {
		e := model.TaskEvent{TaskID: id, Kind: kind, Actor: actor, At: w.now()}
		if err := w.events.AppendEvent(ctx, e); err != nil {
			w.logger.Warn("recording audit event", "kind", kind, "task_id", id, "error", err)
		}
	}
	return true, nil
}

func ptr[T any](v T) *T { return &v }
