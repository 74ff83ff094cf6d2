// Package tasks is the entry point for every task operation a user can
// trigger: it checks roles, validates input against the settings lists,
// runs conflict detection and drives the audit workflow.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/nhle/taskplanner/internal/audit"
	"github.com/nhle/taskplanner/internal/conflict"
	"github.com/nhle/taskplanner/internal/model"
	"github.com/nhle/taskplanner/internal/store"
)

// Store is the persistence the service needs.
type Store interface {
	CreateTask(ctx context.Context, task model.Task) (string, error)
	PatchTask(ctx context.Context, id string, patch model.TaskPatch) error
	DeleteTask(ctx context.Context, id string) error
	GetTasks(ctx context.Context, filter store.TaskFilter) ([]model.Task, error)
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)
	GetSettings(ctx context.Context) (model.Settings, error)
	AppendEvent(ctx context.Context, e model.TaskEvent) error
	GetEvents(ctx context.Context, taskID string) ([]model.TaskEvent, error)
}

// Service implements task operations on behalf of an acting user.
type Service struct {
	store    Store
	workflow *audit.Workflow
	detector conflict.Detector
	logger   *slog.Logger
}

// NewService returns a task service.
func NewService(s Store, detector conflict.Detector, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    s,
		workflow: audit.NewWorkflow(s, audit.WithEvents(s), audit.WithLogger(logger)),
		detector: detector,
		logger:   logger,
	}
}

// List returns tasks matching filter.
func (s *Service) List(ctx context.Context, filter store.TaskFilter) ([]model.Task, error) {
	return s.store.GetTasks(ctx, filter)
}

// Get returns a task by ID.
func (s *Service) Get(ctx context.Context, id string) (*model.Task, error) {
	return s.store.GetTaskByID(ctx, id)
}

// Events returns the audit trail of a task.
func (s *Service) Events(ctx context.Context, id string) ([]model.TaskEvent, error) {
	return s.store.GetEvents(ctx, id)
}

// CheckConflicts reports existing tasks that would clash with candidate.
func (s *Service) CheckConflicts(ctx context.Context, candidate model.Task) (conflict.Result, error) {
	date := candidate.Date
	sameDay, err := s.store.GetTasks(ctx, store.TaskFilter{DateFrom: &date, DateTo: &date})
	if err != nil {
		return conflict.Result{}, fmt.Errorf("loading tasks on %s: %w", date, err)
	}
	return s.detector.Detect(candidate, sameDay), nil
}

// Create stores a new task. Only admins may create tasks. The task must
// carry every required field and use values from the settings lists. When
// it conflicts with existing tasks a *ConflictError is returned unless
// force is set.
func (s *Service) Create(ctx context.Context, actor model.User, task model.Task, force bool) (model.Task, error) {
	if err := model.RequireAdmin(actor, "create task"); err != nil {
		return model.Task{}, err
	}

	task.ID = ""
	task.Participants = normalizeParticipants(task.Participants)
	if task.Status == "" {
		task.Status = model.StatusPending
	}
	if err := s.validate(ctx, task); err != nil {
		return model.Task{}, err
	}

	res, err := s.CheckConflicts(ctx, task)
	if err != nil {
		return model.Task{}, err
	}
	if res.HasConflict && !force {
		return model.Task{}, &ConflictError{Result: res}
	}

	id, err := s.store.CreateTask(ctx, task)
	if err != nil {
		return model.Task{}, fmt.Errorf("creating task: %w", err)
	}
	s.record(ctx, id, model.EventTaskCreated, actor)
	s.logger.Info("task created", "task_id", id, "date", task.Date, "actor", actor.Username,
		"conflicts", len(res.ConflictingTasks))

	created, err := s.store.GetTaskByID(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	return *created, nil
}

// Update applies patch to a task. Only admins may edit tasks. Changes to
// the date, times or participants are checked for conflicts, skipping the
// task itself. The status and audit fields are rejected; only the audit
// workflow moves them.
func (s *Service) Update(
	ctx context.Context,
	actor model.User,
	id string,
	patch model.TaskPatch,
	force bool,
) (model.Task, error) {
	if err := model.RequireAdmin(actor, "update task"); err != nil {
		return model.Task{}, err
	}
	if fields := workflowFields(patch); len(fields) > 0 {
		return model.Task{}, &model.ValidationError{Fields: fields}
	}

	current, err := s.store.GetTaskByID(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	if patch.Participants != nil {
		patch.Participants = normalizeParticipants(patch.Participants)
	}
	next := patch.Apply(*current)
	if err := s.validate(ctx, next); err != nil {
		return model.Task{}, err
	}

	if patch.Date != nil || patch.Participants != nil || patch.StartTime != nil || patch.EndTime != nil {
		res, err := s.CheckConflicts(ctx, next)
		if err != nil {
			return model.Task{}, err
		}
		if res.HasConflict && !force {
			return model.Task{}, &ConflictError{Result: res}
		}
	}

	version := current.Version
	patch.ExpectedVersion = &version
	if err := s.store.PatchTask(ctx, id, patch); err != nil {
		return model.Task{}, fmt.Errorf("updating task %s: %w", id, err)
	}
	s.record(ctx, id, model.EventTaskUpdated, actor)

	updated, err := s.store.GetTaskByID(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	return *updated, nil
}

// Delete removes a task. Only admins may delete tasks.
func (s *Service) Delete(ctx context.Context, actor model.User, id string) error {
	if err := model.RequireAdmin(actor, "delete task"); err != nil {
		return err
	}
	if err := s.store.DeleteTask(ctx, id); err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	s.record(ctx, id, model.EventTaskDeleted, actor)
	s.logger.Info("task deleted", "task_id", id, "actor", actor.Username)
	return nil
}

// RequestAudit asks for review of a task. Participants and admins may
// request.
func (s *Service) RequestAudit(ctx context.Context, actor model.User, id string) (bool, error) {
	if !actor.IsAdmin() {
		t, err := s.store.GetTaskByID(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if !slices.ContainsFunc(t.Participants, func(p string) bool { return strings.EqualFold(p, actor.Username) }) {
			return false, fmt.Errorf("request audit on %s by %s: %w", id, actor.Username, model.ErrForbidden)
		}
	}
	return s.workflow.RequestAudit(ctx, id, actor.Username)
}

// ApproveAudit completes a task. Admin only.
func (s *Service) ApproveAudit(ctx context.Context, actor model.User, id string) (bool, error) {
	if err := model.RequireAdmin(actor, "approve audit"); err != nil {
		return false, err
	}
	return s.workflow.ApproveAudit(ctx, id, actor.Username)
}

// CancelApproval withdraws an approval. Admin only.
func (s *Service) CancelApproval(ctx context.Context, actor model.User, id string) (bool, error) {
	if err := model.RequireAdmin(actor, "cancel approval"); err != nil {
		return false, err
	}
	return s.workflow.CancelApproval(ctx, id, actor.Username)
}

// ReopenTask resets a task's audit state. Admin only.
func (s *Service) ReopenTask(ctx context.Context, actor model.User, id string) (bool, error) {
	if err := model.RequireAdmin(actor, "reopen task"); err != nil {
		return false, err
	}
	return s.workflow.ReopenTask(ctx, id, actor.Username)
}

func (s *Service) validate(ctx context.Context, t model.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	if bad := settings.Disallowed(t); len(bad) > 0 {
		return &model.ValidationError{Fields: bad}
	}
	return nil
}

func (s *Service) record(ctx context.Context, id string, kind model.EventKind, actor model.User) {
	err := s.store.AppendEvent(ctx, model.TaskEvent{TaskID: id, Kind: kind, Actor: actor.Username})
	if err != nil {
		s.logger.Warn("recording task event", "task_id", id, "kind", kind, "error", err)
	}
}

// normalizeParticipants trims names and drops blanks and duplicates,
// keeping the first occurrence.
func normalizeParticipants(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p == "" || slices.Contains(out, p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// workflowFields lists the audit-state fields a free-form patch sets.
func workflowFields(p model.TaskPatch) []string {
	var fields []string
	if p.Status != nil {
		fields = append(fields, "status")
	}
	if p.AuditRequest != nil {
		fields = append(fields, "audit_request")
	}
	if p.AuditRequestedBy.IsSet() {
		fields = append(fields, "audit_requested_by")
	}
	if p.AuditApprovedBy.IsSet() {
		fields = append(fields, "audit_approved_by")
	}
	if p.AuditApprovedAt.IsSet() {
		fields = append(fields, "audit_approved_at")
	}
	return fields
}
