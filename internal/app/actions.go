package app

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskplanner/internal/model"
	"github.com/nhle/taskplanner/internal/store"
	"github.com/nhle/taskplanner/internal/tasks"
	"github.com/nhle/taskplanner/internal/ui/detail"
	"github.com/nhle/taskplanner/internal/ui/taskform"
)

// taskSavedMsg is sent after the form's task was created or updated.
type taskSavedMsg struct {
	task model.Task
	err  error
}

// taskActionMsg is sent after an action from the list or detail view.
type taskActionMsg struct {
	action  detail.Action
	taskID  string
	changed bool
	err     error
}

// errMsg surfaces a background failure in the toast line.
type errMsg struct{ err error }

// loadDetail fetches a task and its history.
func (m Model) loadDetail(id string) tea.Cmd {
	svc := m.tasks
	return func() tea.Msg {
		ctx := context.Background()
		t, err := svc.Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return detail.DetailLoadedMsg{TaskID: id}
		}
		if err != nil {
			return detail.DetailLoadedMsg{TaskID: id, Err: err}
		}
		events, err := svc.Events(ctx, id)
		return detail.DetailLoadedMsg{TaskID: id, Task: t, Events: events, Err: err}
	}
}

// saveTask creates or updates the submitted task.
func (m Model) saveTask(msg taskform.SubmitMsg) tea.Cmd {
	svc, actor := m.tasks, m.user
	return func() tea.Msg {
		ctx := context.Background()
		if msg.EditID == "" {
			t, err := svc.Create(ctx, actor, msg.Task, msg.Force)
			return taskSavedMsg{task: t, err: err}
		}
		t, err := svc.Update(ctx, actor, msg.EditID, patchFrom(msg.Task), msg.Force)
		return taskSavedMsg{task: t, err: err}
	}
}

func patchFrom(t model.Task) model.TaskPatch {
	return model.TaskPatch{
		Date:         &t.Date,
		StartTime:    &t.StartTime,
		EndTime:      &t.EndTime,
		Code:         &t.Code,
		Channel:      &t.Channel,
		Type:         &t.Type,
		Action:       &t.Action,
		Participants: t.Participants,
	}
}

// runAction applies an audit workflow step or deletes a task.
func (m Model) runAction(a detail.Action, id string) tea.Cmd {
	svc, actor := m.tasks, m.user
	return func() tea.Msg {
		ctx := context.Background()
		var (
			changed bool
			err     error
		)
		switch a {
		case detail.ActionDelete:
			err = svc.Delete(ctx, actor, id)
			changed = err == nil
		case detail.ActionRequestAudit:
			changed, err = svc.RequestAudit(ctx, actor, id)
		case detail.ActionApprove:
			changed, err = svc.ApproveAudit(ctx, actor, id)
		case detail.ActionCancelApproval:
			changed, err = svc.CancelApproval(ctx, actor, id)
		case detail.ActionReopen:
			changed, err = svc.ReopenTask(ctx, actor, id)
		default:
			err = fmt.Errorf("unknown action %q", a)
		}
		return taskActionMsg{action: a, taskID: id, changed: changed, err: err}
	}
}

func actionDone(a detail.Action) string {
	switch a {
	case detail.ActionDelete:
		return "Task deleted"
	case detail.ActionRequestAudit:
		return "Audit requested"
	case detail.ActionApprove:
		return "Audit approved"
	case detail.ActionCancelApproval:
		return "Approval cancelled"
	case detail.ActionReopen:
		return "Task reopened"
	}
	return string(a)
}

func conflictResult(err error) (*tasks.ConflictError, bool) {
	var ce *tasks.ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
