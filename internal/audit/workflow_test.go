package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskplanner/internal/model"
	"github.com/nhle/taskplanner/internal/store"
	"github.com/nhle/taskplanner/tests/testutil"
)

// fakeTasks is an in-memory TaskPatcher that honours ExpectedVersion.
type fakeTasks struct {
	mu       sync.Mutex
	tasks    map[string]model.Task
	patchErr error
	events   []model.TaskEvent
}

func newFakeTasks(tasks ...model.Task) *fakeTasks {
	f := &fakeTasks{tasks: make(map[string]model.Task)}
	for _, t := range tasks {
		f.tasks[t.ID] = t
	}
	return f
}

func (f *fakeTasks) GetTaskByID(_ context.Context, id string) (*model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return nil, fmt.Errorf("getting task %s: %w", id, store.ErrNotFound)
	}
	return &t, nil
}

func (f *fakeTasks) PatchTask(_ context.Context, id string, p model.TaskPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.patchErr != nil {
		return &store.StoreWriteError{Op: "patch", TaskID: id, Err: f.patchErr}
	}
	t, ok := f.tasks[id]
	if !ok {
		return &store.StoreWriteError{Op: "patch", TaskID: id, Err: store.ErrNotFound}
	}
	if p.ExpectedVersion != nil && *p.ExpectedVersion != t.Version {
		return &store.StoreWriteError{Op: "patch", TaskID: id, Err: store.ErrStaleWrite}
	}
	f.tasks[id] = p.Apply(t)
	return nil
}

func (f *fakeTasks) AppendEvent(_ context.Context, e model.TaskEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func (f *fakeTasks) get(id string) model.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tasks[id]
}

var fixedNow = time.Date(2024, 3, 7, 9, 30, 0, 0, time.UTC)

func newTestWorkflow(f *fakeTasks) *Workflow {
	return NewWorkflow(f, WithEvents(f), WithClock(func() time.Time { return fixedNow }))
}

func baseTask(status model.Status) model.Task {
	return model.Task{ID: "t1", Date: "2024-03-07", Participants: []string{"hia"}, Status: status, Version: 1}
}

func TestRequestAudit(t *testing.T) {
	f := newFakeTasks(baseTask(model.StatusInProgress))
	w := newTestWorkflow(f)

	applied, err := w.RequestAudit(context.Background(), "t1", "hia")
	require.NoError(t, err)
	assert.True(t, applied)

	got := f.get("t1")
	assert.True(t, got.AuditRequest)
	assert.Equal(t, "hia", got.AuditRequestedBy)
	assert.Equal(t, model.StatusAwaitingAudit, got.Status)
	require.Len(t, f.events, 1)
	assert.Equal(t, model.EventAuditRequested, f.events[0].Kind)
	assert.Equal(t, "hia", f.events[0].Actor)
}

func TestRequestAuditOnCompletedIsNoop(t *testing.T) {
	task := baseTask(model.StatusCompleted)
	task.AuditApprovedBy = "admin"
	f := newFakeTasks(task)
	w := newTestWorkflow(f)

	applied, err := w.RequestAudit(context.Background(), "t1", "hia")
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, task, f.get("t1"))
	assert.Empty(t, f.events)
}

func TestApproveAudit(t *testing.T) {
	for _, status := range model.Statuses {
		t.Run(string(status), func(t *testing.T) {
			f := newFakeTasks(baseTask(status))
			w := newTestWorkflow(f)

			applied, err := w.ApproveAudit(context.Background(), "t1", "admin")
			require.NoError(t, err)
			assert.True(t, applied)

			got := f.get("t1")
			assert.Equal(t, model.StatusCompleted, got.Status)
			assert.Equal(t, "admin", got.AuditApprovedBy)
			require.NotNil(t, got.AuditApprovedAt)
			assert.Equal(t, fixedNow, *got.AuditApprovedAt)
		})
	}
}

func TestCancelApproval(t *testing.T) {
	f := newFakeTasks(baseTask(model.StatusInProgress))
	w := newTestWorkflow(f)
	ctx := context.Background()

	_, err := w.RequestAudit(ctx, "t1", "hia")
	require.NoError(t, err)
	_, err = w.ApproveAudit(ctx, "t1", "admin")
	require.NoError(t, err)

	applied, err := w.CancelApproval(ctx, "t1", "admin")
	require.NoError(t, err)
	assert.True(t, applied)

	got := f.get("t1")
	assert.Equal(t, model.StatusInProgress, got.Status)
	assert.Empty(t, got.AuditApprovedBy)
	assert.Nil(t, got.AuditApprovedAt)
	assert.True(t, got.AuditRequest, "request flag is kept")
	assert.Equal(t, "hia", got.AuditRequestedBy)
}

func TestCancelApprovalPreconditions(t *testing.T) {
	completedUnapproved := baseTask(model.StatusCompleted)
	approvedButPending := baseTask(model.StatusPending)
	approvedButPending.AuditApprovedBy = "admin"

	for name, task := range map[string]model.Task{
		"completed without approver": completedUnapproved,
		"approver but not completed": approvedButPending,
	} {
		t.Run(name, func(t *testing.T) {
			f := newFakeTasks(task)
			applied, err := newTestWorkflow(f).CancelApproval(context.Background(), "t1", "admin")
			require.NoError(t, err)
			assert.False(t, applied)
			assert.Equal(t, task, f.get("t1"))
		})
	}
}

func TestReopenAfterAnySequence(t *testing.T) {
	type step func(w *Workflow) error
	request := func(w *Workflow) error { _, err := w.RequestAudit(context.Background(), "t1", "hia"); return err }
	approve := func(w *Workflow) error { _, err := w.ApproveAudit(context.Background(), "t1", "admin"); return err }
	cancel := func(w *Workflow) error { _, err := w.CancelApproval(context.Background(), "t1", "admin"); return err }

	sequences := map[string][]step{
		"fresh":                    nil,
		"requested":                {request},
		"approved":                 {request, approve},
		"approved without request": {approve},
		"cancelled":                {request, approve, cancel},
		"re-requested":             {request, approve, cancel, request},
	}

	for name, seq := range sequences {
		t.Run(name, func(t *testing.T) {
			f := newFakeTasks(baseTask(model.StatusPending))
			w := newTestWorkflow(f)
			for _, s := range seq {
				require.NoError(t, s(w))
			}

			applied, err := w.ReopenTask(context.Background(), "t1", "admin")
			require.NoError(t, err)
			assert.True(t, applied)

			got := f.get("t1")
			assert.Equal(t, model.StatusInProgress, got.Status)
			assert.False(t, got.AuditRequest)
			assert.Empty(t, got.AuditRequestedBy)
			assert.Empty(t, got.AuditApprovedBy)
			assert.Nil(t, got.AuditApprovedAt)
		})
	}
}

func TestMissingTaskIsNoop(t *testing.T) {
	f := newFakeTasks()
	w := newTestWorkflow(f)
	ctx := context.Background()

	for name, op := range map[string]func() (bool, error){
		"request": func() (bool, error) { return w.RequestAudit(ctx, "nope", "hia") },
		"approve": func() (bool, error) { return w.ApproveAudit(ctx, "nope", "admin") },
		"cancel":  func() (bool, error) { return w.CancelApproval(ctx, "nope", "admin") },
		"reopen":  func() (bool, error) { return w.ReopenTask(ctx, "nope", "admin") },
	} {
		t.Run(name, func(t *testing.T) {
			applied, err := op()
			require.NoError(t, err)
			assert.False(t, applied)
		})
	}
	assert.Empty(t, f.events)
}

func TestStoreFailurePropagates(t *testing.T) {
	task := baseTask(model.StatusInProgress)
	f := newFakeTasks(task)
	f.patchErr = errors.New("disk full")
	w := newTestWorkflow(f)

	applied, err := w.ApproveAudit(context.Background(), "t1", "admin")
	require.Error(t, err)
	assert.False(t, applied)
	assert.True(t, store.IsStoreWriteError(err))
	assert.Equal(t, task, f.get("t1"))
	assert.Empty(t, f.events)
}

// staleTasks returns an old snapshot on read so the guarded write fails.
type staleTasks struct {
	*fakeTasks
	snapshot model.Task
}

func (s staleTasks) GetTaskByID(context.Context, string) (*model.Task, error) {
	t := s.snapshot
	return &t, nil
}

func TestStaleWriteIsRejected(t *testing.T) {
	current := baseTask(model.StatusInProgress)
	current.Version = 3
	f := newFakeTasks(current)
	old := current
	old.Version = 2

	w := NewWorkflow(staleTasks{fakeTasks: f, snapshot: old})

	applied, err := w.RequestAudit(context.Background(), "t1", "hia")
	require.Error(t, err)
	assert.False(t, applied)
	assert.ErrorIs(t, err, store.ErrStaleWrite)
	assert.Equal(t, current, f.get("t1"))
}

func TestWorkflowAgainstSQLiteStore(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	id, err := s.CreateTask(ctx, testutil.NewTask("2024-03-07", "hia"))
	require.NoError(t, err)

	w := NewWorkflow(s, WithEvents(s))

	applied, err := w.RequestAudit(ctx, id, "hia")
	require.NoError(t, err)
	require.True(t, applied)

	applied, err = w.ApproveAudit(ctx, id, "admin")
	require.NoError(t, err)
	require.True(t, applied)

	got, err := s.GetTaskByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
	assert.NotNil(t, got.AuditApprovedAt)
	assert.Equal(t, int64(3), got.Version)

	events, err := s.GetEvents(ctx, id)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, model.EventAuditApproved, events[1].Kind)
}
