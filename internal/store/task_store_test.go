package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskplanner/internal/model"
	"github.com/nhle/taskplanner/internal/store"
	"github.com/nhle/taskplanner/tests/testutil"
)

func ptr[T any](v T) *T { return &v }

func TestCreateAndGetTask(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	task := testutil.NewTask("2024-03-07", "hia", "yce")
	task.Status = ""
	id, err := s.CreateTask(ctx, task)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := s.GetTaskByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "2024-03-07", got.Date)
	assert.Equal(t, []string{"hia", "yce"}, got.Participants)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Equal(t, int64(1), got.Version)
	assert.False(t, got.AuditRequest)
	assert.Empty(t, got.AuditApprovedBy)
	assert.Nil(t, got.AuditApprovedAt)
}

func TestGetTaskByIDNotFound(t *testing.T) {
	s := testutil.NewTestStore(t)

	_, err := s.GetTaskByID(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPatchTaskWritesOnlyNamedFields(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	id, err := s.CreateTask(ctx, testutil.NewTask("2024-03-07", "hia"))
	require.NoError(t, err)

	approvedAt := time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC)
	err = s.PatchTask(ctx, id, model.TaskPatch{
		Status:          ptr(model.StatusCompleted),
		AuditApprovedBy: model.Set("admin"),
		AuditApprovedAt: model.Set(approvedAt),
	})
	require.NoError(t, err)

	got, err := s.GetTaskByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
	assert.Equal(t, "admin", got.AuditApprovedBy)
	require.NotNil(t, got.AuditApprovedAt)
	assert.True(t, approvedAt.Equal(*got.AuditApprovedAt))
	assert.Equal(t, "site visit", got.Action)
	assert.Equal(t, int64(2), got.Version)

	err = s.PatchTask(ctx, id, model.TaskPatch{
		AuditApprovedBy: model.Clear[string](),
		AuditApprovedAt: model.Clear[time.Time](),
	})
	require.NoError(t, err)

	got, err = s.GetTaskByID(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, got.AuditApprovedBy)
	assert.Nil(t, got.AuditApprovedAt)
	assert.Equal(t, model.StatusCompleted, got.Status)
}

func TestPatchTaskMissing(t *testing.T) {
	s := testutil.NewTestStore(t)

	err := s.PatchTask(context.Background(), "missing", model.TaskPatch{Action: ptr("x")})
	require.Error(t, err)
	assert.True(t, store.IsStoreWriteError(err))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPatchTaskStaleVersion(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	id, err := s.CreateTask(ctx, testutil.NewTask("2024-03-07", "hia"))
	require.NoError(t, err)

	require.NoError(t, s.PatchTask(ctx, id, model.TaskPatch{
		Action:          ptr("first"),
		ExpectedVersion: ptr(int64(1)),
	}))

	err = s.PatchTask(ctx, id, model.TaskPatch{
		Action:          ptr("second"),
		ExpectedVersion: ptr(int64(1)),
	})
	require.Error(t, err)

	var wErr *store.StoreWriteError
	require.True(t, errors.As(err, &wErr))
	assert.Equal(t, "patch", wErr.Op)
	assert.Equal(t, id, wErr.TaskID)
	assert.ErrorIs(t, err, store.ErrStaleWrite)

	got, err := s.GetTaskByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Action)
}

func TestDeleteTask(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	id, err := s.CreateTask(ctx, testutil.NewTask("2024-03-07", "hia"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteTask(ctx, id))

	_, err = s.GetTaskByID(ctx, id)
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = s.DeleteTask(ctx, id)
	assert.True(t, store.IsStoreWriteError(err))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetTasksOrderAndFilters(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	later := testutil.NewTask("2024-03-09", "hia")
	first := testutil.NewTask("2024-03-07", "yce")
	second := testutil.NewTask("2024-03-07", "HIA", "re")
	second.Code = "DT5"

	idLater, err := s.CreateTask(ctx, later)
	require.NoError(t, err)
	idFirst, err := s.CreateTask(ctx, first)
	require.NoError(t, err)
	idSecond, err := s.CreateTask(ctx, second)
	require.NoError(t, err)

	all, err := s.GetTasks(ctx, store.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{idFirst, idSecond, idLater}, []string{all[0].ID, all[1].ID, all[2].ID})

	mine, err := s.GetTasks(ctx, store.TaskFilter{Participant: ptr("hia")})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, idSecond, mine[0].ID)
	assert.Equal(t, idLater, mine[1].ID)

	byCode, err := s.GetTasks(ctx, store.TaskFilter{Code: ptr("DT5")})
	require.NoError(t, err)
	require.Len(t, byCode, 1)
	assert.Equal(t, idSecond, byCode[0].ID)

	ranged, err := s.GetTasks(ctx, store.TaskFilter{DateFrom: ptr("2024-03-08"), DateTo: ptr("2024-03-31")})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, idLater, ranged[0].ID)

	pending, err := s.GetTasks(ctx, store.TaskFilter{Status: ptr(model.StatusCompleted)})
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSubscribeTasks(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := s.CreateTask(ctx, testutil.NewTask("2024-03-07", "hia"))
	require.NoError(t, err)

	feed, err := s.SubscribeTasks(ctx)
	require.NoError(t, err)

	initial := receive(t, feed)
	assert.Len(t, initial, 1)

	id, err := s.CreateTask(ctx, testutil.NewTask("2024-03-08", "yce"))
	require.NoError(t, err)

	updated := receive(t, feed)
	require.Len(t, updated, 2)
	assert.Equal(t, id, updated[1].ID)

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-feed:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestSubscribeTasksKeepsOnlyLatest(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	feed, err := s.SubscribeTasks(ctx)
	require.NoError(t, err)

	for _, date := range []string{"2024-03-07", "2024-03-08", "2024-03-09"} {
		_, err := s.CreateTask(ctx, testutil.NewTask(date, "hia"))
		require.NoError(t, err)
	}

	latest := receive(t, feed)
	assert.Len(t, latest, 3)

	select {
	case extra := <-feed:
		t.Fatalf("unexpected extra snapshot with %d tasks", len(extra))
	default:
	}
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "feed closed")
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for feed value")
	}
	var zero T
	return zero
}
