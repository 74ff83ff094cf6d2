package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskplanner/internal/conflict"
	"github.com/nhle/taskplanner/internal/model"
	"github.com/nhle/taskplanner/internal/notify"
	"github.com/nhle/taskplanner/internal/reminder"
	"github.com/nhle/taskplanner/internal/settings"
	"github.com/nhle/taskplanner/internal/tasks"
	"github.com/nhle/taskplanner/tests/testutil"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	s := testutil.NewTestStore(t)
	srv := NewServer(Deps{
		Tasks:         tasks.NewService(s, conflict.Detector{}, nil),
		Settings:      settings.NewService(s, nil),
		Preferences:   reminder.NewPreferences(s, notify.StaticGate(notify.PermissionGranted), nil),
		Notifications: s,
		Users:         model.NewDirectory(nil),
	})
	return srv.Router()
}

func do(t *testing.T, h http.Handler, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if user != "" {
		req.Header.Set(UserHeader, user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func newTaskBody(date string, participants ...string) map[string]any {
	return map[string]any{
		"date":         date,
		"start_time":   "10:00",
		"end_time":     "11:00",
		"code":         "KK18",
		"channel":      "DT5",
		"type":         "Saha",
		"action":       "site visit",
		"participants": participants,
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestAuthentication(t *testing.T) {
	h := newTestServer(t)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/tasks", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/tasks", "mallory", nil).Code)

	rec := do(t, h, http.MethodGet, "/me", "HIA", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hia", decode[model.User](t, rec).Username)
}

func TestCreateTaskFlow(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/tasks", "hia", newTaskBody("2024-03-07", "hia"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodPost, "/tasks", "admin", map[string]any{"date": "2024-03-07"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode[errorBody](t, rec)
	assert.Contains(t, body.Fields, "participants")

	rec = do(t, h, http.MethodPost, "/tasks", "admin", newTaskBody("2024-03-07", "B", "C"))
	require.Equal(t, http.StatusCreated, rec.Code)
	first := decode[model.Task](t, rec)

	rec = do(t, h, http.MethodPost, "/tasks", "admin", newTaskBody("2024-03-07", "A", "B"))
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), first.ID)

	rec = do(t, h, http.MethodPost, "/tasks?force=true", "admin", newTaskBody("2024-03-07", "A", "B"))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodGet, "/tasks?participant=c", "yce", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]model.Task](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, first.ID, list[0].ID)
}

func TestCheckConflicts(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/tasks", "admin", newTaskBody("2024-03-07", "B", "C"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodPost, "/tasks/conflicts", "hia", newTaskBody("2024-03-07", "A", "B"))
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[conflict.Result](t, rec)
	assert.True(t, res.HasConflict)
	assert.Len(t, res.ConflictingTasks, 1)
}

func TestAuditEndpoints(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/tasks", "admin", newTaskBody("2024-03-07", "hia"))
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[model.Task](t, rec).ID

	rec = do(t, h, http.MethodPost, "/tasks/"+id+"/audit/request", "hia", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, rec)["applied"])

	rec = do(t, h, http.MethodGet, "/dashboard/pending-audits", "admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Task](t, rec), 1)

	assert.Equal(t, http.StatusForbidden, do(t, h, http.MethodPost, "/tasks/"+id+"/audit/approve", "hia", nil).Code)

	rec = do(t, h, http.MethodPost, "/tasks/"+id+"/audit/approve", "admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/tasks/"+id, "hia", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	task := decode[model.Task](t, rec)
	assert.Equal(t, model.StatusCompleted, task.Status)
	assert.Equal(t, "admin", task.AuditApprovedBy)

	rec = do(t, h, http.MethodPost, "/tasks/missing/audit/reopen", "admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode[map[string]any](t, rec)["applied"])

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/tasks/"+id+"/audit/shred", "admin", nil).Code)

	rec = do(t, h, http.MethodGet, "/tasks/"+id+"/events", "admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.TaskEvent](t, rec), 3)
}

func TestUpdateAndDelete(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/tasks", "admin", newTaskBody("2024-03-07", "hia"))
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[model.Task](t, rec).ID

	rec = do(t, h, http.MethodPatch, "/tasks/"+id, "admin", map[string]any{"action": "report"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "report", decode[model.Task](t, rec).Action)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/tasks/"+id, "admin", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/tasks/"+id, "admin", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/tasks/"+id, "admin", nil).Code)
}

func TestSettingsEndpoints(t *testing.T) {
	h := newTestServer(t)

	assert.Equal(t, http.StatusForbidden,
		do(t, h, http.MethodPost, "/settings/codes", "hia", map[string]string{"value": "Z1"}).Code)

	rec := do(t, h, http.MethodPost, "/settings/codes", "admin", map[string]string{"value": "Z1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode[model.Settings](t, rec).Codes, "Z1")

	rec = do(t, h, http.MethodDelete, "/settings/codes/Z1", "admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, decode[model.Settings](t, rec).Codes, "Z1")

	assert.Equal(t, http.StatusUnprocessableEntity,
		do(t, h, http.MethodPost, "/settings/colors", "admin", map[string]string{"value": "red"}).Code)
}

func TestPreferenceEndpoints(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/preferences/me", "hia", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode[map[string]any](t, rec)["stored"])

	rec = do(t, h, http.MethodPut, "/preferences/me", "hia", model.NotificationPreference{Enabled: true, ReminderMinutes: 30})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `"permission":"granted"`))

	rec = do(t, h, http.MethodPut, "/preferences/me", "hia", model.NotificationPreference{Enabled: true, ReminderMinutes: -1})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestNotificationEndpoints(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/notifications?unread=true", "hia", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]model.Notification](t, rec))

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/notifications/nope/read", "hia", nil).Code)
}
