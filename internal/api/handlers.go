package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nhle/taskplanner/internal/audit"
	"github.com/nhle/taskplanner/internal/model"
	"github.com/nhle/taskplanner/internal/store"
)

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}

func filterFromQuery(r *http.Request) store.TaskFilter {
	q := r.URL.Query()
	opt := func(key string) *string {
		if v := q.Get(key); v != "" {
			return &v
		}
		return nil
	}

	f := store.TaskFilter{
		DateFrom:    opt("date_from"),
		DateTo:      opt("date_to"),
		Participant: opt("participant"),
		Code:        opt("code"),
		Channel:     opt("channel"),
		Type:        opt("type"),
	}
	if v := q.Get("status"); v != "" {
		st := model.Status(v)
		f.Status = &st
	}
	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	f.Offset, _ = strconv.Atoi(q.Get("offset"))
	return f
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	list, err := s.tasks.List(r.Context(), filterFromQuery(r))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

// taskRequest is the writable subset of a task.
type taskRequest struct {
	Date         string       `json:"date"`
	StartTime    string       `json:"start_time"`
	EndTime      string       `json:"end_time"`
	Code         string       `json:"code"`
	Channel      string       `json:"channel"`
	Type         string       `json:"type"`
	Action       string       `json:"action"`
	Participants []string     `json:"participants"`
	Status       model.Status `json:"status"`
}

func (req taskRequest) toTask() model.Task {
	return model.Task{
		Date:         req.Date,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Code:         req.Code,
		Channel:      req.Channel,
		Type:         req.Type,
		Action:       req.Action,
		Participants: req.Participants,
		Status:       req.Status,
	}
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

	created, err := s.tasks.Create(r.Context(), currentUser(r), req.toTask(), force)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleCheckConflicts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		taskRequest
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	candidate := req.toTask()
	candidate.ID = req.ID

	res, err := s.tasks.CheckConflicts(r.Context(), candidate)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	res.ConflictingTasks = nonNil(res.ConflictingTasks)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.tasks.Get(r.Context(), chi.URLParam(r, "taskID"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// patchRequest names the fields to change; absent fields are untouched.
// Status only moves through the audit endpoints.
type patchRequest struct {
	Date         *string  `json:"date"`
	StartTime    *string  `json:"start_time"`
	EndTime      *string  `json:"end_time"`
	Code         *string  `json:"code"`
	Channel      *string  `json:"channel"`
	Type         *string  `json:"type"`
	Action       *string  `json:"action"`
	Participants []string `json:"participants"`
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var req patchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

	patch := model.TaskPatch{
		Date:         req.Date,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Code:         req.Code,
		Channel:      req.Channel,
		Type:         req.Type,
		Action:       req.Action,
		Participants: req.Participants,
	}
	updated, err := s.tasks.Update(r.Context(), currentUser(r), chi.URLParam(r, "taskID"), patch, force)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.tasks.Delete(r.Context(), currentUser(r), chi.URLParam(r, "taskID")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTaskEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.tasks.Events(r.Context(), chi.URLParam(r, "taskID"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(events))
}

func (s *Server) handleAuditAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := currentUser(r)
	id := chi.URLParam(r, "taskID")

	var (
		applied bool
		err     error
	)
	switch chi.URLParam(r, "action") {
	case "request":
		applied, err = s.tasks.RequestAudit(ctx, user, id)
	case "approve":
		applied, err = s.tasks.ApproveAudit(ctx, user, id)
	case "cancel":
		applied, err = s.tasks.CancelApproval(ctx, user, id)
	case "reopen":
		applied, err = s.tasks.ReopenTask(ctx, user, id)
	default:
		writeError(w, http.StatusNotFound, "unknown audit action", nil)
		return
	}
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"applied": applied})
}

func (s *Server) allTasks(w http.ResponseWriter, r *http.Request) ([]model.Task, bool) {
	list, err := s.tasks.List(r.Context(), store.TaskFilter{})
	if err != nil {
		s.writeServiceError(w, err)
		return nil, false
	}
	return list, true
}

func (s *Server) handlePendingAudits(w http.ResponseWriter, r *http.Request) {
	if list, ok := s.allTasks(w, r); ok {
		writeJSON(w, http.StatusOK, nonNil(audit.PendingAudits(list)))
	}
}

func (s *Server) handleCompleted(w http.ResponseWriter, r *http.Request) {
	if list, ok := s.allTasks(w, r); ok {
		writeJSON(w, http.StatusOK, nonNil(audit.CompletedTasks(list)))
	}
}

func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "days must be a non-negative integer", nil)
			return
		}
		days = n
	}
	if list, ok := s.allTasks(w, r); ok {
		writeJSON(w, http.StatusOK, nonNil(audit.UpcomingTasksForUser(list, currentUser(r).Username, days, s.now())))
	}
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	if list, ok := s.allTasks(w, r); ok {
		writeJSON(w, http.StatusOK, nonNil(audit.TeamCalendar(list)))
	}
}

func (s *Server) handleMine(w http.ResponseWriter, r *http.Request) {
	if list, ok := s.allTasks(w, r); ok {
		writeJSON(w, http.StatusOK, nonNil(audit.TasksForUser(list, currentUser(r).Username)))
	}
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.settings.Get(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleAddSetting(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	kind := model.SettingsKind(chi.URLParam(r, "kind"))
	st, err := s.settings.Add(r.Context(), currentUser(r), kind, req.Value)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleRemoveSetting(w http.ResponseWriter, r *http.Request) {
	kind := model.SettingsKind(chi.URLParam(r, "kind"))
	st, err := s.settings.Remove(r.Context(), currentUser(r), kind, chi.URLParam(r, "value"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleGetPreference(w http.ResponseWriter, r *http.Request) {
	pref, ok, err := s.prefs.Get(r.Context(), currentUser(r).Username)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"preference": pref, "stored": ok})
}

func (s *Server) handlePutPreference(w http.ResponseWriter, r *http.Request) {
	var pref model.NotificationPreference
	if err := json.NewDecoder(r.Body).Decode(&pref); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	perm, err := s.prefs.Save(r.Context(), currentUser(r).Username, pref)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"preference": pref, "permission": perm})
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	unread := strings.EqualFold(r.URL.Query().Get("unread"), "true")
	list, err := s.notifications.GetNotifications(r.Context(), currentUser(r).Username, unread)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	if err := s.notifications.MarkNotificationRead(r.Context(), chi.URLParam(r, "notificationID")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
