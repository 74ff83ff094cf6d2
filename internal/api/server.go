// Package api exposes task operations over HTTP. Callers identify
// themselves with the X-User header; roles come from the user directory.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nhle/taskplanner/internal/model"
	"github.com/nhle/taskplanner/internal/reminder"
	"github.com/nhle/taskplanner/internal/settings"
	"github.com/nhle/taskplanner/internal/store"
	"github.com/nhle/taskplanner/internal/tasks"
)

// UserHeader carries the acting username.
const UserHeader = "X-User"

// Server wires HTTP handlers to the services.
type Server struct {
	tasks         *tasks.Service
	settings      *settings.Service
	prefs         *reminder.Preferences
	notifications store.NotificationStore
	users         *model.Directory
	logger        *slog.Logger
	now           func() time.Time
}

// Deps holds the services the server calls.
type Deps struct {
	Tasks         *tasks.Service
	Settings      *settings.Service
	Preferences   *reminder.Preferences
	Notifications store.NotificationStore
	Users         *model.Directory
	Logger        *slog.Logger
}

// NewServer returns a server over deps.
func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		tasks:         deps.Tasks,
		settings:      deps.Settings,
		prefs:         deps.Preferences,
		notifications: deps.Notifications,
		users:         deps.Users,
		logger:        logger,
		now:           time.Now,
	}
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/me", s.handleMe)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", s.handleListTasks)
			r.Post("/", s.handleCreateTask)
			r.Post("/conflicts", s.handleCheckConflicts)

			r.Route("/{taskID}", func(r chi.Router) {
				r.Get("/", s.handleGetTask)
				r.Patch("/", s.handleUpdateTask)
				r.Delete("/", s.handleDeleteTask)
				r.Get("/events", s.handleTaskEvents)
				r.Post("/audit/{action}", s.handleAuditAction)
			})
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/pending-audits", s.handlePendingAudits)
			r.Get("/completed", s.handleCompleted)
			r.Get("/upcoming", s.handleUpcoming)
			r.Get("/calendar", s.handleCalendar)
			r.Get("/mine", s.handleMine)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", s.handleGetSettings)
			r.Post("/{kind}", s.handleAddSetting)
			r.Delete("/{kind}/{value}", s.handleRemoveSetting)
		})

		r.Get("/preferences/me", s.handleGetPreference)
		r.Put("/preferences/me", s.handlePutPreference)

		r.Get("/notifications", s.handleListNotifications)
		r.Post("/notifications/{notificationID}/read", s.handleMarkRead)
	})

	return r
}

type ctxKey struct{}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.Header.Get(UserHeader)
		if name == "" {
			writeError(w, http.StatusUnauthorized, "missing "+UserHeader+" header", nil)
			return
		}
		u, err := s.users.Lookup(name)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error(), nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, u)))
	})
}

func currentUser(r *http.Request) model.User {
	u, _ := r.Context().Value(ctxKey{}).(model.User)
	return u
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

type errorBody struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
	Detail any      `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, detail any) {
	writeJSON(w, status, errorBody{Error: msg, Detail: detail})
}

// writeServiceError maps domain errors to HTTP status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	var vErr *model.ValidationError
	var cErr *tasks.ConflictError

	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Fields: vErr.Fields})
	case errors.As(err, &cErr):
		writeError(w, http.StatusConflict, err.Error(), cErr.Result)
	case errors.Is(err, model.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error(), nil)
	case errors.Is(err, model.ErrUnknownUser):
		writeError(w, http.StatusUnauthorized, err.Error(), nil)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, store.ErrStaleWrite):
		writeError(w, http.StatusConflict, err.Error(), nil)
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error", nil)
	}
}
