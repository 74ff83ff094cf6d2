// Package settings manages the allowed codes, channels and types.
package settings

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/nhle/taskplanner/internal/model"
)

// Store reads and writes the settings lists.
type Store interface {
	GetSettings(ctx context.Context) (model.Settings, error)
	PutSettings(ctx context.Context, s model.Settings) error
}

// Service applies admin edits to the settings lists.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService returns a settings service.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// Get returns the current settings.
func (s *Service) Get(ctx context.Context) (model.Settings, error) {
	return s.store.GetSettings(ctx)
}

// Add appends value to the list named by kind.
func (s *Service) Add(ctx context.Context, actor model.User, kind model.SettingsKind, value string) (model.Settings, error) {
	return s.edit(ctx, actor, "add", kind, value, func(cur model.Settings, v string) (model.Settings, bool) {
		if slices.Contains(cur.List(kind), v) {
			return cur, false
		}
		return cur.WithAdded(kind, v), true
	})
}

// Remove deletes value from the list named by kind. Existing tasks keep
// the value.
func (s *Service) Remove(ctx context.Context, actor model.User, kind model.SettingsKind, value string) (model.Settings, error) {
	return s.edit(ctx, actor, "remove", kind, value, func(cur model.Settings, v string) (model.Settings, bool) {
		if !slices.Contains(cur.List(kind), v) {
			return cur, false
		}
		return cur.WithRemoved(kind, v), true
	})
}

func (s *Service) edit(
	ctx context.Context,
	actor model.User,
	op string,
	kind model.SettingsKind,
	value string,
	apply func(model.Settings, string) (model.Settings, bool),
) (model.Settings, error) {
	if err := model.RequireAdmin(actor, op+" setting"); err != nil {
		return model.Settings{}, err
	}
	if !kind.IsValid() {
		return model.Settings{}, &model.ValidationError{Fields: []string{"kind"}}
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return model.Settings{}, &model.ValidationError{Fields: []string{"value"}}
	}

	cur, err := s.store.GetSettings(ctx)
	if err != nil {
		return model.Settings{}, fmt.Errorf("loading settings: %w", err)
	}
	next, changed := apply(cur, value)
	if !changed {
		return cur, nil
	}
	if err := s.store.PutSettings(ctx, next); err != nil {
		return cur, fmt.Errorf("%s %s %q: %w", op, kind, value, err)
	}
	s.logger.Info("settings updated", "op", op, "kind", kind, "value", value, "actor", actor.Username)
	return next, nil
}
