package reminder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nhle/taskplanner/internal/model"
	"github.com/nhle/taskplanner/internal/notify"
)

// PreferenceStore reads and writes notification preferences.
type PreferenceStore interface {
	GetPreferences(ctx context.Context) (model.Preferences, error)
	PutPreference(ctx context.Context, user string, pref model.NotificationPreference) error
}

// Preferences manages users' reminder settings.
type Preferences struct {
	store  PreferenceStore
	gate   notify.Gate
	logger *slog.Logger
}

// NewPreferences returns a preference service. A nil gate grants everything.
func NewPreferences(store PreferenceStore, gate notify.Gate, logger *slog.Logger) *Preferences {
	if gate == nil {
		gate = notify.StaticGate(notify.PermissionGranted)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Preferences{store: store, gate: gate, logger: logger}
}

// Get returns user's preference and whether one is stored.
func (p *Preferences) Get(ctx context.Context, user string) (model.NotificationPreference, bool, error) {
	prefs, err := p.store.GetPreferences(ctx)
	if err != nil {
		return model.NotificationPreference{}, false, fmt.Errorf("loading preferences: %w", err)
	}
	pref, ok := prefs.For(user)
	return pref, ok, nil
}

// Save stores pref for user. When it turns reminders on, permission is
// requested first; the preference is stored whatever the answer. The
// returned permission is PermissionGranted when no request was needed.
func (p *Preferences) Save(
	ctx context.Context,
	user string,
	pref model.NotificationPreference,
) (notify.Permission, error) {
	if err := pref.Validate(); err != nil {
		return "", err
	}

	perm := notify.PermissionGranted
	if pref.Enabled {
		current, ok, err := p.Get(ctx, user)
		if err != nil {
			return "", err
		}
		if !ok || !current.Enabled {
			perm = p.request(ctx, user)
		}
	}

	if err := p.store.PutPreference(ctx, user, pref); err != nil {
		return perm, fmt.Errorf("saving preference for %s: %w", user, err)
	}
	p.logger.Info("notification preference saved",
		"user", user, "enabled", pref.Enabled, "minutes", pref.ReminderMinutes, "permission", perm)
	return perm, nil
}

// Enable requests permission and, when it is granted, stores the default
// preference for user.
func (p *Preferences) Enable(ctx context.Context, user string) (notify.Permission, error) {
	perm := p.request(ctx, user)
	if perm != notify.PermissionGranted {
		return perm, nil
	}
	if err := p.store.PutPreference(ctx, user, model.DefaultPreference()); err != nil {
		return perm, fmt.Errorf("saving default preference for %s: %w", user, err)
	}
	return perm, nil
}

func (p *Preferences) request(ctx context.Context, user string) notify.Permission {
	perm, err := p.gate.RequestPermission(ctx)
	if err != nil {
		p.logger.Warn("requesting notification permission", "user", user, "error", err)
		return notify.PermissionPrompt
	}
	return perm
}
