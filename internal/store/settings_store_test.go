package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskplanner/internal/model"
	"github.com/nhle/taskplanner/tests/testutil"
)

func TestGetSettingsSeedsDefaults(t *testing.T) {
	s := testutil.NewTestStore(t)

	got, err := s.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.DefaultSettings(), got)
}

func TestPutSettingsPublishes(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	feed, err := s.SubscribeSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultSettings(), receive(t, feed))

	updated := model.DefaultSettings().WithAdded(model.SettingsCodes, "99X")
	require.NoError(t, s.PutSettings(ctx, updated))

	assert.Contains(t, receive(t, feed).Codes, "99X")

	got, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, updated, got)
}

func TestPutPreferenceMerges(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutPreference(ctx, "hia", model.DefaultPreference()))
	require.NoError(t, s.PutPreference(ctx, "yce", model.NotificationPreference{Enabled: false, ReminderMinutes: 30}))
	require.NoError(t, s.PutPreference(ctx, "hia", model.NotificationPreference{Enabled: true, ReminderMinutes: 5}))

	prefs, err := s.GetPreferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Preferences{
		"hia": {Enabled: true, ReminderMinutes: 5},
		"yce": {Enabled: false, ReminderMinutes: 30},
	}, prefs)
}

func TestPutPreferenceRejectsNegativeMinutes(t *testing.T) {
	s := testutil.NewTestStore(t)

	err := s.PutPreference(context.Background(), "hia", model.NotificationPreference{Enabled: true, ReminderMinutes: -1})
	require.Error(t, err)
	assert.True(t, model.IsValidationError(err))
}

func TestSubscribePreferences(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	feed, err := s.SubscribePreferences(ctx)
	require.NoError(t, err)
	assert.Empty(t, receive(t, feed))

	require.NoError(t, s.PutPreference(ctx, "hia", model.DefaultPreference()))
	got := receive(t, feed)
	assert.Equal(t, model.DefaultPreference(), got["hia"])
}

func TestNotifications(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateNotification(ctx, model.Notification{
		TaskID: "t1", Username: "hia", Title: "Görev Hatırlatması", Body: "KK18 - visit",
	}))
	require.NoError(t, s.CreateNotification(ctx, model.Notification{
		TaskID: "t2", Username: "yce", Title: "Görev Hatırlatması",
	}))

	unread, err := s.GetNotifications(ctx, "hia", true)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "t1", unread[0].TaskID)

	require.NoError(t, s.MarkNotificationRead(ctx, unread[0].ID))

	unread, err = s.GetNotifications(ctx, "hia", true)
	require.NoError(t, err)
	assert.Empty(t, unread)

	all, err := s.GetNotifications(ctx, "hia", false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Read)
}

func TestEvents(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendEvent(ctx, model.TaskEvent{TaskID: "t1", Kind: model.EventAuditRequested, Actor: "hia"}))
	require.NoError(t, s.AppendEvent(ctx, model.TaskEvent{TaskID: "t1", Kind: model.EventAuditApproved, Actor: "admin"}))
	require.NoError(t, s.AppendEvent(ctx, model.TaskEvent{TaskID: "t2", Kind: model.EventTaskCreated, Actor: "admin"}))

	events, err := s.GetEvents(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, model.EventAuditRequested, events[0].Kind)
	assert.Equal(t, model.EventAuditApproved, events[1].Kind)
	assert.Equal(t, "admin", events[1].Actor)
}
