package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskplanner/internal/model"
	"github.com/nhle/taskplanner/tests/testutil"
)

var (
	admin = model.User{Username: "admin", Role: model.RoleAdmin}
	user  = model.User{Username: "hia", Role: model.RoleUser}
)

func TestAddAndRemove(t *testing.T) {
	svc := NewService(testutil.NewTestStore(t), nil)
	ctx := context.Background()

	got, err := svc.Add(ctx, admin, model.SettingsChannels, "  OZG99 ")
	require.NoError(t, err)
	assert.Contains(t, got.Channels, "OZG99")

	again, err := svc.Add(ctx, admin, model.SettingsChannels, "OZG99")
	require.NoError(t, err)
	assert.Equal(t, got, again)

	got, err = svc.Remove(ctx, admin, model.SettingsTypes, "Saha")
	require.NoError(t, err)
	assert.NotContains(t, got.Types, "Saha")

	stored, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, got, stored)
}

func TestEditRequiresAdmin(t *testing.T) {
	svc := NewService(testutil.NewTestStore(t), nil)

	_, err := svc.Add(context.Background(), user, model.SettingsCodes, "X1")
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestEditValidates(t *testing.T) {
	svc := NewService(testutil.NewTestStore(t), nil)
	ctx := context.Background()

	_, err := svc.Add(ctx, admin, model.SettingsKind("colors"), "red")
	assert.True(t, model.IsValidationError(err))

	_, err = svc.Add(ctx, admin, model.SettingsCodes, "   ")
	assert.True(t, model.IsValidationError(err))
}
