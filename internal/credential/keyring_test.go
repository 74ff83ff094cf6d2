package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRoundTrip(t *testing.T) {
	s := NewSessionWithRing(keyring.NewArrayKeyring(nil))

	_, err := s.Load()
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, s.Save("hia"))
	user, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "hia", user)

	require.NoError(t, s.Clear())
	_, err = s.Load()
	assert.ErrorIs(t, err, ErrNoSession)

	assert.NoError(t, s.Clear())
}

func TestSecrets(t *testing.T) {
	s := NewSessionWithRing(keyring.NewArrayKeyring(nil))

	_, err := s.LoadSecret("mail-password")
	assert.ErrorIs(t, err, ErrNoSecret)

	require.NoError(t, s.SaveSecret("mail-password", "hunter2"))
	require.NoError(t, s.Save("hia"))

	pw, err := s.LoadSecret("mail-password")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", pw)

	user, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "hia", user, "secrets do not clobber the session")
}
