package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskplanner/internal/model"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(model.LogConfig{Level: "debug", Format: "json"}, &buf)
	require.NoError(t, err)

	l.Debug("tick", "user", "hia")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "tick", rec["msg"])
	assert.Equal(t, "hia", rec["user"])
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(model.LogConfig{Level: "warn"}, &buf)
	require.NoError(t, err)

	l.Info("hidden")
	assert.Empty(t, buf.String())
	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestInvalidConfig(t *testing.T) {
	_, err := New(model.LogConfig{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)
	_, err = New(model.LogConfig{Format: "xml"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("WARNING")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	l, closeFn, err := Open(model.LogConfig{File: path}, nil)
	require.NoError(t, err)
	l.Info("written")
	require.NoError(t, closeFn())
	assert.FileExists(t, path)
}
