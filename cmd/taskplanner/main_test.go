package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskplanner/internal/credential"
	"github.com/nhle/taskplanner/internal/model"
)

type harness struct {
	t      *testing.T
	config string
	ring   keyring.Keyring
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	config := filepath.Join(dir, "config.yaml")
	yaml := "database:\n" +
		"  path: " + filepath.Join(dir, "tasks.db") + "\n" +
		"reminder:\n" +
		"  interval_sec: 600\n" +
		"notifications:\n" +
		"  permission: granted\n" +
		"  channels: [terminal]\n" +
		"log:\n" +
		"  level: error\n"
	require.NoError(t, os.WriteFile(config, []byte(yaml), 0o600))
	return &harness{t: t, config: config, ring: keyring.NewArrayKeyring(nil)}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	opts := &globalOptions{
		newSession: func() (*credential.Session, error) {
			return credential.NewSessionWithRing(h.ring), nil
		},
		logOutput:   io.Discard,
		interactive: func() bool { return false },
	}
	var buf bytes.Buffer
	cmd := newRootCmd(opts)
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(append([]string{"--config", h.config}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, out)
	return out
}

func (h *harness) addTask(user, date, start string, participants ...string) string {
	h.t.Helper()
	def := model.DefaultSettings()
	args := []string{
		"-u", user, "task", "add",
		"--date", date,
		"--code", def.Codes[0],
		"--channel", def.Channels[0],
		"--type", def.Types[0],
		"--action", "site visit",
		"--participants", strings.Join(participants, ","),
	}
	if start != "" {
		args = append(args, "--start", start)
	}
	out := h.mustRun(args...)
	id := strings.TrimPrefix(strings.TrimSpace(out), "Created task ")
	require.NotEmpty(h.t, id)
	return id
}

func TestLoginWhoami(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")

	out := h.mustRun("login", "HIA")
	assert.Contains(t, out, "Logged in as")

	out = h.mustRun("whoami")
	assert.Contains(t, out, "hia")

	h.mustRun("logout")
	_, err = h.run("whoami")
	assert.Error(t, err)

	_, err = h.run("login", "nobody")
	assert.Error(t, err)
}

func TestTaskLifecycle(t *testing.T) {
	h := newHarness(t)
	h.mustRun("login", "admin")

	id := h.addTask("admin", "2030-01-10", "10:00", "hia", "yce")

	out := h.mustRun("task", "list", "--json")
	var listed []model.Task
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, id, listed[0].ID)
	assert.Equal(t, model.StatusPending, listed[0].Status)

	out = h.mustRun("task", "show", id[:8])
	assert.Contains(t, out, "site visit")
	assert.Contains(t, out, string(model.EventTaskCreated))

	h.mustRun("task", "edit", id, "--action", "site visit and report")
	out = h.mustRun("task", "show", id)
	assert.Contains(t, out, "site visit and report")

	_, err := h.run("task", "edit", id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to change")

	_, err = h.run("task", "edit", id, "--status", string(model.StatusCompleted))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown flag")

	h.mustRun("task", "delete", id)
	out = h.mustRun("task", "list")
	assert.Contains(t, out, "No tasks.")
}

func TestOnlyAdminsCreate(t *testing.T) {
	h := newHarness(t)
	def := model.DefaultSettings()

	_, err := h.run("-u", "hia", "task", "add",
		"--date", "2030-01-10",
		"--code", def.Codes[0], "--channel", def.Channels[0], "--type", def.Types[0],
		"--action", "x", "--participants", "hia")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestConflictNeedsForce(t *testing.T) {
	h := newHarness(t)
	h.addTask("admin", "2030-01-10", "10:00", "hia")

	out := h.mustRun("conflicts", "--date", "2030-01-10", "-p", "hia")
	assert.Contains(t, out, "1 conflicting task(s)")

	out = h.mustRun("conflicts", "--date", "2030-01-10", "-p", "yce")
	assert.Contains(t, out, "No conflicts.")

	def := model.DefaultSettings()
	args := []string{
		"-u", "admin", "task", "add",
		"--date", "2030-01-10",
		"--code", def.Codes[0], "--channel", def.Channels[0], "--type", def.Types[0],
		"--action", "second visit", "--participants", "hia",
	}
	out, err := h.run(args...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")
	assert.Contains(t, out, "conflicting task(s)")

	out = h.mustRun(append(args, "--force")...)
	assert.Contains(t, out, "Created task")
}

func TestAuditFlow(t *testing.T) {
	h := newHarness(t)
	id := h.addTask("admin", "2030-01-10", "10:00", "hia")

	_, err := h.run("-u", "yce", "audit", "request", id)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrForbidden)

	out := h.mustRun("-u", "hia", "audit", "request", id)
	assert.Contains(t, out, "Audit requested")

	out = h.mustRun("-u", "admin", "dashboard", "pending")
	assert.Contains(t, out, "Pending audits")
	assert.Contains(t, out, "site visit")

	_, err = h.run("-u", "hia", "audit", "approve", id)
	assert.ErrorIs(t, err, model.ErrForbidden)

	out = h.mustRun("-u", "admin", "audit", "approve", id)
	assert.Contains(t, out, "Task approved")

	out = h.mustRun("-u", "admin", "dashboard", "completed", "--json")
	var boards map[string][]model.Task
	require.NoError(t, json.Unmarshal([]byte(out), &boards))
	require.Len(t, boards["completed"], 1)
	assert.Equal(t, "admin", boards["completed"][0].AuditApprovedBy)

	out = h.mustRun("-u", "admin", "audit", "reopen", id)
	assert.Contains(t, out, "Task reopened")

	out = h.mustRun("-u", "admin", "task", "show", id, "--json")
	var shown struct {
		Task model.Task `json:"task"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, model.StatusInProgress, shown.Task.Status)
	assert.False(t, shown.Task.AuditRequest)
}

func TestSettingsCommands(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("-u", "admin", "settings", "add", "codes", "ZZ99")
	assert.Contains(t, out, "ZZ99")

	out = h.mustRun("settings", "list")
	assert.Contains(t, out, "ZZ99")

	_, err := h.run("-u", "hia", "settings", "add", "codes", "ZZ98")
	assert.ErrorIs(t, err, model.ErrForbidden)

	out = h.mustRun("-u", "admin", "settings", "remove", "codes", "ZZ99")
	assert.NotContains(t, out, "ZZ99")
}

func TestPrefsCommands(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("-u", "hia", "prefs", "show")
	assert.Contains(t, out, "not set up")

	out = h.mustRun("-u", "hia", "prefs", "set", "--minutes", "30")
	assert.Contains(t, out, "30 minutes before start")

	out = h.mustRun("-u", "hia", "prefs", "enable")
	assert.Contains(t, out, "Reminders on, 15 minutes before start")

	_, err := h.run("-u", "hia", "prefs", "set")
	assert.Error(t, err)
}

func TestRemindOnce(t *testing.T) {
	h := newHarness(t)
	h.mustRun("-u", "hia", "prefs", "set", "--enabled", "--minutes", "15")

	start := time.Now().Add(15 * time.Minute)
	h.addTask("admin", start.Format(model.DateLayout), start.Format(model.ClockLayout), "hia")
	h.addTask("admin", "2030-01-10", "10:00", "hia")

	out := h.mustRun("remind", "--once", "--users", "hia", "--channels", "terminal")
	assert.Contains(t, out, "1 reminder(s) sent")
	assert.Contains(t, out, "site visit")

	_, err := h.run("remind", "--once", "--channels", "pager")
	assert.Error(t, err)
}

func TestRemindPromptWithoutTerminal(t *testing.T) {
	h := newHarness(t)
	h.mustRun("-u", "hia", "prefs", "set", "--enabled", "--minutes", "15")
	start := time.Now().Add(15 * time.Minute)
	h.addTask("admin", start.Format(model.DateLayout), start.Format(model.ClockLayout), "hia")

	raw, err := os.ReadFile(h.config)
	require.NoError(t, err)
	raw = bytes.Replace(raw, []byte("permission: granted"), []byte("permission: prompt"), 1)
	require.NoError(t, os.WriteFile(h.config, raw, 0o600))

	out, err := h.run("remind", "--once", "--users", "hia", "--channels", "terminal")
	require.Error(t, err, out)
	assert.ErrorIs(t, err, errNoPermission)
	assert.Contains(t, out, "treating it as denied")
	assert.NotContains(t, out, "reminder(s) sent")
}

func TestConfigInit(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	out, err := h.run("config", "init")
	require.Error(t, err, out)
	assert.Contains(t, err.Error(), "already exists")

	h.config = path
	out = h.mustRun("config", "init")
	assert.Contains(t, out, path)
	_, err = os.Stat(path)
	require.NoError(t, err)

	out = h.mustRun("users")
	assert.Contains(t, out, "admin")

	out = h.mustRun("config", "path")
	assert.Equal(t, path, strings.TrimSpace(out))
}
