package detail

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskplanner/internal/keys"
	"github.com/nhle/taskplanner/internal/model"
)

func press(r string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(r)}
}

func loaded(t *model.Task) Model {
	m := New(keys.DefaultKeyMap(), model.User{Username: "hia", Role: model.RoleAdmin}, 80, 24)
	m.Show(t.ID)
	m, _ = m.Update(DetailLoadedMsg{TaskID: t.ID, Task: t})
	return m
}

func TestStaleLoadIgnored(t *testing.T) {
	m := New(keys.DefaultKeyMap(), model.User{Username: "hia"}, 80, 24)
	m.Show("b")

	m, _ = m.Update(DetailLoadedMsg{TaskID: "a", Task: &model.Task{ID: "a", Action: "old"}})
	assert.Contains(t, m.View(), "Loading task")

	m, _ = m.Update(DetailLoadedMsg{TaskID: "b"})
	assert.Contains(t, m.View(), "no longer exists")
}

func TestActionsFollowAuditState(t *testing.T) {
	m := loaded(&model.Task{ID: "t1", Action: "visit", Status: model.StatusPending})

	_, cmd := m.Update(press("r"))
	require.NotNil(t, cmd)
	assert.Equal(t, ActionMsg{Action: ActionRequestAudit, TaskID: "t1"}, cmd())

	_, cmd = m.Update(press("c"))
	if cmd != nil {
		assert.NotEqual(t, ActionMsg{Action: ActionCancelApproval, TaskID: "t1"}, cmd(),
			"nothing to cancel on an unapproved task")
	}

	approved := loaded(&model.Task{ID: "t2", Action: "visit", AuditRequest: true, AuditApprovedBy: "hia"})
	_, cmd = approved.Update(press("c"))
	require.NotNil(t, cmd)
	assert.Equal(t, ActionMsg{Action: ActionCancelApproval, TaskID: "t2"}, cmd())
	assert.Contains(t, approved.Hints(), "c cancel approval")
}

func TestEscGoesBack(t *testing.T) {
	m := loaded(&model.Task{ID: "t1"})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, BackMsg{}, cmd())
}
