package tasklist

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskplanner/internal/keys"
	"github.com/nhle/taskplanner/internal/model"
)

func sample() []model.Task {
	return []model.Task{
		{ID: "a", Date: "2024-03-08", Action: "report", Participants: []string{"hia"}, Status: model.StatusPending},
		{ID: "b", Date: "2024-03-07", Action: "visit", Participants: []string{"yce"}, Status: model.StatusPending, AuditRequest: true},
		{ID: "c", Date: "2024-03-01", Action: "review", Participants: []string{"hia"}, Status: model.StatusCompleted},
		{ID: "d", Date: "2024-04-30", Action: "plan", Participants: []string{"hia"}, Status: model.StatusPending},
	}
}

func ids(ts []model.Task) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.ID
	}
	return out
}

func newList() Model {
	m := New(keys.DefaultKeyMap(), "hia", 80, 24)
	m.now = func() time.Time { return time.Date(2024, 3, 6, 12, 0, 0, 0, time.Local) }
	m.SetTasks(sample())
	return m
}

func TestBoards(t *testing.T) {
	m := newList()

	assert.Len(t, m.Visible(), 4)

	m.SetBoard(BoardMine)
	assert.ElementsMatch(t, []string{"a", "c", "d"}, ids(m.Visible()))

	m.SetBoard(BoardUpcoming)
	assert.Equal(t, []string{"a"}, ids(m.Visible()))

	m.SetBoard(BoardPending)
	assert.Equal(t, []string{"b"}, ids(m.Visible()))

	m.SetBoard(BoardCompleted)
	assert.Equal(t, []string{"c"}, ids(m.Visible()))

	m.SetBoard(BoardCalendar)
	assert.Equal(t, []string{"b", "a", "d"}, ids(m.Visible()))
}

func TestTabCyclesBoards(t *testing.T) {
	m := newList()

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, BoardMine, m.Board())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, BoardCalendar, m.Board())
}

func TestSelectEmitsTaskID(t *testing.T) {
	m := newList()
	m.SetBoard(BoardPending)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, SelectedTaskMsg{TaskID: "b"}, cmd())
}

func TestParseBoard(t *testing.T) {
	b, ok := ParseBoard(" Pending ")
	assert.True(t, ok)
	assert.Equal(t, BoardPending, b)

	_, ok = ParseBoard("archive")
	assert.False(t, ok)
}

func TestEmptyBoardView(t *testing.T) {
	m := New(keys.DefaultKeyMap(), "hia", 80, 24)
	assert.Contains(t, m.View(), "No tasks yet")

	m.SetBoard(BoardPending)
	assert.Contains(t, m.View(), "No audits waiting")
}
