package tasklist

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskplanner/internal/audit"
	"github.com/nhle/taskplanner/internal/keys"
	"github.com/nhle/taskplanner/internal/model"
	"github.com/nhle/taskplanner/internal/theme"
)

// SelectedTaskMsg is sent when a user selects a task to view details.
type SelectedTaskMsg struct {
	TaskID string
}

// Board selects which slice of the task list is shown.
type Board int

const (
	BoardAll Board = iota
	BoardMine
	BoardUpcoming
	BoardPending
	BoardCompleted
	BoardCalendar
)

var boards = []Board{BoardAll, BoardMine, BoardUpcoming, BoardPending, BoardCompleted, BoardCalendar}

// UpcomingDays is how far ahead the upcoming board looks.
const UpcomingDays = 7

func (b Board) String() string {
	switch b {
	case BoardMine:
		return "mine"
	case BoardUpcoming:
		return "upcoming"
	case BoardPending:
		return "pending"
	case BoardCompleted:
		return "completed"
	case BoardCalendar:
		return "calendar"
	default:
		return "all"
	}
}

// ParseBoard maps a board name to a Board.
func ParseBoard(s string) (Board, bool) {
	for _, b := range boards {
		if b.String() == strings.ToLower(strings.TrimSpace(s)) {
			return b, true
		}
	}
	return BoardAll, false
}

// Model is the main task list view component. It holds the full task
// snapshot and derives the visible board from it.
type Model struct {
	list   list.Model
	keys   *keys.KeyMap
	user   string
	all    []model.Task
	board  Board
	now    func() time.Time
	width  int
	height int
}

// New creates a new task list model for user.
func New(k *keys.KeyMap, user string, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)
	l.DisableQuitKeybindings()
	l.Styles.Title = theme.HeaderStyle

	m := Model{
		list:   l,
		keys:   k,
		user:   user,
		now:    time.Now,
		width:  width,
		height: height,
	}
	m.list.Title = m.title()
	return m
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetTasks replaces the snapshot and refreshes the visible board.
func (m *Model) SetTasks(ts []model.Task) tea.Cmd {
	m.all = ts
	return m.refresh()
}

// SetBoard switches the visible board.
func (m *Model) SetBoard(b Board) tea.Cmd {
	m.board = b
	return m.refresh()
}

// Board returns the visible board.
func (m Model) Board() Board {
	return m.board
}

// Visible returns the tasks on the current board.
func (m Model) Visible() []model.Task {
	switch m.board {
	case BoardMine:
		return audit.TasksForUser(m.all, m.user)
	case BoardUpcoming:
		return audit.UpcomingTasksForUser(m.all, m.user, UpcomingDays, m.now())
	case BoardPending:
		return audit.PendingAudits(m.all)
	case BoardCompleted:
		return audit.CompletedTasks(m.all)
	case BoardCalendar:
		return audit.TeamCalendar(m.all)
	default:
		return m.all
	}
}

// SelectedTask returns the highlighted task.
func (m Model) SelectedTask() (model.Task, bool) {
	item, ok := m.list.SelectedItem().(TaskItem)
	if !ok {
		return model.Task{}, false
	}
	return item.Task, true
}

// Filtering reports whether the list's filter input has focus.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m *Model) refresh() tea.Cmd {
	visible := m.Visible()
	items := make([]list.Item, len(visible))
	for i, t := range visible {
		items[i] = TaskItem{Task: t}
	}
	m.list.Title = m.title()
	return m.list.SetItems(items)
}

func (m Model) title() string {
	return fmt.Sprintf("Tasks · %s", m.board)
}

// Update handles messages for the task list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && !m.Filtering() {
		switch {
		case key.Matches(msg, m.keys.Select):
			t, ok := m.SelectedTask()
			if !ok {
				return m, nil
			}
			return m, func() tea.Msg {
				return SelectedTaskMsg{TaskID: t.ID}
			}

		case key.Matches(msg, m.keys.NextBoard):
			return m, m.SetBoard(boards[(int(m.board)+1)%len(boards)])

		case key.Matches(msg, m.keys.PrevBoard):
			return m, m.SetBoard(boards[(int(m.board)+len(boards)-1)%len(boards)])
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the task list view.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}
	return m.list.View()
}

func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	switch m.board {
	case BoardPending:
		return style.Render("No audits waiting for approval.")
	case BoardUpcoming:
		return style.Render(fmt.Sprintf("Nothing scheduled for you in the next %d days.", UpcomingDays))
	case BoardAll:
		if len(m.all) == 0 {
			return style.Render("No tasks yet.\n\nPress n to create one.")
		}
	}
	return style.Render(fmt.Sprintf("No tasks on the %s board.\n\nPress tab to switch boards.", m.board))
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}
