package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskplanner/internal/keys"
	"github.com/nhle/taskplanner/internal/model"
	"github.com/nhle/taskplanner/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// DetailLoadedMsg carries a task and its history.
type DetailLoadedMsg struct {
	TaskID string
	Task   *model.Task
	Events []model.TaskEvent
	Err    error
}

// Action names a task operation requested from the detail view.
type Action string

const (
	ActionEdit           Action = "edit"
	ActionDelete         Action = "delete"
	ActionRequestAudit   Action = "request-audit"
	ActionApprove        Action = "approve"
	ActionCancelApproval Action = "cancel-approval"
	ActionReopen         Action = "reopen"
)

// ActionMsg asks the parent to run an action on the current task.
type ActionMsg struct {
	Action Action
	TaskID string
}

// Model is the task detail view component.
type Model struct {
	id       string
	task     *model.Task
	events   []model.TaskEvent
	err      error
	viewport viewport.Model
	keys     *keys.KeyMap
	user     model.User
	width    int
	height   int
	loading  bool
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, user model.User, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		user:     user,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// TaskID returns the ID of the displayed or loading task.
func (m Model) TaskID() string {
	return m.id
}

// Show clears the view and marks id as loading.
func (m *Model) Show(id string) {
	m.id = id
	m.task = nil
	m.events = nil
	m.err = nil
	m.loading = true
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case DetailLoadedMsg:
		if msg.TaskID != "" && msg.TaskID != m.id {
			return m, nil
		}
		m.task = msg.Task
		m.events = msg.Events
		m.err = msg.Err
		m.loading = false
		m.viewport.SetContent(m.renderContent())
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Back) {
			return m, func() tea.Msg { return BackMsg{} }
		}
		if m.task != nil {
			if a, ok := m.actionFor(msg); ok {
				id := m.task.ID
				return m, func() tea.Msg { return ActionMsg{Action: a, TaskID: id} }
			}
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// actionFor maps a key to an action that is meaningful for the current
// task. Role checks happen in the services; this only hides no-op keys.
func (m Model) actionFor(msg tea.KeyMsg) (Action, bool) {
	t := m.task
	switch {
	case key.Matches(msg, m.keys.Edit):
		return ActionEdit, true
	case key.Matches(msg, m.keys.Delete):
		return ActionDelete, true
	case key.Matches(msg, m.keys.RequestAudit):
		return ActionRequestAudit, !t.AuditRequest && !t.IsApproved()
	case key.Matches(msg, m.keys.Approve):
		return ActionApprove, !t.IsApproved()
	case key.Matches(msg, m.keys.CancelApproval):
		return ActionCancelApproval, t.IsApproved()
	case key.Matches(msg, m.keys.Reopen):
		return ActionReopen, true
	}
	return "", false
}

// Hints returns the key hints that apply to the current task.
func (m Model) Hints() string {
	hints := []string{"esc back", "j/k scroll"}
	if m.task == nil {
		return strings.Join(hints, " | ")
	}
	if !m.task.AuditRequest && !m.task.IsApproved() {
		hints = append(hints, "r request audit")
	}
	if m.user.IsAdmin() {
		if m.task.IsApproved() {
			hints = append(hints, "c cancel approval")
		} else {
			hints = append(hints, "a approve")
		}
		hints = append(hints, "o reopen", "e edit", "d delete")
	}
	return strings.Join(hints, " | ")
}

// View renders the detail view.
func (m Model) View() string {
	center := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	switch {
	case m.loading:
		return center.Render("Loading task...")
	case m.err != nil:
		return center.Render(theme.ErrorStyle.Render(m.err.Error()))
	case m.task == nil:
		return center.Render("Task no longer exists")
	}
	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.task == nil {
		return ""
	}
	t := m.task
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(t.Action))

	badges := []string{
		lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue).Render(t.Code),
		theme.StatusStyle(t.Status).Render(string(t.Status)),
	}
	if b := theme.AuditBadge(*t); b != "" {
		badges = append(badges, b)
	}
	sections = append(sections, strings.Join(badges, "  "), "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(14)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	row := func(label, value string) {
		if value == "" {
			return
		}
		sections = append(sections, metaStyle.Render(label)+valStyle.Render(value))
	}

	when := t.Date
	if t.StartTime != "" {
		when += "  " + t.StartTime
		if t.EndTime != "" {
			when += " - " + t.EndTime
		}
	}
	row("When", when)
	row("Channel", t.Channel)
	row("Type", t.Type)
	row("Participants", strings.Join(t.Participants, ", "))
	row("Status", fmt.Sprintf("%s (%s)", t.Status, t.Status.Label()))
	if t.AuditRequest {
		row("Audit", "requested by "+t.AuditRequestedBy)
	}
	if t.IsApproved() {
		approved := t.AuditApprovedBy
		if t.AuditApprovedAt != nil {
			approved += " at " + t.AuditApprovedAt.Local().Format("2006-01-02 15:04")
		}
		row("Approved", approved)
	}
	if !t.UpdatedAt.IsZero() {
		row("Updated", t.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}

	if len(m.events) > 0 {
		sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
		separator := sepStyle.Render(strings.Repeat("─", max(0, min(m.width-4, 80))))
		sections = append(sections, "", separator, "")
		sections = append(sections, lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render("History"))

		timeStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
		actorStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue)
		for _, e := range m.events {
			sections = append(sections, fmt.Sprintf("%s  %-18s %s",
				timeStyle.Render(e.At.Local().Format("2006-01-02 15:04")),
				string(e.Kind),
				actorStyle.Render(e.Actor),
			))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.viewport.SetContent(m.renderContent())
}
